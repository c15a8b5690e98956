package handlers

import "net/http"

// requesterID returns the id of the authenticated user making the
// request. The mobile client sends it in the X-User-ID header alongside
// its bearer token.
func requesterID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
