package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/humidor-social/aficionado-api/api"
	"github.com/humidor-social/aficionado-api/api/scheduler"
	"github.com/humidor-social/aficionado-api/config"
	"github.com/humidor-social/aficionado-api/databases"
	"github.com/humidor-social/aficionado-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	hub := NewHub()

	notifier := Notification{
		NDB:  databases.NewNotificationDatabase(a.dbHelper),
		UDB:  databases.NewUserDatabase(a.dbHelper),
		PTDB: databases.NewPushTokenDatabase(a.dbHelper),
		Hub:  hub,
	}
	u := User{DB: databases.NewUserDatabase(a.dbHelper), Notifier: notifier}
	cig := Cigar{DB: databases.NewCigarDatabase(a.dbHelper)}
	c := Club{
		DB:  databases.NewClubDatabase(a.dbHelper),
		MDB: databases.NewMemberDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
		IDB: databases.NewInviteDatabase(a.dbHelper),
		PDB: databases.NewPostDatabase(a.dbHelper),
		EDB: databases.NewEventDatabase(a.dbHelper),
		Hub: hub,
	}
	p := Post{
		DB:       databases.NewPostDatabase(a.dbHelper),
		LDB:      databases.NewLikeDatabase(a.dbHelper),
		CDB:      databases.NewCommentDatabase(a.dbHelper),
		MDB:      databases.NewMemberDatabase(a.dbHelper),
		ClubDB:   databases.NewClubDatabase(a.dbHelper),
		Notifier: notifier,
		Hub:      hub,
	}
	ev := Event{
		DB:  databases.NewEventDatabase(a.dbHelper),
		ADB: databases.NewAttendeeDatabase(a.dbHelper),
		MDB: databases.NewMemberDatabase(a.dbHelper),
		Hub: hub,
	}
	h := Humidor{
		DB:    databases.NewHumidorDatabase(a.dbHelper),
		HCDB:  databases.NewHumidorCigarDatabase(a.dbHelper),
		UDB:   databases.NewUserDatabase(a.dbHelper),
		CigDB: databases.NewCigarDatabase(a.dbHelper),
	}
	inv := Invite{
		IDB:      databases.NewInviteDatabase(a.dbHelper),
		MDB:      databases.NewMemberDatabase(a.dbHelper),
		UDB:      databases.NewUserDatabase(a.dbHelper),
		CDB:      databases.NewClubDatabase(a.dbHelper),
		Notifier: notifier,
	}
	pt := PushToken{DB: databases.NewPushTokenDatabase(a.dbHelper)}
	sub := Subscription{UDB: databases.NewUserDatabase(a.dbHelper)}
	admin := Admin{ADB: databases.NewAdminDatabase(a.dbHelper), CDB: databases.NewCigarDatabase(a.dbHelper)}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}/follow", api.Middleware(http.HandlerFunc(u.FollowUserHandler))).Methods("POST")
	apiCreate.Handle("/user/{user_id}/unfollow", api.Middleware(http.HandlerFunc(u.UnfollowUserHandler))).Methods("POST")
	apiCreate.Handle("/user/{user_id}/followers", api.Middleware(http.HandlerFunc(u.UserFollowersHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/following", api.Middleware(http.HandlerFunc(u.UserFollowingHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/full-profile", api.Middleware(http.HandlerFunc(u.FullProfileHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/full-profile", api.Middleware(http.HandlerFunc(u.UpdateFullProfileHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}/notification-preferences", api.Middleware(http.HandlerFunc(u.NotificationPrefsHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/notification-preferences", api.Middleware(http.HandlerFunc(u.UpdateNotificationPrefsHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserUpdateHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	// All routes for user must go above this line

	apiCreate.Handle("/cigar/{cigar_id}", api.Middleware(http.HandlerFunc(cig.CigarByIDHandler))).Methods("GET")
	apiCreate.Handle("/cigars", api.Middleware(http.HandlerFunc(cig.CigarsHandler))).Methods("GET")
	apiCreate.Handle("/cigars/search", api.Middleware(http.HandlerFunc(cig.CigarsSearchHandler))).Methods("GET")

	apiCreate.Handle("/club", api.Middleware(http.HandlerFunc(c.CreateClubHandler))).Methods("POST")
	apiCreate.Handle("/club/{club_id}", api.Middleware(http.HandlerFunc(c.ClubHandler))).Methods("GET")
	apiCreate.Handle("/club/{club_id}", api.Middleware(http.HandlerFunc(c.UpdateClubHandler))).Methods("PATCH")
	apiCreate.Handle("/club/{club_id}", api.Middleware(http.HandlerFunc(c.DeleteClubHandler))).Methods("DELETE")
	apiCreate.Handle("/club/{club_id}/join", api.Middleware(http.HandlerFunc(c.JoinClubHandler))).Methods("POST")
	apiCreate.Handle("/club/{club_id}/leave", api.Middleware(http.HandlerFunc(c.LeaveClubHandler))).Methods("POST")
	apiCreate.Handle("/club/{club_id}/members", api.Middleware(http.HandlerFunc(c.ClubMembersHandler))).Methods("GET")
	apiCreate.Handle("/clubs", api.Middleware(http.HandlerFunc(c.ClubsHandler))).Methods("GET")
	apiCreate.Handle("/clubs/user/{user_id}", api.Middleware(http.HandlerFunc(c.UserClubsHandler))).Methods("GET")

	apiCreate.Handle("/club/{club_id}/posts", api.Middleware(http.HandlerFunc(p.ClubPostsHandler))).Methods("GET")
	apiCreate.Handle("/club/{club_id}/posts", api.Middleware(http.HandlerFunc(p.CreatePostHandler))).Methods("POST")
	apiCreate.Handle("/post/{post_id}", api.Middleware(http.HandlerFunc(p.DeletePostHandler))).Methods("DELETE")
	apiCreate.Handle("/post/{post_id}/like", api.Middleware(http.HandlerFunc(p.ToggleLikeHandler))).Methods("POST")
	apiCreate.Handle("/post/{post_id}/likes", api.Middleware(http.HandlerFunc(p.PostLikesHandler))).Methods("GET")
	apiCreate.Handle("/post/{post_id}/comments", api.Middleware(http.HandlerFunc(p.AddCommentHandler))).Methods("POST")
	apiCreate.Handle("/post/{post_id}/comments", api.Middleware(http.HandlerFunc(p.PostCommentsHandler))).Methods("GET")
	apiCreate.Handle("/comment/{comment_id}", api.Middleware(http.HandlerFunc(p.DeleteCommentHandler))).Methods("DELETE")

	apiCreate.Handle("/club/{club_id}/events", api.Middleware(http.HandlerFunc(ev.ClubEventsHandler))).Methods("GET")
	apiCreate.Handle("/club/{club_id}/events", api.Middleware(http.HandlerFunc(ev.CreateEventHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(ev.EventHandler))).Methods("GET")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(ev.UpdateEventHandler))).Methods("PUT")
	apiCreate.Handle("/event/{event_id}", api.Middleware(http.HandlerFunc(ev.DeleteEventHandler))).Methods("DELETE")
	apiCreate.Handle("/event/{event_id}/attend", api.Middleware(http.HandlerFunc(ev.AttendEventHandler))).Methods("POST")
	apiCreate.Handle("/event/{event_id}/unattend", api.Middleware(http.HandlerFunc(ev.UnattendEventHandler))).Methods("DELETE")
	apiCreate.Handle("/event/{event_id}/attendees", api.Middleware(http.HandlerFunc(ev.EventAttendeesHandler))).Methods("GET")

	apiCreate.Handle("/humidor", api.Middleware(http.HandlerFunc(h.CreateHumidorHandler))).Methods("POST")
	apiCreate.Handle("/humidors/user/{user_id}", api.Middleware(http.HandlerFunc(h.UserHumidorsHandler))).Methods("GET")
	apiCreate.Handle("/humidor/{humidor_id}", api.Middleware(http.HandlerFunc(h.UpdateHumidorHandler))).Methods("PATCH")
	apiCreate.Handle("/humidor/{humidor_id}", api.Middleware(http.HandlerFunc(h.DeleteHumidorHandler))).Methods("DELETE")
	apiCreate.Handle("/humidor/{humidor_id}/cigars", api.Middleware(http.HandlerFunc(h.HumidorCigarsHandler))).Methods("GET")
	apiCreate.Handle("/humidor/{humidor_id}/cigars", api.Middleware(http.HandlerFunc(h.AddCigarHandler))).Methods("POST")
	apiCreate.Handle("/humidor/{humidor_id}/cigars/{entry_id}/increment", api.Middleware(http.HandlerFunc(h.IncrementCigarHandler))).Methods("PUT")
	apiCreate.Handle("/humidor/{humidor_id}/cigars/{entry_id}/decrement", api.Middleware(http.HandlerFunc(h.DecrementCigarHandler))).Methods("PUT")
	apiCreate.Handle("/humidor/{humidor_id}/cigars/{entry_id}", api.Middleware(http.HandlerFunc(h.RemoveCigarHandler))).Methods("DELETE")

	apiCreate.Handle("/invite", api.Middleware(http.HandlerFunc(inv.SendInviteHandler))).Methods("POST")
	apiCreate.Handle("/invite/{invite_id}/accept", api.Middleware(http.HandlerFunc(inv.AcceptInviteHandler))).Methods("POST")
	apiCreate.Handle("/invite/{invite_id}/decline", api.Middleware(http.HandlerFunc(inv.DeclineInviteHandler))).Methods("POST")
	apiCreate.Handle("/invites/user/{user_id}", api.Middleware(http.HandlerFunc(inv.ListUserInvitesHandler))).Methods("GET")

	apiCreate.Handle("/users/notifications", api.Middleware(http.HandlerFunc(notifier.AddNotificationHandler))).Methods("POST")
	apiCreate.Handle("/users/{user_id}/notifications", api.Middleware(http.HandlerFunc(notifier.GetUserNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}/notifications", api.Middleware(http.HandlerFunc(notifier.DeleteAllNotificationsHandler))).Methods("DELETE")
	apiCreate.Handle("/notifications/{notification_id}/read", api.Middleware(http.HandlerFunc(notifier.MarkNotificationAsReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}", api.Middleware(http.HandlerFunc(notifier.DeleteNotificationHandler))).Methods("DELETE")

	apiCreate.Handle("/push-token", api.Middleware(http.HandlerFunc(pt.RegisterPushTokenHandler))).Methods("POST")
	apiCreate.Handle("/push-token", api.Middleware(http.HandlerFunc(pt.UnregisterPushTokenHandler))).Methods("DELETE")
	apiCreate.Handle("/push-tokens/user/{user_id}", api.Middleware(http.HandlerFunc(pt.UserPushTokensHandler))).Methods("GET")

	apiCreate.Handle("/subscription/checkout", api.Middleware(http.HandlerFunc(sub.CreateCheckoutSessionHandler))).Methods("POST")
	apiCreate.Handle("/subscription/verify", api.Middleware(http.HandlerFunc(sub.VerifySubscriptionHandler))).Methods("POST")
	apiCreate.Handle("/subscription/unsubscribe", api.Middleware(http.HandlerFunc(sub.UnsubscribeUserHandler))).Methods("POST")
	apiCreate.Handle("/subscription/success", http.HandlerFunc(sub.HandleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/subscription/cancel", http.HandlerFunc(sub.HandleCancelRedirect)).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/cigars", AdminMiddleware(http.HandlerFunc(admin.AdminCreateCigarHandler))).Methods("POST")
	apiCreate.Handle("/admin/cigars/{cigar_id}", AdminMiddleware(http.HandlerFunc(admin.AdminUpdateCigarHandler))).Methods("PATCH")
	apiCreate.Handle("/admin/cigars/{cigar_id}", AdminMiddleware(http.HandlerFunc(admin.AdminDeleteCigarHandler))).Methods("DELETE")

	apiCreate.Handle("/ws/subscribe", http.HandlerFunc(hub.HandleSubscribe)).Methods("GET")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("aficionado-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// background sweeps for orphaned invites, stale notifications and
	// dead push tokens
	a.Scheduler = scheduler.NewScheduler(
		databases.NewInviteDatabase(a.dbHelper),
		databases.NewClubDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		databases.NewNotificationDatabase(a.dbHelper),
		databases.NewPushTokenDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
