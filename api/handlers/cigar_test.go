package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestCigar_CigarByIDHandler_BadHex(t *testing.T) {
	mockCigarDB := &mocks.CigarDatabase{}

	c := handlers.Cigar{DB: mockCigarDB}

	req := httptest.NewRequest("GET", "/api/v1/cigar/asdf", nil)
	req = mux.SetURLVars(req, map[string]string{"cigar_id": "asdf"})
	rr := httptest.NewRecorder()

	c.CigarByIDHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	expected := `{"response": "failed to get objectID from Hex, the provided hex string is not a valid ObjectID"}`
	assert.Equal(t, expected, rr.Body.String())
	mockCigarDB.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestCigar_CigarsSearchHandler_MissingQuery(t *testing.T) {
	mockCigarDB := &mocks.CigarDatabase{}

	c := handlers.Cigar{DB: mockCigarDB}

	req := httptest.NewRequest("GET", "/api/v1/cigars/search", nil)
	rr := httptest.NewRecorder()

	c.CigarsSearchHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "search query is required")
	mockCigarDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestCigar_CigarsSearchHandler_EmptyResult(t *testing.T) {
	mockCigarDB := &mocks.CigarDatabase{}

	mockCigarDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	c := handlers.Cigar{DB: mockCigarDB}

	req := httptest.NewRequest("GET", "/api/v1/cigars/search?q=cohiba", nil)
	rr := httptest.NewRecorder()

	c.CigarsSearchHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestCigar_CigarsHandler_Paginated(t *testing.T) {
	mockCigarDB := &mocks.CigarDatabase{}

	mockCigarDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Cigar{
		{Name: "Behike 52", Brand: "Cohiba"},
	}, nil)

	c := handlers.Cigar{DB: mockCigarDB}

	req := httptest.NewRequest("GET", "/api/v1/cigars?limit=1&page=2", nil)
	rr := httptest.NewRecorder()

	c.CigarsHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Behike 52")
}
