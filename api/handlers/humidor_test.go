package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/humidor-social/aficionado-api/api/handlers"
	"github.com/humidor-social/aficionado-api/databases/mocks"
	"github.com/humidor-social/aficionado-api/models"
)

func TestHumidor_AddCigarHandler_FreePlanCap(t *testing.T) {
	mockHumidorDB := &mocks.HumidorDatabase{}
	mockEntryDB := &mocks.HumidorCigarDatabase{}
	mockUserDB := &mocks.UserDatabase{}
	mockCigarDB := &mocks.CigarDatabase{}

	mockHumidorDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Humidor{UserID: "user1"}, nil)
	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      "user1",
		Details: models.UserDetails{Plan: "free"},
	}, nil)
	mockEntryDB.On("TotalQuantityForUser", mock.Anything, "user1").Return(models.FreePlanCigarCap, nil)

	h := handlers.Humidor{
		DB:    mockHumidorDB,
		HCDB:  mockEntryDB,
		UDB:   mockUserDB,
		CigDB: mockCigarDB,
	}

	body := []byte(`{"cigarId": "507f1f77bcf86cd799439012", "quantity": 1}`)
	req := httptest.NewRequest("POST", "/api/v1/humidor/507f1f77bcf86cd799439011/cigars", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"humidor_id": "507f1f77bcf86cd799439011"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	h.AddCigarHandler(rr, req)

	assert.Equal(t, http.StatusPaymentRequired, rr.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "free plan cigar limit reached", resp["error"])
	assert.Equal(t, float64(models.FreePlanCigarCap), resp["limit"])
	assert.Contains(t, resp["checkoutUrl"], "/api/v1/subscription/checkout?userId=user1")

	mockEntryDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestHumidor_AddCigarHandler_PaidPlanBypassesCap(t *testing.T) {
	mockHumidorDB := &mocks.HumidorDatabase{}
	mockEntryDB := &mocks.HumidorCigarDatabase{}
	mockUserDB := &mocks.UserDatabase{}
	mockCigarDB := &mocks.CigarDatabase{}

	mockHumidorDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Humidor{UserID: "user1"}, nil)
	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      "user1",
		Details: models.UserDetails{Plan: "premium"},
	}, nil)
	mockCigarDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Cigar{
		Name:  "Behike 52",
		Brand: "Cohiba",
	}, nil)
	mockEntryDB.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	h := handlers.Humidor{
		DB:    mockHumidorDB,
		HCDB:  mockEntryDB,
		UDB:   mockUserDB,
		CigDB: mockCigarDB,
	}

	body := []byte(`{"cigarId": "507f1f77bcf86cd799439012", "quantity": 100}`)
	req := httptest.NewRequest("POST", "/api/v1/humidor/507f1f77bcf86cd799439011/cigars", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"humidor_id": "507f1f77bcf86cd799439011"})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	h.AddCigarHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	// Catalog fields are denormalized onto the entry
	assert.Contains(t, rr.Body.String(), "Behike 52")
	mockEntryDB.AssertNotCalled(t, "TotalQuantityForUser", mock.Anything, mock.Anything)
}

func TestHumidor_DecrementCigarHandler_NoopAtFloor(t *testing.T) {
	mockEntryDB := &mocks.HumidorCigarDatabase{}

	// The guarded filter matched nothing because the quantity is already
	// at 1; the handler still reports success.
	mockEntryDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	h := handlers.Humidor{HCDB: mockEntryDB}

	req := httptest.NewRequest("PUT", "/api/v1/humidor/507f1f77bcf86cd799439011/cigars/507f1f77bcf86cd799439013/decrement", nil)
	req = mux.SetURLVars(req, map[string]string{
		"humidor_id": "507f1f77bcf86cd799439011",
		"entry_id":   "507f1f77bcf86cd799439013",
	})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	h.DecrementCigarHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message": "quantity decremented"}`, rr.Body.String())
}

func TestHumidor_IncrementCigarHandler_FreePlanCap(t *testing.T) {
	mockEntryDB := &mocks.HumidorCigarDatabase{}
	mockUserDB := &mocks.UserDatabase{}

	mockUserDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      "user1",
		Details: models.UserDetails{Plan: "free"},
	}, nil)
	mockEntryDB.On("TotalQuantityForUser", mock.Anything, "user1").Return(models.FreePlanCigarCap, nil)

	h := handlers.Humidor{HCDB: mockEntryDB, UDB: mockUserDB}

	req := httptest.NewRequest("PUT", "/api/v1/humidor/507f1f77bcf86cd799439011/cigars/507f1f77bcf86cd799439013/increment", nil)
	req = mux.SetURLVars(req, map[string]string{
		"humidor_id": "507f1f77bcf86cd799439011",
		"entry_id":   "507f1f77bcf86cd799439013",
	})
	req.Header.Set("X-User-ID", "user1")
	rr := httptest.NewRecorder()

	h.IncrementCigarHandler(rr, req)

	assert.Equal(t, http.StatusPaymentRequired, rr.Code)
	mockEntryDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
