package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parsaivi/police-department-api/api/handlers"
	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/databases/mocks"
	"github.com/parsaivi/police-department-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func TestComplaint_ComplaintByIDHandlerBadID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaints/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "1234"})

	c := handlers.Complaint{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.ComplaintByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestComplaint_ComplaintByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaints/608cafe595eb9dc05379b7f4", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var singleResultHelper databases.SingleResultHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	singleResultHelper = &mocks.SingleResultHelper{}

	singleResultHelper.(*mocks.SingleResultHelper).On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.(*mocks.CollectionHelper).On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.(*MockDatabaseHelper).On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{
		DB: databases.NewComplaintDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.ComplaintByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get complaint by ID")
}

func TestComplaint_ComplaintsHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaints?limit=10", nil)
	if err != nil {
		t.Fatal(err)
	}

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).On("All", mock.Anything, mock.Anything).Return(nil)
	cursorHelper.(*mocks.CursorHelper).On("Close", mock.Anything).Return(nil)
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.(*MockDatabaseHelper).On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{
		DB: databases.NewComplaintDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.ComplaintsHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestComplaint_SubmitComplaintHandlerNoActor(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/complaints/608cafe595eb9dc05379b7f4/submit", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	c := handlers.Complaint{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.SubmitComplaintHandler)

	handler.ServeHTTP(rr, req)

	// no authenticated user and no actor header on the request
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to resolve acting user")
}

func TestComplaint_ComplaintHistoryHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaints/608cafe595eb9dc05379b7f4/history", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	var db databases.DatabaseHelper
	var conn databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	db = &MockDatabaseHelper{}
	conn = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.ComplaintHistory)
		(*arg) = []models.ComplaintHistory{}
	})
	cursorHelper.(*mocks.CursorHelper).On("Close", mock.Anything).Return(nil)
	conn.(*mocks.CollectionHelper).On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.(*MockDatabaseHelper).On("Collection", "complaintHistory").Return(conn)

	c := handlers.Complaint{
		DB: databases.NewComplaintDatabase(db),
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.ComplaintHistoryHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}
