package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/api/handlers"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/databases/mocks"
	"github.com/barangayportal/barangay-portal-api/models"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"Reported":  models.StatusReported,
		"reported":  models.StatusReported,
		"Pending":   models.StatusReported,
		"pending":   models.StatusReported,
		"ONGOING":   models.StatusOngoing,
		"Hearing":   models.StatusHearing,
		"resolved":  models.StatusResolved,
		"Cancelled": models.StatusCancelled,
		" ongoing ": models.StatusOngoing,
		"archived":  "",
		"":          "",
	}
	for input, want := range cases {
		assert.Equal(t, want, handlers.NormalizeStatus(input), "input %q", input)
	}
}

// caseDecodeResult builds a SingleResultHelper whose Decode fills in the
// given case document
func caseDecodeResult(caseDoc models.Case) databases.SingleResultHelper {
	sr := &mocks.SingleResultHelper{}
	sr.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Case)
		**arg = caseDoc
	})
	return sr
}

func statusRequest(t *testing.T, caseID, body string, user api.AuthUser) *http.Request {
	req, err := http.NewRequest("POST", "/api/v1/cases/"+caseID+"/status", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	return req.WithContext(api.WithAuthUser(req.Context(), user))
}

func serveStatus(c handlers.Case, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cases/{case_id}/status", c.UpdateCaseStatusHandler).Methods("POST")
	r.ServeHTTP(rr, req)
	return rr
}

func TestUpdateCaseStatusHandler_ToOngoingStampsOnce(t *testing.T) {
	cID := primitive.NewObjectID()
	existing := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:     "C-0007",
			Status:     models.StatusReported,
			ReportedBy: "maria",
			StatusHistory: []models.StatusChange{
				{Status: models.StatusReported, By: "maria"},
			},
		},
	}
	updated := existing
	updated.Details.Status = models.StatusOngoing

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(existing)).Once()
	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(updated))

	var capturedUpdate bson.M
	conn.On("UpdateOne", mock.Anything, bson.M{"_id": cID}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			capturedUpdate = args.Get(2).(bson.M)
		})

	notifConn.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	req := statusRequest(t, cID.Hex(), `{"status":"Ongoing","note":"investigation started"}`,
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin})
	rr := serveStatus(c, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	set := capturedUpdate["$set"].(bson.M)
	assert.Equal(t, models.StatusOngoing, set["case.status"])
	assert.Contains(t, set, "case.ongoingSince")
	assert.Equal(t, false, set["case.over45Notified"])

	push := capturedUpdate["$push"].(bson.M)
	entry := push["case.statusHistory"].(models.StatusChange)
	assert.Equal(t, models.StatusOngoing, entry.Status)
	assert.Equal(t, "kap.santos", entry.By)
	assert.Equal(t, "investigation started", entry.Note)

	notifConn.AssertNumberOfCalls(t, "InsertOne", 1)
}

func TestUpdateCaseStatusHandler_OngoingSinceIsSetOnce(t *testing.T) {
	cID := primitive.NewObjectID()
	firstOngoing := primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -10))
	existing := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:       "C-0008",
			Status:       models.StatusOngoing,
			ReportedBy:   "maria",
			OngoingSince: &firstOngoing,
		},
	}

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(existing))

	var capturedUpdate bson.M
	conn.On("UpdateOne", mock.Anything, bson.M{"_id": cID}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			capturedUpdate = args.Get(2).(bson.M)
		})

	notifConn.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	req := statusRequest(t, cID.Hex(), `{"status":"Ongoing"}`,
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin})
	rr := serveStatus(c, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	set := capturedUpdate["$set"].(bson.M)
	assert.NotContains(t, set, "case.ongoingSince")
	assert.NotContains(t, set, "case.over45Notified")
	// the transition is still recorded
	assert.Contains(t, capturedUpdate, "$push")
}

func TestUpdateCaseStatusHandler_CancelRecordsReasonAndNotifiesTwice(t *testing.T) {
	cID := primitive.NewObjectID()
	existing := models.Case{
		ID: cID,
		Details: models.CaseDetails{
			CaseID:     "C-0009",
			Status:     models.StatusOngoing,
			ReportedBy: "maria",
		},
	}
	cancelled := existing
	cancelled.Details.Status = models.StatusCancelled
	cancelled.Details.CancellationReason = "duplicate report"

	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	notifConn := &mocks.CollectionHelper{}

	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(existing)).Once()
	conn.On("FindOne", mock.Anything, bson.M{"_id": cID}).
		Return(caseDecodeResult(cancelled))

	var capturedUpdate bson.M
	conn.On("UpdateOne", mock.Anything, bson.M{"_id": cID}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			capturedUpdate = args.Get(2).(bson.M)
		})

	var notifTypes []string
	notifConn.On("InsertOne", mock.Anything, mock.Anything).
		Return("inserted-id", nil).
		Run(func(args mock.Arguments) {
			notification := args.Get(1).(models.CaseNotification)
			notifTypes = append(notifTypes, notification.Details.Type)
		})

	db.On("Collection", "cases").Return(conn)
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.Case{
		DB:       databases.NewCaseDatabase(db),
		Notifier: &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)},
	}

	req := statusRequest(t, cID.Hex(),
		`{"status":"Cancelled","cancellationReason":"duplicate report"}`,
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin})
	rr := serveStatus(c, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	set := capturedUpdate["$set"].(bson.M)
	assert.Contains(t, set, "case.cancelDate")
	assert.Equal(t, "duplicate report", set["case.cancellationReason"])

	// cancellation fans out a STATUS_CHANGE plus the CANCELLED notice
	assert.Equal(t, []string{models.NotificationStatusChange, models.NotificationCancelled}, notifTypes)
}

func TestUpdateCaseStatusHandler_RejectsUnknownStatus(t *testing.T) {
	c := handlers.Case{}

	req := statusRequest(t, primitive.NewObjectID().Hex(), `{"status":"Archived"}`,
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin})
	rr := serveStatus(c, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid status")
}

func TestUpdateCaseStatusHandler_RejectsMalformedID(t *testing.T) {
	c := handlers.Case{}

	req := statusRequest(t, "not-an-object-id", `{"status":"Ongoing"}`,
		api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin})
	rr := serveStatus(c, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
