package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestCaseNotifier_NoOpWithoutReporter(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	notifConn := &mocks.CollectionHelper{}
	db.On("Collection", "casenotifications").Return(notifConn)

	n := &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)}

	caseDoc := &models.Case{
		ID:      primitive.NewObjectID(),
		Details: models.CaseDetails{CaseID: "C-0001"},
	}
	n.Notify(context.Background(), caseDoc, models.NotificationStatusChange, "ignored")

	notifConn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCaseNotifier_TargetsOriginalReporter(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	notifConn := &mocks.CollectionHelper{}

	var inserted models.CaseNotification
	notifConn.On("InsertOne", mock.Anything, mock.Anything).
		Return("inserted-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.CaseNotification)
		})
	db.On("Collection", "casenotifications").Return(notifConn)

	n := &handlers.CaseNotifier{NDB: databases.NewCaseNotificationDatabase(db)}

	caseDoc := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseID:     "C-0001",
			ReportedBy: "maria",
		},
	}
	n.Notify(context.Background(), caseDoc, models.NotificationHearingScheduled, "hearing set")

	assert.Equal(t, "maria", inserted.Details.User.Username)
	assert.Equal(t, models.NotificationHearingScheduled, inserted.Details.Type)
	assert.Equal(t, "C-0001", inserted.Details.CaseRef)
	assert.Equal(t, "hearing set", inserted.Details.Message)
	assert.False(t, inserted.Details.Read)
}

func TestListNotificationsHandler_RequiresAuthUser(t *testing.T) {
	c := handlers.CaseNotification{}

	req, _ := http.NewRequest("GET", "/api/v1/case-notifications", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ListNotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMarkAllReadHandler(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	notifConn := &mocks.CollectionHelper{}

	var capturedFilter, capturedUpdate interface{}
	notifConn.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil).
		Run(func(args mock.Arguments) {
			capturedFilter = args.Get(1)
			capturedUpdate = args.Get(2)
		})
	db.On("Collection", "casenotifications").Return(notifConn)

	c := handlers.CaseNotification{DB: databases.NewCaseNotificationDatabase(db)}

	req, _ := http.NewRequest("POST", "/api/v1/case-notifications/read-all", nil)
	req = req.WithContext(api.WithAuthUser(req.Context(),
		api.AuthUser{Username: "maria", Role: models.RoleResident}))

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.MarkAllReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"modified":3`)

	filter := capturedFilter.(bson.M)
	assert.Equal(t, "maria", filter["notification.user.username"])
	assert.Equal(t, false, filter["notification.read"])

	update := capturedUpdate.(bson.M)
	set := update["$set"].(bson.M)
	assert.Equal(t, true, set["notification.read"])
	assert.Contains(t, set, "notification.readAt")
}
