package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Hub      *NotificationHub
	Cron     *cron.Cron
	dbHelper databases.DatabaseHelper

	// InstanceID distinguishes this process in the scheduler lock collection
	InstanceID string
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	a.Hub = NewNotificationHub()
	notifier := &CaseNotifier{
		NDB: databases.NewCaseNotificationDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
		Hub: a.Hub,
	}

	c := Case{
		DB:       databases.NewCaseDatabase(a.dbHelper),
		CDB:      databases.NewCounterDatabase(a.dbHelper),
		LDB:      databases.NewActivityLogDatabase(a.dbHelper),
		Notifier: notifier,
		Uploader: NewEvidenceUploader(),
	}
	n := CaseNotification{DB: databases.NewCaseNotificationDatabase(a.dbHelper)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	h := HealthRecord{DB: databases.NewHealthRecordDatabase(a.dbHelper)}
	i := Incident{DB: databases.NewIncidentDatabase(a.dbHelper)}
	an := Announcement{DB: databases.NewAnnouncementDatabase(a.dbHelper)}
	d := DocumentRequest{DB: databases.NewDocumentRequestDatabase(a.dbHelper)}
	al := ActivityLog{DB: databases.NewActivityLogDatabase(a.dbHelper)}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// printable pages open in bare browser windows, authorized by session or
	// a signed print token
	r.Handle("/cases/{case_id}/full-report", http.HandlerFunc(c.FullReportHandler)).Methods("GET")
	r.Handle("/cases/{case_id}/patawag-print", http.HandlerFunc(c.PatawagPrintHandler)).Methods("GET")
	r.Handle("/cases/{case_id}/cancellation-letter", http.HandlerFunc(c.CancellationLetterHandler)).Methods("GET")

	r.HandleFunc("/ws/notifications", a.Hub.HandleWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")

	apiCreate.Handle("/me", api.Middleware(http.HandlerFunc(u.MeHandler))).Methods("GET")
	apiCreate.Handle("/me", api.Middleware(http.HandlerFunc(u.UpdateMeHandler))).Methods("PUT")

	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CaseHandler))).Methods("GET")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(api.RequireAdmin(http.HandlerFunc(c.DeleteCaseHandler)))).Methods("DELETE")
	apiCreate.Handle("/cases/{case_id}/status", api.Middleware(api.RequireAdmin(http.HandlerFunc(c.UpdateCaseStatusHandler)))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/hearings", api.Middleware(api.RequireAdmin(http.HandlerFunc(c.AddHearingHandler)))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/patawag", api.Middleware(api.RequireAdmin(http.HandlerFunc(c.AddPatawagHandler)))).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/print-token", api.Middleware(http.HandlerFunc(c.CreatePrintTokenHandler))).Methods("POST")

	apiCreate.Handle("/case-notifications", api.Middleware(http.HandlerFunc(n.ListNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/case-notifications/read-all", api.Middleware(http.HandlerFunc(n.MarkAllReadHandler))).Methods("POST")

	apiCreate.Handle("/health-records", api.Middleware(http.HandlerFunc(h.HealthRecordHandler))).Methods("GET")
	apiCreate.Handle("/health-records", api.Middleware(http.HandlerFunc(h.CreateHealthRecordHandler))).Methods("POST")
	apiCreate.Handle("/health-records/{record_id}", api.Middleware(http.HandlerFunc(h.HealthRecordByIDHandler))).Methods("GET")
	apiCreate.Handle("/health-records/{record_id}", api.Middleware(api.RequireAdmin(http.HandlerFunc(h.DeleteHealthRecordHandler)))).Methods("DELETE")

	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(i.IncidentHandler))).Methods("GET")
	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(i.CreateIncidentHandler))).Methods("POST")
	apiCreate.Handle("/incidents/{incident_id}", api.Middleware(http.HandlerFunc(i.IncidentByIDHandler))).Methods("GET")
	apiCreate.Handle("/incidents/{incident_id}/respond", api.Middleware(api.RequireAdmin(http.HandlerFunc(i.RespondIncidentHandler)))).Methods("POST")
	apiCreate.Handle("/incidents/{incident_id}/close", api.Middleware(api.RequireAdmin(http.HandlerFunc(i.CloseIncidentHandler)))).Methods("POST")

	apiCreate.Handle("/announcements", api.Middleware(http.HandlerFunc(an.AnnouncementHandler))).Methods("GET")
	apiCreate.Handle("/announcements", api.Middleware(api.RequireAdmin(http.HandlerFunc(an.CreateAnnouncementHandler)))).Methods("POST")
	apiCreate.Handle("/announcements/{announcement_id}", api.Middleware(api.RequireAdmin(http.HandlerFunc(an.DeleteAnnouncementHandler)))).Methods("DELETE")

	apiCreate.Handle("/document-requests", api.Middleware(http.HandlerFunc(d.DocumentRequestHandler))).Methods("GET")
	apiCreate.Handle("/document-requests", api.Middleware(http.HandlerFunc(d.CreateDocumentRequestHandler))).Methods("POST")
	apiCreate.Handle("/document-requests/{request_id}/checkout", api.Middleware(http.HandlerFunc(d.CreateCheckoutHandler))).Methods("POST")
	apiCreate.Handle("/document-requests/{request_id}/confirm-payment", api.Middleware(http.HandlerFunc(d.ConfirmPaymentHandler))).Methods("POST")
	apiCreate.Handle("/document-requests/{request_id}/release", api.Middleware(api.RequireAdmin(http.HandlerFunc(d.ReleaseDocumentHandler)))).Methods("POST")

	apiCreate.Handle("/activity-logs", api.Middleware(api.RequireAdmin(http.HandlerFunc(al.ActivityLogHandler)))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

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
	zap.S().Info("barangay-portal-api has connected to the database")

	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		zap.S().Warn("STRIPE_SECRET_KEY not set, document fee payments disabled")
	}
	if os.Getenv("PRINT_TOKEN_SECRET") == "" {
		zap.S().Warn("PRINT_TOKEN_SECRET not set, print links disabled, printable pages require a session")
	}

	a.InstanceID = uuid.New().String()

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

// DBHelper exposes the database connection to wiring done outside the router,
// like the scheduler in main.
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

// Notifier builds a case notifier backed by the app's database and hub
func (a *App) Notifier() *CaseNotifier {
	return &CaseNotifier{
		NDB: databases.NewCaseNotificationDatabase(a.dbHelper),
		UDB: databases.NewUserDatabase(a.dbHelper),
		Hub: a.Hub,
	}
}
