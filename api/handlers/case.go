package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/config"
	"github.com/barangayportal/barangay-portal-api/databases"
	"github.com/barangayportal/barangay-portal-api/models"
)

const casesPerPage = 10

// minEvidenceCount is enforced at filing time only; later appends go through
// the hearing and patawag endpoints.
const minEvidenceCount = 3

// Case exported for testing purposes
type Case struct {
	DB       databases.CaseDatabase
	CDB      databases.CounterDatabase
	LDB      databases.ActivityLogDatabase
	Notifier *CaseNotifier
	Uploader *EvidenceUploader
}

// imageProofRequired lists the case types that need at least one image among
// the uploaded evidence, on top of the overall minimum.
func imageProofRequired(typeOfCase string) bool {
	switch strings.ToLower(typeOfCase) {
	case "vandalism", "theft", "property damage", "physical injury":
		return true
	default:
		return false
	}
}

// daysOngoing computes how many whole days a case has been in the Ongoing
// state. ongoingSince is the authoritative basis; legacy documents written
// before the stamp existed fall back to updatedAt, then createdAt.
func daysOngoing(details models.CaseDetails, now time.Time) int {
	basis := details.CreatedAt.Time()
	if details.OngoingSince != nil {
		basis = details.OngoingSince.Time()
	} else if details.UpdatedAt.Time().Unix() > 0 {
		basis = details.UpdatedAt.Time()
	}
	days := int(now.Sub(basis).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// annotateOverdue wraps a case with the transient overdue note. The note is
// recomputed on every read and never stored.
func annotateOverdue(caseDoc models.Case, now time.Time) models.CaseWithOverdue {
	annotated := models.CaseWithOverdue{Case: caseDoc}
	if caseDoc.Details.Status != models.StatusOngoing {
		return annotated
	}
	days := daysOngoing(caseDoc.Details, now)
	annotated.DaysOngoing = days
	if days >= models.OverdueThresholdDays {
		annotated.Over45Note = fmt.Sprintf(
			"This case has been ongoing for %d days, past the %d-day resolution target.",
			days, models.OverdueThresholdDays)
	}
	return annotated
}

// logActivity appends one audit trail entry; failures are logged and dropped
func (c Case) logActivity(r *http.Request, action, targetID, detail string) {
	if c.LDB == nil {
		return
	}
	actor, _ := api.AuthUserFromContext(r.Context())
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := c.LDB.InsertOne(ctx, models.ActivityLog{
		ID: primitive.NewObjectID(),
		Details: models.ActivityLogDetails{
			Module:    "cases",
			Action:    action,
			TargetID:  targetID,
			Actor:     actor.Username,
			Detail:    detail,
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		},
	})
	if err != nil {
		zap.S().Errorw("failed to write activity log", "action", action, "error", err)
	}
}

// CaseHandler returns a paginated slice of cases filtered by the query
// string. Residents only ever see their own filings; the reportedBy filter is
// forced server-side regardless of what the client sends. With format=csv the
// full filtered set is exported instead.
func (c Case) CaseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	filter := bson.M{}
	if status := NormalizeStatus(r.URL.Query().Get("status")); status != "" {
		filter["case.status"] = status
	}
	if typeOfCase := r.URL.Query().Get("typeOfCase"); typeOfCase != "" {
		filter["case.typeOfCase"] = typeOfCase
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		filter["case.priority"] = priority
	}
	if user.IsAdmin() {
		if reportedBy := r.URL.Query().Get("reportedBy"); reportedBy != "" {
			filter["case.reportedBy"] = reportedBy
		}
	} else {
		filter["case.reportedBy"] = user.Username
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if r.URL.Query().Get("format") == "csv" {
		c.exportCSV(ctx, w, filter)
		return
	}

	page := getPage(Page, r)
	limit64 := int64(casesPerPage)
	skip64 := int64(page * casesPerPage)

	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"case.createdAt": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	total, err := c.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count cases", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now()
	items := make([]models.CaseWithOverdue, 0, len(dbResp))
	for _, caseDoc := range dbResp {
		items = append(items, annotateOverdue(caseDoc, now))
	}

	b, err := json.Marshal(map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": casesPerPage,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// csvHeader is the fixed export column order; clients parse by position
var csvHeader = []string{
	"caseId", "status", "typeOfCase", "reportedBy", "createdAt",
	"dateOfIncident", "placeOfIncident",
	"complainantName", "complainantAddress", "respondentName",
}

func (c Case) exportCSV(ctx context.Context, w http.ResponseWriter, filter bson.M) {
	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{
		Sort: bson.M{"case.createdAt": 1},
	})
	if err != nil {
		config.ErrorStatus("failed to get cases for export", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="cases.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	for _, caseDoc := range dbResp {
		d := caseDoc.Details
		cw.Write([]string{
			d.CaseID,
			d.Status,
			d.TypeOfCase,
			d.ReportedBy,
			d.CreatedAt.Time().UTC().Format(time.RFC3339),
			d.DateOfIncident.Time().UTC().Format(time.RFC3339),
			d.PlaceOfIncident,
			d.Complainant.Name,
			d.Complainant.Address,
			d.Respondent.Name,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zap.S().Errorw("failed to write csv export", "error", err)
	}
}

// CaseByIDHandler returns a single case. Fetching an Ongoing case that has
// passed the overdue threshold attaches the transient note, and the first
// fetch past the threshold flips over45Notified and emits exactly one
// OVERDUE_45_DAYS notification.
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}

	annotated := annotateOverdue(*dbResp, time.Now())
	if annotated.Over45Note != "" && !dbResp.Details.Over45Notified {
		// The filter re-checks the guard; if the scheduled sweep or a
		// concurrent fetch already flipped it, ModifiedCount is 0 and the
		// notification belongs to the winner.
		res, err := c.DB.UpdateOne(ctx,
			bson.M{"_id": cID, "case.over45Notified": false},
			bson.M{"$set": bson.M{"case.over45Notified": true}},
		)
		if err != nil {
			zap.S().Errorw("failed to set over45Notified", "caseRef", dbResp.Details.CaseID, "error", err)
		} else if res.ModifiedCount > 0 && c.Notifier != nil {
			c.Notifier.Notify(ctx, dbResp, models.NotificationOverdue45Days,
				fmt.Sprintf("Your case %s has been ongoing for over %d days. The barangay office has been alerted.",
					dbResp.Details.CaseID, models.OverdueThresholdDays))
		}
		annotated.Details.Over45Notified = true
	}

	b, err := json.Marshal(annotated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateCaseHandler files a new case from a multipart form. The form must
// carry at least three evidence files, and image-proof case types at least
// one image among them. Nothing is persisted when validation fails.
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errNoAuthUser)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	typeOfCase := r.FormValue("typeOfCase")
	description := r.FormValue("description")
	placeOfIncident := r.FormValue("placeOfIncident")
	if typeOfCase == "" || description == "" || placeOfIncident == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("typeOfCase, description and placeOfIncident are required"))
		return
	}

	priority := r.FormValue("priority")
	if priority == "" {
		priority = "Medium"
	}

	dateOfIncident := time.Now()
	if raw := r.FormValue("dateOfIncident"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			config.ErrorStatus("invalid dateOfIncident", http.StatusBadRequest, w, err)
			return
		}
		dateOfIncident = parsed
	}

	files := r.MultipartForm.File["evidences"]
	if len(files) < minEvidenceCount {
		config.ErrorStatus("not enough evidence files", http.StatusBadRequest, w,
			fmt.Errorf("at least %d evidence files are required, got %d", minEvidenceCount, len(files)))
		return
	}
	if imageProofRequired(typeOfCase) {
		images := 0
		for _, fh := range files {
			if evidenceKind(fh) == "image" {
				images++
			}
		}
		if images == 0 {
			config.ErrorStatus("missing image proof", http.StatusBadRequest, w,
				fmt.Errorf("cases of type %q require at least 1 image evidence", typeOfCase))
			return
		}
	}

	if !c.Uploader.Available() {
		config.ErrorStatus("upload subsystem unavailable", http.StatusNotImplemented, w,
			fmt.Errorf("evidence uploads require CLOUDINARY_URL to be configured"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	evidences := make([]models.Evidence, 0, len(files))
	for _, fh := range files {
		evidence, err := c.Uploader.Upload(ctx, fh, user.Username)
		if err != nil {
			config.ErrorStatus("failed to upload evidence", http.StatusInternalServerError, w, err)
			return
		}
		evidences = append(evidences, evidence)
	}

	nextID, err := databases.NextCaseID(ctx, c.CDB)
	if err != nil {
		config.ErrorStatus("failed to allocate case id", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	caseDoc := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseID:          nextID,
			Status:          models.StatusReported,
			TypeOfCase:      typeOfCase,
			Priority:        priority,
			HarassmentType:  r.FormValue("harassmentType"),
			SeniorCategory:  r.FormValue("seniorCategory"),
			Description:     description,
			DateOfIncident:  primitive.NewDateTimeFromTime(dateOfIncident),
			PlaceOfIncident: placeOfIncident,
			ReportedBy:      user.Username,
			Complainant: models.Party{
				Name:    r.FormValue("complainantName"),
				Address: r.FormValue("complainantAddress"),
				Contact: r.FormValue("complainantContact"),
			},
			Respondent: models.Party{
				Name:    r.FormValue("respondentName"),
				Address: r.FormValue("respondentAddress"),
				Contact: r.FormValue("respondentContact"),
			},
			Evidences:    evidences,
			Hearings:     []models.Hearing{},
			PatawagForms: []models.PatawagForm{},
			StatusHistory: []models.StatusChange{{
				Status: models.StatusReported,
				At:     now,
				By:     user.Username,
				Note:   "Case filed",
			}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	_, err = c.DB.InsertOne(ctx, caseDoc)
	if err != nil {
		config.ErrorStatus("failed to insert case", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(caseDoc)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DeleteCaseHandler hard deletes a case; there is no soft-delete or archive
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := c.DB.DeleteOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to delete case", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		config.ErrorStatus("case not found", http.StatusNotFound, w,
			fmt.Errorf("no case with id %s", caseID))
		return
	}

	c.logActivity(r, "delete", caseID, "case hard deleted")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Case deleted"})
}

type hearingRequest struct {
	DateTime string `json:"dateTime"`
	Venue    string `json:"venue"`
	Notes    string `json:"notes,omitempty"`
}

// AddHearingHandler appends a hearing to the case and notifies the reporter
func (c Case) AddHearingHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req hearingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Venue == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("venue is required"))
		return
	}
	hearingTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		config.ErrorStatus("invalid dateTime", http.StatusBadRequest, w, err)
		return
	}

	actor, _ := api.AuthUserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing := models.Hearing{
		DateTime:  primitive.NewDateTimeFromTime(hearingTime),
		Venue:     req.Venue,
		Notes:     req.Notes,
		CreatedBy: actor.Username,
	}

	res, err := c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{
		"$push": bson.M{"case.hearings": hearing},
		"$set":  bson.M{"case.updatedAt": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		config.ErrorStatus("failed to add hearing", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("case not found", http.StatusNotFound, w,
			fmt.Errorf("no case with id %s", caseID))
		return
	}

	updated, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to read back updated case", http.StatusInternalServerError, w, err)
		return
	}

	if c.Notifier != nil {
		c.Notifier.Notify(ctx, updated, models.NotificationHearingScheduled,
			fmt.Sprintf("A hearing for your case %s has been scheduled on %s at %s.",
				updated.Details.CaseID, hearingTime.Format("Jan 2, 2006 3:04 PM"), req.Venue))
	}

	c.logActivity(r, "add_hearing", caseID, "hearing scheduled at "+req.Venue)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type patawagRequest struct {
	ScheduleDate string `json:"scheduleDate"`
	Venue        string `json:"venue"`
	Notes        string `json:"notes,omitempty"`
}

// AddPatawagHandler appends a patawag (summons) form. Patawag forms may only
// be issued while the case is Ongoing.
func (c Case) AddPatawagHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req patawagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Venue == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w,
			fmt.Errorf("venue is required"))
		return
	}
	scheduleDate, err := time.Parse(time.RFC3339, req.ScheduleDate)
	if err != nil {
		config.ErrorStatus("invalid scheduleDate", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}
	if existing.Details.Status != models.StatusOngoing {
		config.ErrorStatus("case is not ongoing", http.StatusBadRequest, w,
			fmt.Errorf("patawag forms can only be issued while the case is %s, current status is %s",
				models.StatusOngoing, existing.Details.Status))
		return
	}

	patawag := models.PatawagForm{
		ScheduleDate: primitive.NewDateTimeFromTime(scheduleDate),
		Venue:        req.Venue,
		Notes:        req.Notes,
	}

	_, err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{
		"$push": bson.M{"case.patawagForms": patawag},
		"$set":  bson.M{"case.updatedAt": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		config.ErrorStatus("failed to add patawag form", http.StatusInternalServerError, w, err)
		return
	}

	updated, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to read back updated case", http.StatusInternalServerError, w, err)
		return
	}

	if c.Notifier != nil {
		c.Notifier.Notify(ctx, updated, models.NotificationPatawagCreated,
			fmt.Sprintf("A patawag for your case %s has been issued for %s at %s.",
				updated.Details.CaseID, scheduleDate.Format("Jan 2, 2006 3:04 PM"), req.Venue))
	}

	c.logActivity(r, "add_patawag", caseID, "patawag issued for "+req.Venue)

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
