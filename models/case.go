package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case statuses. Every transition target must be one of these; the legacy
// alias "Pending" is normalized to StatusReported before validation.
const (
	StatusReported  = "Reported"
	StatusOngoing   = "Ongoing"
	StatusHearing   = "Hearing"
	StatusResolved  = "Resolved"
	StatusCancelled = "Cancelled"
)

// OverdueThresholdDays is how long a case may sit in Ongoing before it is
// flagged as overdue and the reporter is notified.
const OverdueThresholdDays = 45

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	// Human-readable id from the sequence generator, e.g. "C-0001"
	CaseID string `json:"caseId" bson:"caseId"`

	// Status: "Reported", "Ongoing", "Hearing", "Resolved", "Cancelled"
	Status string `json:"status" bson:"status"`

	TypeOfCase     string `json:"typeOfCase" bson:"typeOfCase"`
	Priority       string `json:"priority" bson:"priority"` // "Low", "Medium", "High", "Critical"
	HarassmentType string `json:"harassmentType,omitempty" bson:"harassmentType,omitempty"`
	SeniorCategory string `json:"seniorCategory,omitempty" bson:"seniorCategory,omitempty"`

	Description     string             `json:"description" bson:"description"`
	DateOfIncident  primitive.DateTime `json:"dateOfIncident" bson:"dateOfIncident"`
	PlaceOfIncident string             `json:"placeOfIncident" bson:"placeOfIncident"`

	// ReportedBy is the username of the resident who filed the case and is
	// the sole recipient of lifecycle notifications.
	ReportedBy string `json:"reportedBy" bson:"reportedBy"`

	Complainant Party `json:"complainant" bson:"complainant"`
	Respondent  Party `json:"respondent" bson:"respondent"`

	// Append-only sub-documents. Past entries are never rewritten.
	Evidences     []Evidence     `json:"evidences" bson:"evidences"`
	Hearings      []Hearing      `json:"hearings" bson:"hearings"`
	PatawagForms  []PatawagForm  `json:"patawagForms" bson:"patawagForms"`
	StatusHistory []StatusChange `json:"statusHistory" bson:"statusHistory"`

	// Lifecycle stamps, each set exactly once on first entry into the state
	OngoingSince       *primitive.DateTime `json:"ongoingSince,omitempty" bson:"ongoingSince,omitempty"`
	ResolveDate        *primitive.DateTime `json:"resolveDate,omitempty" bson:"resolveDate,omitempty"`
	CancelDate         *primitive.DateTime `json:"cancelDate,omitempty" bson:"cancelDate,omitempty"`
	CancellationReason string              `json:"cancellationReason,omitempty" bson:"cancellationReason,omitempty"`

	// Over45Notified guards the one-time overdue notification
	Over45Notified bool `json:"over45Notified" bson:"over45Notified"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Party identifies one side of a filed complaint
type Party struct {
	Name    string `json:"name" bson:"name"`
	Address string `json:"address" bson:"address"`
	Contact string `json:"contact" bson:"contact"`
}

// Evidence is a single uploaded proof attached at filing time
type Evidence struct {
	Kind       string             `json:"kind" bson:"kind"` // "image", "document", "video", "other"
	Filename   string             `json:"filename" bson:"filename"`
	URL        string             `json:"url" bson:"url"`
	UploadedAt primitive.DateTime `json:"uploadedAt" bson:"uploadedAt"`
	UploadedBy string             `json:"uploadedBy" bson:"uploadedBy"`
}

// Hearing is an admin-scheduled mediation session
type Hearing struct {
	DateTime  primitive.DateTime `json:"dateTime" bson:"dateTime"`
	Venue     string             `json:"venue" bson:"venue"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedBy string             `json:"createdBy" bson:"createdBy"`
}

// PatawagForm is a summons compelling the parties to appear before the lupon
type PatawagForm struct {
	ScheduleDate primitive.DateTime `json:"scheduleDate" bson:"scheduleDate"`
	Venue        string             `json:"venue" bson:"venue"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`
}

// StatusChange records a single entry in the append-only status history
type StatusChange struct {
	Status string             `json:"status" bson:"status"`
	At     primitive.DateTime `json:"at" bson:"at"`
	By     string             `json:"by" bson:"by"`
	Note   string             `json:"note,omitempty" bson:"note,omitempty"`
}

// CaseWithOverdue decorates a case with the transient overdue annotation.
// The note is computed on every read and never persisted.
type CaseWithOverdue struct {
	Case
	DaysOngoing int    `json:"daysOngoing,omitempty"`
	Over45Note  string `json:"over45Note,omitempty"`
}
