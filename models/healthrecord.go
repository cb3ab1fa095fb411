package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// HealthRecord holds the structure for the healthrecords collection in mongo
type HealthRecord struct {
	ID      primitive.ObjectID  `json:"_id" bson:"_id"`
	Details HealthRecordDetails `json:"healthRecord" bson:"healthRecord"`
	Version int32               `json:"__v" bson:"__v"`
}

// HealthRecordDetails holds the structure for the inner health record details
type HealthRecordDetails struct {
	Category    string `json:"category" bson:"category"` // "checkup", "vaccination", "maternal", "senior"
	PatientName string `json:"patientName" bson:"patientName"`
	Notes       string `json:"notes,omitempty" bson:"notes,omitempty"`

	Vitals HealthVitals `json:"vitals,omitempty" bson:"vitals,omitempty"`

	// ReportedBy is the resident the record belongs to; RecordedBy is the
	// health worker who entered it.
	ReportedBy string `json:"reportedBy" bson:"reportedBy"`
	RecordedBy string `json:"recordedBy" bson:"recordedBy"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// HealthVitals holds the measurements taken during a visit
type HealthVitals struct {
	BloodPressure string  `json:"bloodPressure,omitempty" bson:"bloodPressure,omitempty"`
	HeartRate     int     `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	TemperatureC  float64 `json:"temperatureC,omitempty" bson:"temperatureC,omitempty"`
	WeightKg      float64 `json:"weightKg,omitempty" bson:"weightKg,omitempty"`
}
