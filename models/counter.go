package models

// Counter holds the structure for the counters collection in mongo. One
// document per sequence, keyed by name ("case"). The seq field is only ever
// touched through $inc so concurrent allocations cannot collide.
type Counter struct {
	ID     string `json:"_id" bson:"_id"`
	Seq    int64  `json:"seq" bson:"seq"`
	Prefix string `json:"prefix" bson:"prefix"`
}
