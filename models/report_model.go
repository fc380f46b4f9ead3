package models

import "time"

const ReportStatusPending = "pending"

type Report struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	ReporterID  string    `json:"reporter_id" bson:"reporter_id"`
	ReportedID  string    `json:"reported_id" bson:"reported_id"`
	Explanation string    `json:"explanation" bson:"explanation"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Status      string    `json:"status" bson:"status"`
}
