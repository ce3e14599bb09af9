package models

import "time"

// ReportTarget is what a report points at.
type ReportTarget string

const (
	ReportTargetPost    ReportTarget = "POST"
	ReportTargetComment ReportTarget = "COMMENT"
)

func (t ReportTarget) Valid() bool {
	return t == ReportTargetPost || t == ReportTargetComment
}

type Report struct {
	ID         string
	ReporterID string
	TargetType ReportTarget
	TargetID   string
	Reason     string
	CreatedAt  time.Time
}
