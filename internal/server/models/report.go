package models

import "time"

// Report statuses.
const (
	ReportStatusDraft     = "draft"
	ReportStatusCompleted = "completed"
)

// Report is a per-account document. All content fields are free-form strings
// that default to empty; Attachments holds object-storage keys.
type Report struct {
	ID        string
	AccountID string

	Name         string
	ReportType   string
	Type         string
	ReceiverName string
	Objective    string
	Description  string

	Importance   string
	MainPoints   string
	Sources      string
	Roles        string
	Trends       string
	Themes       string
	Implications string
	Scenarios    string
	FuturePlans  string

	ApprovingBody string
	SenderName    string
	Role          string
	Date          string

	Attachments    []string
	LinkAttachment string

	Status string

	CreatedAt time.Time
	UpdatedAt time.Time
}
