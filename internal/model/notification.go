package model

type NotificationStatus string

const (
	NotificationStatusSuccess NotificationStatus = "success"
	NotificationStatusFailure NotificationStatus = "failure"
)

// Notification is a plain-text message for one or more recipients.
type Notification struct {
	Subject    string
	Body       string
	Recipients []string
}

// NotificationResult mirrors what the mail collaborator reports.
type NotificationResult struct {
	Status  NotificationStatus `json:"status"`
	Message string             `json:"message"`
}
