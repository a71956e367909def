package models

import "time"

// Alert severities understood by the view layer.
const (
	AlertSuccess = "success"
	AlertDanger  = "danger"
	AlertInfo    = "info"
)

// Alert is a transient user-facing message. It self-destructs after
// Timeout unless dismissed first.
type Alert struct {
	ID       string
	Message  string
	Severity string
	Timeout  time.Duration
}
