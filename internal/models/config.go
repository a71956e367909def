package models

import "time"

// Config represents the application configuration.
type Config struct {
	APIBaseURL            string
	DatabasePath          string
	RequestTimeout        time.Duration
	MaxConcurrentRequests int64
	AlertTimeout          time.Duration
}
