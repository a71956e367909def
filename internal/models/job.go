package models

// Company holds the employer details attached to a job posting.
type Company struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone,omitempty"`
}

// Job represents a single job posting.
type Job struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Salary      string  `json:"salary"`
	Company     Company `json:"company"`
}
