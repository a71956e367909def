package models

// ProfileUser is the subset of a user embedded in profiles and posts.
type ProfileUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// SocialLinks holds the optional social network URLs of a profile.
// Empty fields stay empty; non-empty fields are canonicalized before
// submission.
type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Experience is a single work-history entry owned by one profile.
// An empty EndDate means current/ongoing.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is a single education entry owned by one profile.
// An empty EndDate means current/ongoing.
type Education struct {
	ID           string `json:"id"`
	Degree       string `json:"degree"`
	School       string `json:"school"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Profile represents a user's public resume-like record.
// At most one profile exists per user; the server enforces this and the
// client treats 404 as "no profile yet".
type Profile struct {
	ID          string       `json:"id"`
	User        ProfileUser  `json:"user"`
	Status      string       `json:"status"`
	Company     string       `json:"company,omitempty"`
	Website     string       `json:"website,omitempty"`
	Location    string       `json:"location,omitempty"`
	Skills      []string     `json:"skills"`
	Bio         string       `json:"bio,omitempty"`
	SocialLinks SocialLinks  `json:"socialLinks"`
	Experiences []Experience `json:"experiences"`
	Educations  []Education  `json:"educations"`
}

// GithubRepo represents one repository from the github lookup endpoint.
type GithubRepo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Stargazers  int    `json:"stargazers_count"`
	Watchers    int    `json:"watchers_count"`
	Forks       int    `json:"forks_count"`
}
