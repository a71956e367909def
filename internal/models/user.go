package models

// User represents the authenticated user's account record.
// It is replaced wholesale on each successful register/login/load.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatarUrl"`
	Jobs      []string `json:"jobs"`
}

// OwnsJob reports whether the given job id appears in the user's job list.
func (u *User) OwnsJob(jobID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.Jobs {
		if id == jobID {
			return true
		}
	}
	return false
}
