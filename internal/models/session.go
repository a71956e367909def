package models

// Session represents the authentication state for this client instance.
// Token and UserID survive restarts in the credential store; User is
// volatile and refetched on load.
type Session struct {
	Token           string
	UserID          string
	User            *User
	IsAuthenticated bool
	Loading         bool
}
