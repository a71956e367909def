// Package profile caches the current user's profile, the profile
// directory, and github repo lookups, and orchestrates profile CRUD
// including the experience/education sub-records.
package profile

import (
	"context"
	"log/slog"
	"sync"

	"devconnect/internal/alerts"
	"devconnect/internal/api"
	"devconnect/internal/models"
)

// sessionControl is what the profile store needs from the session store.
type sessionControl interface {
	User() *models.User
	Logout()
}

// Confirmer asks the user to approve a destructive action before the
// call is issued.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Form is the editable projection of a profile. Skills stay in the
// comma-joined form convenient for editing and are normalized to list
// form on submission; social URLs are canonicalized on submission.
type Form struct {
	Status    string
	Company   string
	Website   string
	Location  string
	Skills    string
	Bio       string
	Twitter   string
	Facebook  string
	LinkedIn  string
	YouTube   string
	Instagram string
}

// FormFromProfile projects a fetched profile back into editing form.
func FormFromProfile(p *models.Profile) Form {
	if p == nil {
		return Form{}
	}
	return Form{
		Status:    p.Status,
		Company:   p.Company,
		Website:   p.Website,
		Location:  p.Location,
		Skills:    JoinSkills(p.Skills),
		Bio:       p.Bio,
		Twitter:   p.SocialLinks.Twitter,
		Facebook:  p.SocialLinks.Facebook,
		LinkedIn:  p.SocialLinks.LinkedIn,
		YouTube:   p.SocialLinks.YouTube,
		Instagram: p.SocialLinks.Instagram,
	}
}

// payload is the wire shape of a profile create/update submission.
type payload struct {
	Status      string             `json:"status"`
	Company     string             `json:"company,omitempty"`
	Website     string             `json:"website,omitempty"`
	Location    string             `json:"location,omitempty"`
	Skills      []string           `json:"skills"`
	Bio         string             `json:"bio,omitempty"`
	SocialLinks models.SocialLinks `json:"socialLinks"`
}

func (f Form) payload() payload {
	return payload{
		Status:   f.Status,
		Company:  f.Company,
		Website:  CanonicalURL(f.Website),
		Location: f.Location,
		Skills:   SplitSkills(f.Skills),
		Bio:      f.Bio,
		SocialLinks: models.SocialLinks{
			Twitter:   CanonicalURL(f.Twitter),
			Facebook:  CanonicalURL(f.Facebook),
			LinkedIn:  CanonicalURL(f.LinkedIn),
			YouTube:   CanonicalURL(f.YouTube),
			Instagram: CanonicalURL(f.Instagram),
		},
	}
}

// Store is the in-memory profile cache.
type Store struct {
	client  *api.Client
	session sessionControl
	alerts  *alerts.Queue
	confirm Confirmer
	logger  *slog.Logger

	mu       sync.Mutex
	profile  *models.Profile
	profiles []models.Profile
	repos    []models.GithubRepo
}

// NewStore creates a new profile store
func NewStore(client *api.Client, session sessionControl, queue *alerts.Queue, confirm Confirmer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, session: session, alerts: queue, confirm: confirm, logger: logger}
}

// Clear resets the cached profile and repos. The session store fires
// this on login and logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.repos = nil
}

// Current returns the cached current-user profile without fetching.
func (s *Store) Current() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// CurrentProfile fetches the current user's profile. A 404 means the
// user has no profile yet: the result is nil with no error and the
// session is untouched.
func (s *Store) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	user := s.session.User()
	if user == nil {
		return nil, api.Unauthorized("not logged in")
	}

	var p models.Profile
	err := s.client.Get(ctx, "/profiles/user/"+user.ID, &p)
	if api.IsNotFound(err) {
		s.mu.Lock()
		s.profile = nil
		s.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	return &p, nil
}

// Profiles fetches the full profile directory.
func (s *Store) Profiles(ctx context.Context) ([]models.Profile, error) {
	var list []models.Profile
	if err := s.client.Get(ctx, "/profiles", &list); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.profiles = list
	s.mu.Unlock()
	return list, nil
}

// ProfileByID fetches one profile from the directory.
func (s *Store) ProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.client.Get(ctx, "/profiles/"+id, &p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	return &p, nil
}

// SaveProfile creates or updates the current user's profile. edit
// selects PUT against the existing profile over POST.
func (s *Store) SaveProfile(ctx context.Context, form Form, edit bool) (*models.Profile, error) {
	s.mu.Lock()
	existing := s.profile
	s.mu.Unlock()

	var (
		saved models.Profile
		err   error
	)
	if edit && existing != nil {
		err = s.client.Put(ctx, "/profiles/"+existing.ID, form.payload(), &saved)
	} else {
		err = s.client.Post(ctx, "/profiles", form.payload(), &saved)
	}
	if err != nil {
		s.notifyFailure(err, "Failed to save profile")
		return nil, err
	}

	s.mu.Lock()
	s.profile = &saved
	s.mu.Unlock()

	if edit {
		s.alerts.Show("Profile Updated", models.AlertSuccess)
	} else {
		s.alerts.Show("Profile Created", models.AlertSuccess)
	}
	return &saved, nil
}

// AddExperience appends a work-history entry to the current profile.
// The server returns the created record; it is appended locally without
// refetching the whole profile.
func (s *Store) AddExperience(ctx context.Context, exp models.Experience) (*models.Experience, error) {
	s.mu.Lock()
	current := s.profile
	s.mu.Unlock()
	if current == nil {
		return nil, api.Unauthorized("no profile to attach experience to")
	}

	var created models.Experience
	if err := s.client.Post(ctx, "/profiles/"+current.ID+"/experience/add", exp, &created); err != nil {
		s.notifyFailure(err, "Failed to add experience")
		return nil, err
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.Experiences = append(s.profile.Experiences, created)
	}
	s.mu.Unlock()

	s.alerts.Show("Experience Added", models.AlertSuccess)
	return &created, nil
}

// AddEducation appends an education entry to the current profile.
func (s *Store) AddEducation(ctx context.Context, edu models.Education) (*models.Education, error) {
	s.mu.Lock()
	current := s.profile
	s.mu.Unlock()
	if current == nil {
		return nil, api.Unauthorized("no profile to attach education to")
	}

	var created models.Education
	if err := s.client.Post(ctx, "/profiles/"+current.ID+"/education/add", edu, &created); err != nil {
		s.notifyFailure(err, "Failed to add education")
		return nil, err
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.Educations = append(s.profile.Educations, created)
	}
	s.mu.Unlock()

	s.alerts.Show("Education Added", models.AlertSuccess)
	return &created, nil
}

// DeleteExperience removes an experience entry after the server
// confirms the delete.
func (s *Store) DeleteExperience(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/experience/"+id, nil); err != nil {
		s.notifyFailure(err, "Failed to remove experience")
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		for i, exp := range s.profile.Experiences {
			if exp.ID == id {
				s.profile.Experiences = append(s.profile.Experiences[:i], s.profile.Experiences[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	s.alerts.Show("Experience Removed", models.AlertSuccess)
	return nil
}

// DeleteEducation removes an education entry after the server confirms
// the delete.
func (s *Store) DeleteEducation(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/education/"+id, nil); err != nil {
		s.notifyFailure(err, "Failed to remove education")
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		for i, edu := range s.profile.Educations {
			if edu.ID == id {
				s.profile.Educations = append(s.profile.Educations[:i], s.profile.Educations[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	s.alerts.Show("Education Removed", models.AlertSuccess)
	return nil
}

// ErrCancelled is returned when the user declines a confirmation prompt.
var ErrCancelled = api.Unauthorized("cancelled by user")

// DeleteProfile deletes the current user's profile after confirmation.
func (s *Store) DeleteProfile(ctx context.Context) error {
	s.mu.Lock()
	current := s.profile
	s.mu.Unlock()
	if current == nil {
		return nil
	}
	if !s.confirm.Confirm("Delete your profile? This can NOT be undone!") {
		return ErrCancelled
	}

	if err := s.client.Delete(ctx, "/profiles/"+current.ID, nil); err != nil {
		s.notifyFailure(err, "Failed to delete profile")
		return err
	}

	s.mu.Lock()
	s.profile = nil
	s.repos = nil
	s.mu.Unlock()

	s.alerts.Show("Profile deleted", models.AlertSuccess)
	return nil
}

// DeleteAccount deletes the profile and then the user record, and logs
// the session out on success.
func (s *Store) DeleteAccount(ctx context.Context) error {
	user := s.session.User()
	if user == nil {
		return api.Unauthorized("not logged in")
	}
	if !s.confirm.Confirm("Delete your account? This can NOT be undone!") {
		return ErrCancelled
	}

	s.mu.Lock()
	current := s.profile
	s.mu.Unlock()

	if current != nil {
		if err := s.client.Delete(ctx, "/profiles/"+current.ID, nil); err != nil && !api.IsNotFound(err) {
			s.notifyFailure(err, "Failed to delete profile")
			return err
		}
	}
	if err := s.client.Delete(ctx, "/user/"+user.ID, nil); err != nil {
		s.notifyFailure(err, "Failed to delete account")
		return err
	}

	s.mu.Lock()
	s.profile = nil
	s.repos = nil
	s.mu.Unlock()

	s.alerts.Show("Your account has been permanently deleted", models.AlertSuccess)
	s.session.Logout()
	return nil
}

// GithubRepos looks up a user's repositories. Lookup failure is
// non-fatal: the result is an empty list plus a non-blocking alert, so
// profile rendering is never blocked on github.
func (s *Store) GithubRepos(ctx context.Context, username string) []models.GithubRepo {
	var repos []models.GithubRepo
	if err := s.client.Get(ctx, "/github/"+username, &repos); err != nil {
		s.logger.Debug("github lookup failed", "username", username, "error", err)
		s.alerts.Show("No Github repos found", models.AlertInfo)
		repos = nil
	}

	s.mu.Lock()
	s.repos = repos
	s.mu.Unlock()

	if repos == nil {
		return []models.GithubRepo{}
	}
	return repos
}

// Repos returns the cached github repos.
func (s *Store) Repos() []models.GithubRepo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GithubRepo, len(s.repos))
	copy(out, s.repos)
	return out
}

// Directory returns the cached profile directory.
func (s *Store) Directory() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

func (s *Store) notifyFailure(err error, fallback string) {
	for _, msg := range api.Messages(err, fallback) {
		s.alerts.Show(msg, models.AlertDanger)
	}
}
