// Package jobs caches the job board listings and orchestrates job CRUD.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"devconnect/internal/api"
	"devconnect/internal/fence"
	"devconnect/internal/models"
)

// tokenSource reads the persisted bearer token. Mutations check it
// locally before going anywhere near the network.
type tokenSource interface {
	Token() (string, error)
}

// sessionView is what the job store needs from the session store.
type sessionView interface {
	User() *models.User
}

// ErrNotOwner rejects an edit/delete of a job the current user does not
// own. This is a UX guard only; the server is the authority and will
// 403 anything the client gets wrong.
var ErrNotOwner = api.Unauthorized("you do not own this job posting")

// Store is the in-memory job cache.
type Store struct {
	client  *api.Client
	creds   tokenSource
	session sessionView
	guard   *fence.Guard
	logger  *slog.Logger

	mu   sync.Mutex
	jobs []models.Job
	job  *models.Job
}

// NewStore creates a new job store
func NewStore(client *api.Client, creds tokenSource, session sessionView, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, creds: creds, session: session, guard: fence.NewGuard(), logger: logger}
}

// Fetch loads job postings. limit <= 0 fetches the full set; a positive
// limit requests the server-side-truncated recent view. The recent view
// uses the server's own ordering, which need not match the head of the
// unlimited listing.
func (s *Store) Fetch(ctx context.Context, limit int) ([]models.Job, error) {
	path := "/jobs"
	if limit > 0 {
		path = fmt.Sprintf("/jobs?limit=%d", limit)
	}

	var list []models.Job
	if err := s.client.Get(ctx, path, &list); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.jobs = list
	s.mu.Unlock()
	return list, nil
}

// JobByID fetches a single job's detail view.
func (s *Store) JobByID(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.client.Get(ctx, "/jobs/"+id, &job); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.job = &job
	s.mu.Unlock()
	return &job, nil
}

// Add creates a job posting. Requires a persisted token; without one it
// fails locally with no network round-trip.
func (s *Store) Add(ctx context.Context, job models.Job) (*models.Job, error) {
	if err := s.requireToken(); err != nil {
		return nil, err
	}

	var created models.Job
	if err := s.client.Post(ctx, "/jobs", job, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, created)
	s.mu.Unlock()
	return &created, nil
}

// Edit updates a job the current user owns. Responses superseded by a
// later edit of the same job are discarded instead of applied.
func (s *Store) Edit(ctx context.Context, id string, job models.Job) (*models.Job, error) {
	if err := s.requireToken(); err != nil {
		return nil, err
	}
	if !s.session.User().OwnsJob(id) {
		return nil, ErrNotOwner
	}

	seq := s.guard.Issue(id)

	var updated models.Job
	if err := s.client.Put(ctx, "/jobs/"+id, job, &updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Stale(id, seq) {
		s.logger.Debug("discarding stale job edit response", "job", id, "seq", seq)
		return &updated, nil
	}
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i] = updated
			break
		}
	}
	if s.job != nil && s.job.ID == id {
		s.job = &updated
	}
	return &updated, nil
}

// Delete removes a job the current user owns. The cache is unchanged on
// any rejection.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.requireToken(); err != nil {
		return err
	}
	if !s.session.User().OwnsJob(id) {
		return ErrNotOwner
	}

	if err := s.client.Delete(ctx, "/jobs/"+id, nil); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			break
		}
	}
	if s.job != nil && s.job.ID == id {
		s.job = nil
	}
	s.mu.Unlock()

	s.guard.Forget(id)
	return nil
}

// Jobs returns the cached listing.
func (s *Store) Jobs() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

func (s *Store) requireToken() error {
	token, err := s.creds.Token()
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if token == "" {
		return api.Unauthorized("Unauthorized: no token found")
	}
	return nil
}
