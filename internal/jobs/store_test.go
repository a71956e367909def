package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devconnect/internal/api"
	"devconnect/internal/models"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type fakeSession struct {
	user *models.User
}

func (f *fakeSession) User() *models.User { return f.user }

type harness struct {
	store    *Store
	requests *int32
}

func newHarness(t *testing.T, handler http.HandlerFunc, token string, user *models.User) *harness {
	t.Helper()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := api.New(server.URL, 5*time.Second, 4, staticToken(token), nil)
	store := NewStore(client, staticToken(token), &fakeSession{user: user}, nil)
	return &harness{store: store, requests: &requests}
}

func sampleJobs(n int) []models.Job {
	jobs := make([]models.Job, n)
	for i := range jobs {
		jobs[i] = models.Job{
			ID:       string(rune('a' + i)),
			Title:    "Go Developer",
			Type:     "Full-Time",
			Location: "Remote",
			Salary:   "$100K",
			Company:  models.Company{Name: "Acme", ContactEmail: "hr@acme.test"},
		}
	}
	return jobs
}

func TestFetchAllVsLimited(t *testing.T) {
	all := sampleJobs(5)
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		limit := r.URL.Query().Get("limit")
		if limit == "" {
			json.NewEncoder(w).Encode(all)
			return
		}
		// The recent view is server-side truncated.
		json.NewEncoder(w).Encode(all[:3])
	}, "tok", nil)

	full, err := h.store.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, full, 5)

	recent, err := h.store.Fetch(context.Background(), 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recent), 3)
}

func TestAddRequiresPersistedToken(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected")
	}, "", &models.User{ID: "u1"})

	_, err := h.store.Add(context.Background(), sampleJobs(1)[0])
	assert.True(t, api.IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(h.requests))
}

func TestAddAppendsToCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		json.NewEncoder(w).Encode(models.Job{ID: "j1", Title: "Go Developer"})
	}, "tok", &models.User{ID: "u1"})

	created, err := h.store.Add(context.Background(), models.Job{Title: "Go Developer"})
	require.NoError(t, err)
	assert.Equal(t, "j1", created.ID)
	assert.Len(t, h.store.Jobs(), 1)
}

func TestEditRejectedForNonOwner(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("ownership rejection must not reach the network")
	}, "tok", &models.User{ID: "u1", Jobs: []string{"j-owned"}})

	_, err := h.store.Edit(context.Background(), "j-foreign", models.Job{Title: "x"})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, atomic.LoadInt32(h.requests))
}

func TestEditUpdatesCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]models.Job{{ID: "j1", Title: "Go Developer"}})
		case r.Method == http.MethodPut:
			assert.Equal(t, "/jobs/j1", r.URL.Path)
			json.NewEncoder(w).Encode(models.Job{ID: "j1", Title: "Senior Go Developer"})
		}
	}, "tok", &models.User{ID: "u1", Jobs: []string{"j1"}})

	_, err := h.store.Fetch(context.Background(), 0)
	require.NoError(t, err)

	updated, err := h.store.Edit(context.Background(), "j1", models.Job{Title: "Senior Go Developer"})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Developer", updated.Title)
	assert.Equal(t, "Senior Go Developer", h.store.Jobs()[0].Title)
}

func TestDeleteRejectedForNonOwnerKeepsCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Job{{ID: "j-foreign", Title: "Go Developer"}})
	}, "tok", &models.User{ID: "u1", Jobs: []string{"j-owned"}})

	_, err := h.store.Fetch(context.Background(), 0)
	require.NoError(t, err)

	err = h.store.Delete(context.Background(), "j-foreign")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Len(t, h.store.Jobs(), 1, "cache unchanged on rejection")
}

func TestDeleteServerRejectionKeepsCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]models.Job{{ID: "j1", Title: "Go Developer"}})
			return
		}
		http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
	}, "tok", &models.User{ID: "u1", Jobs: []string{"j1"}})

	_, err := h.store.Fetch(context.Background(), 0)
	require.NoError(t, err)

	err = h.store.Delete(context.Background(), "j1")
	require.Error(t, err)
	assert.Len(t, h.store.Jobs(), 1, "cache unchanged when the server says no")
}

func TestDeleteRemovesFromCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]models.Job{{ID: "j1"}, {ID: "j2"}})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, "tok", &models.User{ID: "u1", Jobs: []string{"j1"}})

	_, err := h.store.Fetch(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, h.store.Delete(context.Background(), "j1"))
	jobs := h.store.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "j2", jobs[0].ID)
}
