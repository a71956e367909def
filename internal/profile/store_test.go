package profile

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

	"devconnect/internal/alerts"
	"devconnect/internal/api"
	"devconnect/internal/models"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type fakeSession struct {
	user      *models.User
	loggedOut bool
}

func (f *fakeSession) User() *models.User { return f.user }
func (f *fakeSession) Logout()            { f.loggedOut = true }

type harness struct {
	store    *Store
	session  *fakeSession
	queue    *alerts.Queue
	requests *int32
}

func newHarness(t *testing.T, handler http.HandlerFunc, confirm bool) *harness {
	t.Helper()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	sess := &fakeSession{user: &models.User{ID: "u-ann", Name: "Ann", Email: "ann@x.com"}}
	client := api.New(server.URL, 5*time.Second, 4, staticToken("tok"), nil)
	queue := alerts.NewQueue()
	t.Cleanup(queue.Stop)

	store := NewStore(client, sess, queue, ConfirmFunc(func(string) bool { return confirm }), nil)
	return &harness{store: store, session: sess, queue: queue, requests: &requests}
}

func TestCurrentProfileAbsenceIsNotAnError(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"profile not found"}`, http.StatusNotFound)
	}, true)

	// Repeated calls return nil without error.
	for i := 0; i < 2; i++ {
		p, err := h.store.CurrentProfile(context.Background())
		require.NoError(t, err)
		assert.Nil(t, p)
	}
	assert.NotNil(t, h.session.User(), "absence of a profile must not touch the session")
}

func TestCurrentProfileFetches(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/user/u-ann", r.URL.Path)
		json.NewEncoder(w).Encode(models.Profile{ID: "p1", Status: "Developer", Skills: []string{"Go"}})
	}, true)

	p, err := h.store.CurrentProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, p, h.store.Current())
}

func TestSaveProfileCreateVsEdit(t *testing.T) {
	var gotMethod, gotPath string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(models.Profile{ID: "p1", Status: "Developer"})
	}, true)

	_, err := h.store.SaveProfile(context.Background(), Form{Status: "Developer"}, false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/profiles", gotPath)

	// The create populated the cache, so an edit goes to PUT.
	_, err = h.store.SaveProfile(context.Background(), Form{Status: "Senior Developer"}, true)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/profiles/p1", gotPath)
}

func TestAddExperienceAppendsWithoutRefetch(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profiles/user/u-ann":
			json.NewEncoder(w).Encode(models.Profile{ID: "p1", Status: "Developer"})
		case "/profiles/p1/experience/add":
			json.NewEncoder(w).Encode(models.Experience{ID: "e1", Title: "Engineer", Company: "Acme", StartDate: "2024-01-01"})
		default:
			http.NotFound(w, r)
		}
	}, true)

	_, err := h.store.CurrentProfile(context.Background())
	require.NoError(t, err)
	before := atomic.LoadInt32(h.requests)

	created, err := h.store.AddExperience(context.Background(), models.Experience{Title: "Engineer", Company: "Acme", StartDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "e1", created.ID)

	current := h.store.Current()
	require.Len(t, current.Experiences, 1)
	assert.Equal(t, "e1", current.Experiences[0].ID)
	assert.Equal(t, before+1, atomic.LoadInt32(h.requests), "exactly one call, no profile refetch")
}

func TestDeleteEducationRemovesLocally(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profiles/user/u-ann":
			json.NewEncoder(w).Encode(models.Profile{ID: "p1", Educations: []models.Education{
				{ID: "ed1", Degree: "BSc", School: "MIT", StartDate: "2018-09-01"},
				{ID: "ed2", Degree: "MSc", School: "MIT", StartDate: "2021-09-01"},
			}})
		case "/education/ed1":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}, true)

	_, err := h.store.CurrentProfile(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.store.DeleteEducation(context.Background(), "ed1"))

	current := h.store.Current()
	require.Len(t, current.Educations, 1)
	assert.Equal(t, "ed2", current.Educations[0].ID)
}

func TestDeleteAccountConfirmedLogsOut(t *testing.T) {
	var deleted []string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = append(deleted, r.URL.Path)
		}
		if r.URL.Path == "/profiles/user/u-ann" {
			json.NewEncoder(w).Encode(models.Profile{ID: "p1"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, true)

	_, err := h.store.CurrentProfile(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.store.DeleteAccount(context.Background()))
	assert.Equal(t, []string{"/profiles/p1", "/user/u-ann"}, deleted, "profile first, then user record")
	assert.True(t, h.session.loggedOut)
	assert.Nil(t, h.store.Current())
}

func TestDeleteAccountDeclined(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, false)

	err := h.store.DeleteAccount(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, atomic.LoadInt32(h.requests), "declined confirmation must not call the network")
	assert.False(t, h.session.loggedOut)
}

func TestGithubReposFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusForbidden)
	}, true)

	repos := h.store.GithubRepos(context.Background(), "ann")
	assert.Empty(t, repos)
	assert.NotNil(t, repos, "callers render an empty list, not nil")

	active := h.queue.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.AlertInfo, active[0].Severity)
}

func TestGithubRepos(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/github/ann", r.URL.Path)
		json.NewEncoder(w).Encode([]models.GithubRepo{{ID: 1, Name: "devconnect", Stargazers: 3}})
	}, true)

	repos := h.store.GithubRepos(context.Background(), "ann")
	require.Len(t, repos, 1)
	assert.Equal(t, "devconnect", repos[0].Name)
	assert.Equal(t, repos, h.store.Repos())
}

func TestClearResetsProfileAndRepos(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Profile{ID: "p1"})
	}, true)

	_, err := h.store.CurrentProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h.store.Current())

	h.store.Clear()
	assert.Nil(t, h.store.Current())
	assert.Empty(t, h.store.Repos())
}
