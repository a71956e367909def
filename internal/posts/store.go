// Package posts caches the social feed and orchestrates post, comment
// and like mutations. Mutations patch the affected post in place rather
// than refetching the whole collection.
package posts

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"devconnect/internal/alerts"
	"devconnect/internal/api"
	"devconnect/internal/fence"
	"devconnect/internal/models"
)

// sessionView is what the feed needs from the session store.
type sessionView interface {
	User() *models.User
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

// ErrNotCommentAuthor rejects deleting someone else's comment. Comments
// carry no author id, so the check compares display names; it is
// advisory only and the server remains the authority.
var ErrNotCommentAuthor = api.Unauthorized("only the comment's author may delete it")

// ErrCancelled is returned when the user declines a confirmation prompt.
var ErrCancelled = api.Unauthorized("cancelled by user")

// likesResponse is the wire shape of the like/unlike endpoints.
type likesResponse struct {
	Likes []string `json:"likes"`
}

// Store is the in-memory feed cache, kept sorted newest-first.
type Store struct {
	client  *api.Client
	session sessionView
	alerts  *alerts.Queue
	confirm Confirmer
	guard   *fence.Guard
	logger  *slog.Logger

	mu    sync.Mutex
	posts []models.Post
	post  *models.Post
}

// NewStore creates a new post store
func NewStore(client *api.Client, session sessionView, queue *alerts.Queue, confirm Confirmer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, session: session, alerts: queue, confirm: confirm, guard: fence.NewGuard(), logger: logger}
}

// Posts fetches the feed, sorted newest-first by date.
func (s *Store) Posts(ctx context.Context) ([]models.Post, error) {
	var list []models.Post
	if err := s.client.Get(ctx, "/posts", &list); err != nil {
		return nil, err
	}
	sortByDate(list)

	s.mu.Lock()
	s.posts = list
	s.mu.Unlock()
	return list, nil
}

// PostByID fetches a single post with its comments.
func (s *Store) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.client.Get(ctx, "/posts/"+id, &post); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.post = &post
	s.mu.Unlock()
	return &post, nil
}

// Create publishes a new post. When unauthenticated it is rejected
// locally with no network call and a "must be logged in" alert.
func (s *Store) Create(ctx context.Context, text string) (*models.Post, error) {
	user := s.session.User()
	if user == nil {
		s.alerts.Show("You must be logged in to post", models.AlertDanger)
		return nil, api.Unauthorized("not logged in")
	}

	var created models.Post
	if err := s.client.Post(ctx, "/posts", map[string]string{"text": text}, &created); err != nil {
		s.notifyFailure(err, "Failed to create post")
		return nil, err
	}
	if created.User.ID == "" {
		created.User = models.ProfileUser{ID: user.ID, Name: user.Name, Avatar: user.AvatarURL}
	}

	s.mu.Lock()
	s.posts = append([]models.Post{created}, s.posts...)
	sortByDate(s.posts)
	s.mu.Unlock()

	s.alerts.Show("Post created successfully", models.AlertSuccess)
	return &created, nil
}

// Update edits a post's text. Responses superseded by a later edit of
// the same post are discarded.
func (s *Store) Update(ctx context.Context, postID, text string) (*models.Post, error) {
	seq := s.guard.Issue(postID)

	var updated models.Post
	if err := s.client.Put(ctx, "/posts/"+postID, map[string]string{"text": text}, &updated); err != nil {
		s.notifyFailure(err, "Failed to update post")
		return nil, err
	}

	s.mu.Lock()
	if !s.guard.Stale(postID, seq) {
		for i := range s.posts {
			if s.posts[i].ID == postID {
				s.posts[i] = updated
				break
			}
		}
		if s.post != nil && s.post.ID == postID {
			s.post = &updated
		}
		sortByDate(s.posts)
	} else {
		s.logger.Debug("discarding stale post update response", "post", postID, "seq", seq)
	}
	s.mu.Unlock()

	s.alerts.Show("Post updated successfully", models.AlertSuccess)
	return &updated, nil
}

// Delete removes a post after confirmation.
func (s *Store) Delete(ctx context.Context, postID string) error {
	if !s.confirm.Confirm("Delete this post? This can NOT be undone!") {
		return ErrCancelled
	}

	if err := s.client.Delete(ctx, "/posts/"+postID, nil); err != nil {
		s.notifyFailure(err, "Failed to delete post")
		return err
	}

	s.mu.Lock()
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}
	if s.post != nil && s.post.ID == postID {
		s.post = nil
	}
	s.mu.Unlock()

	s.guard.Forget(postID)
	s.alerts.Show("Post deleted successfully", models.AlertSuccess)
	return nil
}

// Like adds the current user to a post's like list. A duplicate like is
// a Conflict: the server rejects with 409 and the cached count is left
// unchanged.
func (s *Store) Like(ctx context.Context, postID string) error {
	user := s.session.User()
	if user == nil {
		s.alerts.Show("You must be logged in to like posts", models.AlertDanger)
		return api.Unauthorized("not logged in")
	}

	seq := s.guard.Issue(postID)

	var resp likesResponse
	err := s.client.Post(ctx, "/posts/"+postID+"/like/"+user.ID, nil, &resp)
	if err != nil {
		if api.IsConflict(err) {
			s.alerts.Show("You have already liked this post!", models.AlertDanger)
		} else {
			s.alerts.Show("Failed to like post!", models.AlertDanger)
		}
		return err
	}

	s.applyLikes(postID, seq, resp.Likes)
	s.alerts.Show("Post liked!", models.AlertSuccess)
	return nil
}

// Unlike removes the current user from a post's like list.
func (s *Store) Unlike(ctx context.Context, postID string) error {
	user := s.session.User()
	if user == nil {
		s.alerts.Show("You must be logged in to like posts", models.AlertDanger)
		return api.Unauthorized("not logged in")
	}

	seq := s.guard.Issue(postID)

	var resp likesResponse
	err := s.client.Delete(ctx, "/posts/"+postID+"/unlike/"+user.ID, &resp)
	if err != nil {
		if api.IsConflict(err) {
			s.alerts.Show("You have not liked this post!", models.AlertDanger)
		} else {
			s.alerts.Show("Failed to unlike post", models.AlertDanger)
		}
		return err
	}

	s.applyLikes(postID, seq, resp.Likes)
	s.alerts.Show("Post unliked!", models.AlertSuccess)
	return nil
}

// applyLikes patches a post's like list in place. The server is the
// authority on membership; stale responses are dropped.
func (s *Store) applyLikes(postID string, seq uint64, likes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guard.Stale(postID, seq) {
		s.logger.Debug("discarding stale likes response", "post", postID, "seq", seq)
		return
	}
	if likes == nil {
		likes = []string{}
	}
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts[i].Likes = likes
			break
		}
	}
	if s.post != nil && s.post.ID == postID {
		s.post.Likes = likes
	}
	sortByDate(s.posts)
}

// AddComment appends a comment to a post. The server returns the
// created comment and it is patched into the cached post.
func (s *Store) AddComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	user := s.session.User()
	if user == nil {
		s.alerts.Show("You must be logged in to comment", models.AlertDanger)
		return nil, api.Unauthorized("not logged in")
	}

	body := map[string]string{"text": text, "name": user.Name, "avatar": user.AvatarURL}

	var created models.Comment
	if err := s.client.Post(ctx, "/posts/"+postID+"/comment", body, &created); err != nil {
		s.alerts.Show("Failed to add comment", models.AlertDanger)
		return nil, err
	}

	s.mu.Lock()
	if s.post != nil && s.post.ID == postID {
		s.post.Comments = append(s.post.Comments, created)
	}
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts[i].Comments = append(s.posts[i].Comments, created)
			break
		}
	}
	s.mu.Unlock()

	s.alerts.Show("Comment added successfully", models.AlertSuccess)
	return &created, nil
}

// DeleteComment removes a comment. The local author check compares
// display names because comments carry no author id; it is advisory
// only (see ErrNotCommentAuthor).
func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) error {
	user := s.session.User()
	if user == nil {
		s.alerts.Show("You must be logged in to comment", models.AlertDanger)
		return api.Unauthorized("not logged in")
	}

	if author, found := s.commentAuthor(postID, commentID); found && author != user.Name {
		return ErrNotCommentAuthor
	}

	if err := s.client.Delete(ctx, "/posts/comment/"+commentID, nil); err != nil {
		s.alerts.Show("Failed to delete comment", models.AlertDanger)
		return err
	}

	s.mu.Lock()
	if s.post != nil && s.post.ID == postID {
		s.post.Comments = removeComment(s.post.Comments, commentID)
	}
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts[i].Comments = removeComment(s.posts[i].Comments, commentID)
			break
		}
	}
	s.mu.Unlock()

	s.alerts.Show("Comment deleted successfully", models.AlertSuccess)
	return nil
}

// Feed returns the cached feed.
func (s *Store) Feed() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Current returns the cached single-post view.
func (s *Store) Current() *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post
}

func (s *Store) commentAuthor(postID, commentID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lookup := func(comments []models.Comment) (string, bool) {
		for _, c := range comments {
			if c.ID == commentID {
				return c.Name, true
			}
		}
		return "", false
	}

	if s.post != nil && s.post.ID == postID {
		if name, ok := lookup(s.post.Comments); ok {
			return name, true
		}
	}
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return lookup(s.posts[i].Comments)
		}
	}
	return "", false
}

func (s *Store) notifyFailure(err error, fallback string) {
	for _, msg := range api.Messages(err, fallback) {
		s.alerts.Show(msg, models.AlertDanger)
	}
}

func removeComment(comments []models.Comment, id string) []models.Comment {
	for i, c := range comments {
		if c.ID == id {
			return append(comments[:i], comments[i+1:]...)
		}
	}
	return comments
}

func sortByDate(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
}
