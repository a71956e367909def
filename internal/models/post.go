package models

import "time"

// Comment is a single comment owned by one post.
// Comments carry the author's display name but no author id.
type Comment struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar,omitempty"`
	Date   time.Time `json:"date"`
}

// Post represents one feed entry with its likes and comments.
type Post struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Date     time.Time   `json:"date"`
	User     ProfileUser `json:"user"`
	Likes    []string    `json:"likes"`
	Comments []Comment   `json:"comments"`
}

// LikedBy reports whether the given user id is in the post's like list.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
