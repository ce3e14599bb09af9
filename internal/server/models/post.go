package models

import "time"

// PostKind is the kind of content shared on the platform.
type PostKind string

const (
	PostKindProject  PostKind = "PROJECT"
	PostKindQuestion PostKind = "QUESTION"
	PostKindProblem  PostKind = "PROBLEM"
	PostKindTeam     PostKind = "TEAM"
)

// Valid reports whether k is one of the known kinds.
func (k PostKind) Valid() bool {
	switch k {
	case PostKindProject, PostKindQuestion, PostKindProblem, PostKindTeam:
		return true
	}
	return false
}

// Post owns CommentCount, which must equal the number of live comments.
type Post struct {
	ID           string
	AuthorID     string
	Kind         PostKind
	Title        string
	Body         string
	CommentCount int64
	CreatedAt    time.Time
}

// Comment owns LikeCount, which must equal the number of likes on it.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	LikeCount int64
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Deleted reports whether the comment was soft-deleted.
func (c *Comment) Deleted() bool {
	return c.DeletedAt != nil
}
