package models

// CounterKind names one shared integer counter column. The set is closed;
// repositories map each kind to a fixed table and column.
type CounterKind string

const (
	// CounterPostComments is posts.comment_count.
	CounterPostComments CounterKind = "post_comments"
	// CounterCommentLikes is comments.like_count.
	CounterCommentLikes CounterKind = "comment_likes"
)

// CounterOwner identifies the row holding a counter.
type CounterOwner struct {
	Kind CounterKind
	ID   string
}

func (o CounterOwner) String() string {
	return string(o.Kind) + "/" + o.ID
}
