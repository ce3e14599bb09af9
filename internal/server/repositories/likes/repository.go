package likes

import "context"

type Repository interface {
	// Add records that userID likes commentID. It reports false when the
	// like already existed.
	Add(ctx context.Context, commentID, userID string) (bool, error)
	// Remove reports false when there was no like to remove.
	Remove(ctx context.Context, commentID, userID string) (bool, error)
}
