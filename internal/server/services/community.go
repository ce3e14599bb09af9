package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/dmitrijs2005/campushub/internal/server/counters"
	"github.com/dmitrijs2005/campushub/internal/server/idempotency"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultReportPageSize = 20
	MaxReportPageSize     = 100

	maxTitleLen = 200
	maxBodyLen  = 10000
)

// CommunityService covers posts, comments, likes and reports. Every
// mutating call checks the caller's permission, then reserves an
// idempotency key, then touches storage. Comment and like counters change
// only through the counter mutator, in the same transaction as the row
// they count.
type CommunityService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	guard       *idempotency.Guard
	counters    *counters.Mutator
	logger      logging.Logger
}

func NewCommunityService(db dbx.DBTX, m repomanager.RepositoryManager, guard *idempotency.Guard, mutator *counters.Mutator, l logging.Logger) *CommunityService {
	return &CommunityService{
		db:          db,
		repomanager: m,
		guard:       guard,
		counters:    mutator,
		logger:      l.With("module", "community"),
	}
}

func authorize(caller *auth.Identity, p auth.Permission) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	if !caller.Role.Can(p) {
		return fmt.Errorf("%w: %s", common.ErrForbidden, p)
	}
	return nil
}

func validText(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", common.ErrValidation, field)
	}
	if len(v) > max {
		return "", fmt.Errorf("%w: %s is too long", common.ErrValidation, field)
	}
	return v, nil
}

// parseID accepts a UUID in any form uuid.Parse knows and returns it in
// canonical form.
func parseID(field, v string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a uuid", common.ErrValidation, field)
	}
	return id.String(), nil
}

// CreatePost publishes a post by the caller.
func (s *CommunityService) CreatePost(ctx context.Context, caller *auth.Identity, kind models.PostKind, title, body string) (*models.Post, error) {
	if err := authorize(caller, auth.PermCreatePost); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown post kind %q", common.ErrValidation, kind)
	}
	title, err := validText("title", title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	body, err = validText("body", body, maxBodyLen)
	if err != nil {
		return nil, err
	}

	res, err := s.guard.CheckAndReserve(ctx, "createPost", caller.Subject, string(kind), title, body)
	if err != nil {
		return nil, err
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		AuthorID: caller.Subject,
		Kind:     kind,
		Title:    title,
		Body:     body,
	})
	if err != nil {
		s.guard.Release(ctx, res)
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info(ctx, "post created", "post_id", post.ID, "user_id", caller.Subject)
	return post, nil
}

func (s *CommunityService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	id, err := parseID("post id", id)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

// CreateComment adds a comment to a post and bumps the post's comment count
// in the same locked transaction.
func (s *CommunityService) CreateComment(ctx context.Context, caller *auth.Identity, postID, body string) (*models.Comment, error) {
	if err := authorize(caller, auth.PermCreateComment); err != nil {
		return nil, err
	}
	postID, err := parseID("post id", postID)
	if err != nil {
		return nil, err
	}
	body, err = validText("body", body, maxBodyLen)
	if err != nil {
		return nil, err
	}

	res, err := s.guard.CheckAndReserve(ctx, "createComment", caller.Subject, postID, body)
	if err != nil {
		return nil, err
	}

	var comment *models.Comment
	owner := models.CounterOwner{Kind: models.CounterPostComments, ID: postID}

	_, err = s.counters.Increase(ctx, owner, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		comment, err = s.repomanager.Comments(tx).Create(ctx, &models.Comment{
			PostID:   postID,
			AuthorID: caller.Subject,
			Body:     body,
		})
		return err
	})
	if err != nil {
		s.guard.Release(ctx, res)
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logger.Info(ctx, "comment created", "comment_id", comment.ID, "post_id", postID, "user_id", caller.Subject)
	return comment, nil
}

// DeleteComment soft-deletes a comment and decrements the post's comment
// count. Authors may delete their own comments; others need
// comment:delete-any.
func (s *CommunityService) DeleteComment(ctx context.Context, caller *auth.Identity, commentID string) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	commentID, err := parseID("comment id", commentID)
	if err != nil {
		return err
	}

	comment, err := s.repomanager.Comments(s.db).GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Deleted() {
		return common.ErrorNotFound
	}
	if comment.AuthorID != caller.Subject && !caller.Role.Can(auth.PermDeleteAnyComment) {
		return fmt.Errorf("%w: not the author", common.ErrForbidden)
	}

	owner := models.CounterOwner{Kind: models.CounterPostComments, ID: comment.PostID}
	_, err = s.counters.Decrease(ctx, owner, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Comments(tx).SoftDelete(ctx, commentID)
	})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.logger.Info(ctx, "comment deleted", "comment_id", commentID, "user_id", caller.Subject)
	return nil
}

func likeKey(subject, commentID string) []string {
	return []string{"likeComment", subject, commentID}
}

// LikeComment records the caller's like and returns the new like count.
// A repeated like yields common.ErrAlreadyExists and leaves the count alone.
func (s *CommunityService) LikeComment(ctx context.Context, caller *auth.Identity, commentID string) (int64, error) {
	if err := authorize(caller, auth.PermLikeComment); err != nil {
		return 0, err
	}
	commentID, err := parseID("comment id", commentID)
	if err != nil {
		return 0, err
	}

	res, err := s.guard.CheckAndReserve(ctx, likeKey(caller.Subject, commentID)...)
	if err != nil {
		return 0, err
	}

	owner := models.CounterOwner{Kind: models.CounterCommentLikes, ID: commentID}
	count, err := s.counters.Increase(ctx, owner, func(ctx context.Context, tx dbx.DBTX) error {
		comment, err := s.repomanager.Comments(tx).GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.Deleted() {
			return common.ErrorNotFound
		}

		inserted, err := s.repomanager.Likes(tx).Add(ctx, commentID, caller.Subject)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("%w: already liked", common.ErrAlreadyExists)
		}
		return nil
	})
	if err != nil {
		s.guard.Release(ctx, res)
		return 0, fmt.Errorf("like comment: %w", err)
	}

	return count, nil
}

// UnlikeComment removes the caller's like and returns the new like count.
// Unliking without a like yields common.ErrorNotFound.
func (s *CommunityService) UnlikeComment(ctx context.Context, caller *auth.Identity, commentID string) (int64, error) {
	if err := authorize(caller, auth.PermLikeComment); err != nil {
		return 0, err
	}
	commentID, err := parseID("comment id", commentID)
	if err != nil {
		return 0, err
	}

	owner := models.CounterOwner{Kind: models.CounterCommentLikes, ID: commentID}
	count, err := s.counters.Decrease(ctx, owner, func(ctx context.Context, tx dbx.DBTX) error {
		removed, err := s.repomanager.Likes(tx).Remove(ctx, commentID, caller.Subject)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: not liked", common.ErrorNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("unlike comment: %w", err)
	}

	// a like right after an unlike is a new action, not a retry
	s.guard.Release(ctx, &idempotency.Reservation{Key: idempotency.Key(likeKey(caller.Subject, commentID)...)})

	return count, nil
}

// CreateReport files a moderation report.
func (s *CommunityService) CreateReport(ctx context.Context, caller *auth.Identity, target models.ReportTarget, targetID, reason string) (*models.Report, error) {
	if err := authorize(caller, auth.PermCreateReport); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown report target %q", common.ErrValidation, target)
	}
	targetID, err := parseID("target id", targetID)
	if err != nil {
		return nil, err
	}
	reason, err = validText("reason", reason, maxBodyLen)
	if err != nil {
		return nil, err
	}

	res, err := s.guard.CheckAndReserve(ctx, "createReport", caller.Subject, string(target), targetID, reason)
	if err != nil {
		return nil, err
	}

	report, err := s.repomanager.Reports(s.db).Create(ctx, &models.Report{
		ReporterID: caller.Subject,
		TargetType: target,
		TargetID:   targetID,
		Reason:     reason,
	})
	if err != nil {
		s.guard.Release(ctx, res)
		return nil, fmt.Errorf("create report: %w", err)
	}

	s.logger.Info(ctx, "report filed", "report_id", report.ID, "target", string(target), "target_id", targetID)
	return report, nil
}

// ListReports pages through reports newest first. limit <= 0 selects the
// default page size; larger limits are capped.
func (s *CommunityService) ListReports(ctx context.Context, caller *auth.Identity, limit, offset int) ([]*models.Report, error) {
	if err := authorize(caller, auth.PermReviewReports); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", common.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultReportPageSize
	}
	if limit > MaxReportPageSize {
		limit = MaxReportPageSize
	}

	return s.repomanager.Reports(s.db).List(ctx, limit, offset)
}
