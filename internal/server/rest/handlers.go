package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/gin-gonic/gin"
)

// UserService is what the account endpoints need.
type UserService interface {
	Signup(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, caller *auth.Identity) error
	Me(ctx context.Context, caller *auth.Identity) (*models.User, error)
}

// CommunityService is what the post, comment and report endpoints need.
type CommunityService interface {
	CreatePost(ctx context.Context, caller *auth.Identity, kind models.PostKind, title, body string) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreateComment(ctx context.Context, caller *auth.Identity, postID, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, caller *auth.Identity, commentID string) error
	LikeComment(ctx context.Context, caller *auth.Identity, commentID string) (int64, error)
	UnlikeComment(ctx context.Context, caller *auth.Identity, commentID string) (int64, error)
	CreateReport(ctx context.Context, caller *auth.Identity, target models.ReportTarget, targetID, reason string) (*models.Report, error)
	ListReports(ctx context.Context, caller *auth.Identity, limit, offset int) ([]*models.Report, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// ---- DTOs ----

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type signupResponse struct {
	User userResponse `json:"user"`
	tokenPairResponse
}

type createPostRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

type postResponse struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CommentCount int64     `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type createCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	LikeCount int64     `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

type likeResponse struct {
	LikeCount int64 `json:"like_count"`
}

type createReportRequest struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   string `json:"target_id" binding:"required,uuid"`
	Reason     string `json:"reason" binding:"required"`
}

type reportResponse struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporter_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUser(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toPost(p *models.Post) postResponse {
	return postResponse{
		ID: p.ID, AuthorID: p.AuthorID, Kind: string(p.Kind), Title: p.Title,
		Body: p.Body, CommentCount: p.CommentCount, CreatedAt: p.CreatedAt,
	}
}

func toComment(c *models.Comment) commentResponse {
	return commentResponse{
		ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, Body: c.Body,
		LikeCount: c.LikeCount, CreatedAt: c.CreatedAt,
	}
}

func toReport(r *models.Report) reportResponse {
	return reportResponse{
		ID: r.ID, ReporterID: r.ReporterID, TargetType: string(r.TargetType),
		TargetID: r.TargetID, Reason: r.Reason, CreatedAt: r.CreatedAt,
	}
}

type idParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// pathID returns the :id route parameter. Ids are UUIDs; anything else is
// a 400 before storage sees it.
func pathID(c *gin.Context) (string, bool) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		writeError(c, fmt.Errorf("%w: id must be a uuid", common.ErrValidation))
		return "", false
	}
	return p.ID, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrValidation, err))
		return false
	}
	return true
}

// ---- account handlers ----

type authHandler struct {
	users UserService
}

func (h *authHandler) signup(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}

	user, pair, err := h.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, signupResponse{
		User:              toUser(user),
		tokenPairResponse: tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h *authHandler) login(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *authHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}

	access, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{AccessToken: access})
}

func (h *authHandler) logout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context(), identity(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *authHandler) me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(user))
}

// ---- community handlers ----

type communityHandler struct {
	community CommunityService
}

func (h *communityHandler) createPost(c *gin.Context) {
	var req createPostRequest
	if !bind(c, &req) {
		return
	}

	post, err := h.community.CreatePost(c.Request.Context(), identity(c), models.PostKind(req.Kind), req.Title, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPost(post))
}

func (h *communityHandler) getPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	post, err := h.community.GetPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPost(post))
}

func (h *communityHandler) createComment(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	var req createCommentRequest
	if !bind(c, &req) {
		return
	}

	comment, err := h.community.CreateComment(c.Request.Context(), identity(c), postID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toComment(comment))
}

func (h *communityHandler) deleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.community.DeleteComment(c.Request.Context(), identity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *communityHandler) likeComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.community.LikeComment(c.Request.Context(), identity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, likeResponse{LikeCount: n})
}

func (h *communityHandler) unlikeComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.community.UnlikeComment(c.Request.Context(), identity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, likeResponse{LikeCount: n})
}

func (h *communityHandler) createReport(c *gin.Context) {
	var req createReportRequest
	if !bind(c, &req) {
		return
	}

	report, err := h.community.CreateReport(c.Request.Context(), identity(c), models.ReportTarget(req.TargetType), req.TargetID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReport(report))
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrValidation, name)
	}
	return n, nil
}

func (h *communityHandler) listReports(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		writeError(c, err)
		return
	}

	list, err := h.community.ListReports(c.Request.Context(), identity(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]reportResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReport(r))
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

// ---- health ----

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
