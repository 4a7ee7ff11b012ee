package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/readwith/readwith/middleware"
	"github.com/readwith/readwith/stores"
	"github.com/readwith/readwith/utils"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	listCacheTTL    = 30 * time.Second
)

// apiError carries an HTTP status and error kind from a request binder back
// to the handler.
type apiError struct {
	status int
	kind   string
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusUnprocessableEntity, kind: utils.KindValidation, msg: msg}
}

// BoardController serves one board's listing and lifecycle endpoints. The
// board-specific request shapes live in the bind hooks; everything else is
// shared across the support board and both forums.
type BoardController[T any, PT stores.NodePtr[T]] struct {
	store *stores.ThreadStore[T, PT]
	name  string

	// bindCreate parses and validates the create payload into a draft post.
	bindCreate func(ctx *gin.Context) (PT, *apiError)
	// bindUpdate parses the patch payload against the current row. admin
	// gates fields like the support status.
	bindUpdate func(ctx *gin.Context, current PT, admin bool) (map[string]interface{}, *apiError)
}

func (b *BoardController[T, PT]) cacheKey(page, size int) string {
	return fmt.Sprintf("cache:%s:list:page=%d:size=%d", b.name, page, size)
}

func (b *BoardController[T, PT]) invalidate() {
	utils.InvalidateByPrefix("cache:" + b.name + ":")
}

// parsePagination reads page and size (alias page_size) query parameters.
// Out-of-range values are rejected, not clamped.
func parsePagination(ctx *gin.Context) (page, size int, apiErr *apiError) {
	page = 1
	if raw := ctx.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, badRequest("page must be a positive integer")
		}
		page = v
	}

	size = defaultPageSize
	raw := ctx.Query("size")
	if raw == "" {
		raw = ctx.Query("page_size")
	}
	if raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPageSize {
			return 0, 0, badRequest(fmt.Sprintf("size must be between 1 and %d", maxPageSize))
		}
		size = v
	}
	return page, size, nil
}

// ListPosts returns one page of top-level posts with reply counts and
// authors. Pages are briefly cached; any board mutation drops the cache.
func (b *BoardController[T, PT]) ListPosts(ctx *gin.Context) {
	page, size, apiErr := parsePagination(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}

	key := b.cacheKey(page, size)
	if raw, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}

	result, err := b.store.ListTopLevel(ctx.Request.Context(), page, size)
	if err != nil {
		utils.Logger.Error("list posts failed", zap.String("board", b.name), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": result.Items,
		"pagination": gin.H{
			"page":        result.Page,
			"page_size":   result.PageSize,
			"total":       result.Total,
			"total_pages": result.TotalPages(),
		},
	}
	utils.CacheSetJSON(key, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, listCacheTTL)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its author.
func (b *BoardController[T, PT]) GetPost(ctx *gin.Context) {
	id, apiErr := pathID(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}

	post, err := b.store.Get(ctx.Request.Context(), id)
	if errors.Is(err, stores.ErrNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Logger.Error("get post failed", zap.String("board", b.name), zap.Uint("id", id), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load post")
		return
	}
	utils.Success(ctx, post)
}

// CreatePost persists a new post or reply authored by the caller.
func (b *BoardController[T, PT]) CreatePost(ctx *gin.Context) {
	post, apiErr := b.bindCreate(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}
	post.SetAuthor(middleware.CurrentUserID(ctx))

	err := b.store.Insert(ctx.Request.Context(), post)
	if errors.Is(err, stores.ErrParentNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "parent post not found")
		return
	}
	if err != nil {
		utils.Logger.Error("create post failed", zap.String("board", b.name), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to create post")
		return
	}
	b.invalidate()

	created, err := b.store.Get(ctx.Request.Context(), post.PostID())
	if err != nil {
		utils.Success(ctx, post)
		return
	}
	utils.Success(ctx, created)
}

// UpdatePost applies a field patch to a post owned by the caller (or any
// post, for admins).
func (b *BoardController[T, PT]) UpdatePost(ctx *gin.Context) {
	id, apiErr := pathID(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}

	current, err := b.store.Get(ctx.Request.Context(), id)
	if errors.Is(err, stores.ErrNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Logger.Error("load post failed", zap.String("board", b.name), zap.Uint("id", id), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load post")
		return
	}

	admin := middleware.IsAdmin(ctx)
	if current.AuthorID() != middleware.CurrentUserID(ctx) && !admin {
		utils.Fail(ctx, http.StatusForbidden, utils.KindForbidden, "not the author of this post")
		return
	}

	patch, apiErr := b.bindUpdate(ctx, current, admin)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}

	updated, err := b.store.Update(ctx.Request.Context(), id, patch)
	if errors.Is(err, stores.ErrEmptyPatch) {
		utils.Fail(ctx, http.StatusUnprocessableEntity, utils.KindValidation, "no fields to update")
		return
	}
	if errors.Is(err, stores.ErrNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Logger.Error("update post failed", zap.String("board", b.name), zap.Uint("id", id), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to update post")
		return
	}
	b.invalidate()
	utils.Success(ctx, updated)
}

// DeletePost removes a post and its direct replies.
func (b *BoardController[T, PT]) DeletePost(ctx *gin.Context) {
	id, apiErr := pathID(ctx)
	if apiErr != nil {
		utils.Fail(ctx, apiErr.status, apiErr.kind, apiErr.msg)
		return
	}

	current, err := b.store.Get(ctx.Request.Context(), id)
	if errors.Is(err, stores.ErrNotFound) {
		utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "post not found")
		return
	}
	if err != nil {
		utils.Logger.Error("load post failed", zap.String("board", b.name), zap.Uint("id", id), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to load post")
		return
	}

	if current.AuthorID() != middleware.CurrentUserID(ctx) && !middleware.IsAdmin(ctx) {
		utils.Fail(ctx, http.StatusForbidden, utils.KindForbidden, "not the author of this post")
		return
	}

	if err := b.store.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			utils.Fail(ctx, http.StatusNotFound, utils.KindNotFound, "post not found")
			return
		}
		utils.Logger.Error("delete post failed", zap.String("board", b.name), zap.Uint("id", id), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.KindStore, "failed to delete post")
		return
	}
	b.invalidate()
	utils.Success(ctx, gin.H{"deleted": id})
}

func pathID(ctx *gin.Context) (uint, *apiError) {
	raw := ctx.Param("id")
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, badRequest("invalid post id")
	}
	return uint(v), nil
}
