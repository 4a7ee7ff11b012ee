package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/stores"
	"github.com/readwith/readwith/utils"
)

// SupportController serves the customer support board.
type SupportController = BoardController[models.SupportTicket, *models.SupportTicket]

// ParentForumController serves the parent community forum.
type ParentForumController = BoardController[models.ParentPost, *models.ParentPost]

// ReadingForumController serves the reading community forum.
type ReadingForumController = BoardController[models.ReadingPost, *models.ReadingPost]

// NewSupportController wires the support board. Tickets always start open;
// moving them through the status flow is an admin operation.
func NewSupportController(db *gorm.DB) *SupportController {
	return &SupportController{
		store: stores.NewThreadStore[models.SupportTicket](db),
		name:  "support",

		bindCreate: func(ctx *gin.Context) (*models.SupportTicket, *apiError) {
			var req struct {
				Title    string `json:"title"`
				Content  string `json:"content"`
				Category string `json:"category"`
				ParentID *uint  `json:"parent_id"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			title := utils.Sanitize(strings.TrimSpace(req.Title))
			if req.ParentID == nil && title == "" {
				return nil, badRequest("title cannot be empty")
			}
			content := utils.Sanitize(strings.TrimSpace(req.Content))
			if content == "" {
				return nil, badRequest("content cannot be empty")
			}
			return &models.SupportTicket{
				ThreadBase: models.ThreadBase{
					Title:    title,
					Content:  content,
					ParentID: req.ParentID,
				},
				Category: utils.Sanitize(strings.TrimSpace(req.Category)),
				Status:   models.StatusOpen,
			}, nil
		},

		bindUpdate: func(ctx *gin.Context, current *models.SupportTicket, admin bool) (map[string]interface{}, *apiError) {
			var req struct {
				Title    *string `json:"title"`
				Content  *string `json:"content"`
				Category *string `json:"category"`
				Status   *string `json:"status"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			patch, apiErr := textPatch(req.Title, req.Content)
			if apiErr != nil {
				return nil, apiErr
			}
			if req.Category != nil {
				patch["category"] = utils.Sanitize(strings.TrimSpace(*req.Category))
			}
			if req.Status != nil {
				if !admin {
					return nil, &apiError{status: http.StatusForbidden, kind: utils.KindForbidden, msg: "only admins may change ticket status"}
				}
				next := *req.Status
				if !models.ValidStatus(next) {
					return nil, badRequest("unknown ticket status")
				}
				if !models.CanTransition(current.Status, next) {
					return nil, badRequest("invalid status transition from " + current.Status)
				}
				patch["status"] = next
			}
			return patch, nil
		},
	}
}

// NewParentForumController wires the parent community forum.
func NewParentForumController(db *gorm.DB) *ParentForumController {
	return &ParentForumController{
		store: stores.NewThreadStore[models.ParentPost](db),
		name:  "parent",

		bindCreate: func(ctx *gin.Context) (*models.ParentPost, *apiError) {
			var req struct {
				Title       string `json:"title"`
				Content     string `json:"content"`
				Category    string `json:"category"`
				IsImportant bool   `json:"is_important"`
				ParentID    *uint  `json:"parent_id"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			title := utils.Sanitize(strings.TrimSpace(req.Title))
			if req.ParentID == nil && title == "" {
				return nil, badRequest("title cannot be empty")
			}
			content := utils.Sanitize(strings.TrimSpace(req.Content))
			if content == "" {
				return nil, badRequest("content cannot be empty")
			}
			return &models.ParentPost{
				ThreadBase: models.ThreadBase{
					Title:    title,
					Content:  content,
					ParentID: req.ParentID,
				},
				Category:    utils.Sanitize(strings.TrimSpace(req.Category)),
				IsImportant: req.IsImportant,
			}, nil
		},

		bindUpdate: func(ctx *gin.Context, _ *models.ParentPost, _ bool) (map[string]interface{}, *apiError) {
			var req struct {
				Title       *string `json:"title"`
				Content     *string `json:"content"`
				Category    *string `json:"category"`
				IsImportant *bool   `json:"is_important"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			patch, apiErr := textPatch(req.Title, req.Content)
			if apiErr != nil {
				return nil, apiErr
			}
			if req.Category != nil {
				patch["category"] = utils.Sanitize(strings.TrimSpace(*req.Category))
			}
			if req.IsImportant != nil {
				patch["is_important"] = *req.IsImportant
			}
			return patch, nil
		},
	}
}

// NewReadingForumController wires the reading community forum. Reading posts
// may omit the title; the book title carries the topic.
func NewReadingForumController(db *gorm.DB) *ReadingForumController {
	return &ReadingForumController{
		store: stores.NewThreadStore[models.ReadingPost](db),
		name:  "reading",

		bindCreate: func(ctx *gin.Context) (*models.ReadingPost, *apiError) {
			var req struct {
				Title          string `json:"title"`
				Content        string `json:"content"`
				BookTitle      string `json:"book_title"`
				DiscussionTags string `json:"discussion_tags"`
				ParentID       *uint  `json:"parent_id"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			content := utils.Sanitize(strings.TrimSpace(req.Content))
			if content == "" {
				return nil, badRequest("content cannot be empty")
			}
			return &models.ReadingPost{
				ThreadBase: models.ThreadBase{
					Title:    utils.Sanitize(strings.TrimSpace(req.Title)),
					Content:  content,
					ParentID: req.ParentID,
				},
				BookTitle:      utils.Sanitize(strings.TrimSpace(req.BookTitle)),
				DiscussionTags: utils.Sanitize(strings.TrimSpace(req.DiscussionTags)),
			}, nil
		},

		bindUpdate: func(ctx *gin.Context, _ *models.ReadingPost, _ bool) (map[string]interface{}, *apiError) {
			var req struct {
				Title          *string `json:"title"`
				Content        *string `json:"content"`
				BookTitle      *string `json:"book_title"`
				DiscussionTags *string `json:"discussion_tags"`
			}
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, badRequest("invalid request payload")
			}
			patch, apiErr := textPatch(req.Title, req.Content)
			if apiErr != nil {
				return nil, apiErr
			}
			if req.BookTitle != nil {
				patch["book_title"] = utils.Sanitize(strings.TrimSpace(*req.BookTitle))
			}
			if req.DiscussionTags != nil {
				patch["discussion_tags"] = utils.Sanitize(strings.TrimSpace(*req.DiscussionTags))
			}
			return patch, nil
		},
	}
}

// textPatch builds the shared title/content part of an update patch. A
// supplied but blank content is rejected; a blank title clears it.
func textPatch(title, content *string) (map[string]interface{}, *apiError) {
	patch := map[string]interface{}{}
	if title != nil {
		patch["title"] = utils.Sanitize(strings.TrimSpace(*title))
	}
	if content != nil {
		c := utils.Sanitize(strings.TrimSpace(*content))
		if c == "" {
			return nil, badRequest("content cannot be empty")
		}
		patch["content"] = c
	}
	return patch, nil
}
