package stores

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors returned by the store. Handlers translate these into the
// client-facing error envelope; anything else is a storage failure.
var (
	// ErrNotFound means the requested post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrParentNotFound means a reply referenced a missing parent post.
	ErrParentNotFound = errors.New("parent post not found")
	// ErrEmptyPatch means an update carried no recognized fields.
	ErrEmptyPatch = errors.New("no recognized fields to update")
)

// Node is the behaviour every board post shares: an id, an optional parent
// reference within the same table, and an owning user.
type Node interface {
	PostID() uint
	ParentRef() *uint
	AuthorID() uint
	SetAuthor(uint)
}

// NodePtr constrains PT to a pointer to the board model implementing Node.
type NodePtr[T any] interface {
	*T
	Node
}

// ThreadStore persists one board's self-referential post table. The same
// implementation backs the support board and both forums; only the model
// type differs.
type ThreadStore[T any, PT NodePtr[T]] struct {
	db    *gorm.DB
	table string
}

// NewThreadStore builds a store bound to the table of T.
func NewThreadStore[T any, PT NodePtr[T]](db *gorm.DB) *ThreadStore[T, PT] {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		panic(fmt.Sprintf("stores: cannot parse model schema: %v", err))
	}
	return &ThreadStore[T, PT]{db: db, table: stmt.Table}
}

// Insert persists a draft post. When a parent reference is set it must
// resolve to an existing row of the same board; otherwise nothing is
// written and ErrParentNotFound is returned.
func (s *ThreadStore[T, PT]) Insert(ctx context.Context, post PT) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if pid := post.ParentRef(); pid != nil {
			var n int64
			if err := tx.Model(new(T)).Where("id = ?", *pid).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrParentNotFound
			}
		}
		return tx.Create(post).Error
	})
}

// Get loads a single post with its author. Comment counts are a listing
// concern and are not populated here.
func (s *ThreadStore[T, PT]) Get(ctx context.Context, id uint) (PT, error) {
	post := PT(new(T))
	err := s.db.WithContext(ctx).Preload("User").First(post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Update applies the given column patch and returns the refreshed post.
// updated_at is bumped by gorm whenever at least one column is written.
func (s *ThreadStore[T, PT]) Update(ctx context.Context, id uint, fields map[string]interface{}) (PT, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyPatch
	}
	post := PT(new(T))
	err := s.db.WithContext(ctx).First(post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(post).Updates(fields).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a post and every direct reply pointing at it. The child
// delete is explicit so the cascade holds even when the backing engine has
// foreign keys disabled.
func (s *ThreadStore[T, PT]) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := PT(new(T))
		err := tx.First(post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("parent_id = ?", id).Delete(new(T)).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

// Page is one page of top-level posts with pagination metadata.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

// ListTopLevel returns a page of top-level posts ordered most recent first.
// Each post carries its direct reply count, computed by a correlated
// subquery, and its author loaded in a single batched preload; no per-row
// follow-up queries are issued.
func (s *ThreadStore[T, PT]) ListTopLevel(ctx context.Context, page, pageSize int) (*Page[T], error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(new(T)).
		Where("parent_id IS NULL").
		Count(&total).Error; err != nil {
		return nil, err
	}

	sel := fmt.Sprintf(
		"%s.*, (SELECT COUNT(*) FROM %s AS replies WHERE replies.parent_id = %s.id) AS comment_count",
		s.table, s.table, s.table,
	)

	var items []T
	err := s.db.WithContext(ctx).Model(new(T)).
		Select(sel).
		Where(s.table+".parent_id IS NULL").
		Order(s.table + ".created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("User").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page[T]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// TotalPages derives the page count for the pagination envelope.
func (p *Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}
