// Package repository provides data access for the tenant store.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// BatchSize bounds the number of ids bound into a single IN clause.
const BatchSize = 500

// chunk calls fn with consecutive slices of ids of at most size elements.
func chunk(ids []uint, size int, fn func(batch []uint) error) error {
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint violation,
// either translated by GORM or raw from the PostgreSQL driver.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Store bundles the tenant repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Discussions DiscussionRepository
	Replies     ReplyRepository
	Likes       LikeRepository
	Pins        PinRepository
	Views       ViewRepository
	Mentions    MentionRepository
	Reports     ReportRepository
	Attachments AttachmentRepository
}

// NewStore builds the repositories over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Discussions: NewDiscussionRepository(db),
		Replies:     NewReplyRepository(db),
		Likes:       NewLikeRepository(db),
		Pins:        NewPinRepository(db),
		Views:       NewViewRepository(db),
		Mentions:    NewMentionRepository(db),
		Reports:     NewReportRepository(db),
		Attachments: NewAttachmentRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
