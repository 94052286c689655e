package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperr "time-bank.com/time-bank/internal/errors"
)

// Store groups the repositories that share one database handle. A Store
// obtained through Transaction routes every call through the same
// transaction.
type Store struct {
	db          *gorm.DB
	Tasks       *TaskRepository
	Ledger      *LedgerRepository
	Users       *UserRepository
	Attachments *AttachmentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Tasks:       NewTaskRepository(db),
		Ledger:      NewLedgerRepository(db),
		Users:       NewUserRepository(db),
		Attachments: NewAttachmentRepository(db),
	}
}

// Transaction runs fn atomically. Any error returned by fn rolls back every
// write made through the transactional Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	return translate(err)
}

// translate maps driver and context failures onto retryable store errors.
// Errors that already carry an application Exception pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Exception
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", apperr.ErrStoreTimeout, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "interrupted"):
		return fmt.Errorf("%w: %w", apperr.ErrStoreTimeout, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "could not serialize"):
		return fmt.Errorf("%w: %w", apperr.ErrStoreConflict, err)
	}

	return err
}
