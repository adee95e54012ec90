// Package services contains server-side business logic. NoteService checks
// requests and forwards them to the configured note repository; both the
// HTTP and the gRPC transport call it.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
)

type NoteService struct {
	repo   notes.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewNoteService(repo notes.Repository, l logging.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: l.With("module", "note_service"),
		now:    time.Now,
	}
}

func invalid(field string) error {
	return fmt.Errorf("%w: %s is required", common.ErrorInvalidArgument, field)
}

// SelectAll returns the notes of owner, newest first.
func (s *NoteService) SelectAll(ctx context.Context, owner string) ([]models.Note, error) {
	if owner == "" {
		return nil, invalid("owner")
	}
	res, err := s.repo.SelectAll(ctx, owner)
	if err != nil {
		s.logger.Error(ctx, "select failed", "owner", owner, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return res, nil
}

// Insert stores n. Missing timestamps are set to the current time.
// An id already used by the owner yields common.ErrorAlreadyExists.
func (s *NoteService) Insert(ctx context.Context, n models.Note) error {
	if n.Owner == "" {
		return invalid("owner")
	}
	if n.ID == "" {
		return invalid("id")
	}
	now := s.now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.ModifiedAt.IsZero() {
		n.ModifiedAt = n.CreatedAt
	}

	if err := s.repo.Insert(ctx, &n); err != nil {
		return s.fail(ctx, "insert", n.ID, n.Owner, err)
	}
	s.logger.Debug(ctx, "note inserted", "id", n.ID, "owner", n.Owner)
	return nil
}

func (s *NoteService) UpdateByID(ctx context.Context, id, owner string, f models.NoteFields) error {
	if owner == "" {
		return invalid("owner")
	}
	if id == "" {
		return invalid("id")
	}
	if f.ModifiedAt.IsZero() {
		f.ModifiedAt = s.now().UTC()
	}
	if err := s.repo.UpdateByID(ctx, id, owner, f); err != nil {
		return s.fail(ctx, "update", id, owner, err)
	}
	s.logger.Debug(ctx, "note updated", "id", id, "owner", owner)
	return nil
}

func (s *NoteService) DeleteByID(ctx context.Context, id, owner string) error {
	if owner == "" {
		return invalid("owner")
	}
	if id == "" {
		return invalid("id")
	}
	if err := s.repo.DeleteByID(ctx, id, owner); err != nil {
		return s.fail(ctx, "delete", id, owner, err)
	}
	s.logger.Debug(ctx, "note deleted", "id", id, "owner", owner)
	return nil
}

// Ping reports whether the storage backend answers.
func (s *NoteService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "storage ping failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

// fail keeps the repository sentinels callers map to status codes and
// hides everything else behind common.ErrorInternal.
func (s *NoteService) fail(ctx context.Context, op, id, owner string, err error) error {
	if errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorNotFound) {
		return err
	}
	s.logger.Error(ctx, op+" failed", "id", id, "owner", owner, "error", err)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
