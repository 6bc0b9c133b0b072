package service

import (
	"context"
	"errors"
	"strings"

	"waypost/internal/models"
	"waypost/internal/repository"
	"waypost/internal/visibility"

	"gorm.io/gorm"
)

// CommentService handles comments on entries. Commenting requires the same
// access as reading: visibility first, then the sponsorship gate.
type CommentService struct {
	comments repository.CommentRepository
	entries  repository.EntryRepository
	gate     *SponsorshipGate
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, entries repository.EntryRepository, gate *SponsorshipGate) *CommentService {
	return &CommentService{comments: comments, entries: entries, gate: gate}
}

// Add posts a comment on the entry.
func (s *CommentService) Add(ctx context.Context, entryPublicID, body string, author models.Session) (*models.Comment, error) {
	if !author.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.NewValidationError("comment body is required")
	}
	if len(body) > 2000 {
		return nil, models.NewValidationError("comment body must be at most 2000 characters")
	}

	entry, err := s.accessibleEntry(ctx, entryPublicID, author)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:       body,
		EntryID:    entry.ID,
		ExplorerID: author.ExplorerID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

// List returns a page of comments on the entry, oldest first.
func (s *CommentService) List(ctx context.Context, entryPublicID string, viewer models.Session, limit, offset int) ([]*models.Comment, error) {
	entry, err := s.accessibleEntry(ctx, entryPublicID, viewer)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByEntry(ctx, entry.ID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes a comment. The comment's author, the entry's author and
// admins may delete.
func (s *CommentService) Delete(ctx context.Context, commentID uint, editor models.Session) error {
	if !editor.Authenticated() {
		return models.NewUnauthorizedError("authentication required")
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment")
		}
		return models.NewInternalError(err)
	}

	if comment.ExplorerID != editor.ExplorerID && !editor.IsAdmin() {
		entryAuthor, err := s.entryAuthorID(ctx, comment.EntryID)
		if err != nil {
			return models.NewInternalError(err)
		}
		if entryAuthor != editor.ExplorerID {
			return models.NewForbiddenError("you cannot delete this comment")
		}
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (s *CommentService) accessibleEntry(ctx context.Context, entryPublicID string, viewer models.Session) (*models.Entry, error) {
	entry, err := s.entries.GetByPublicID(ctx, entryPublicID, viewer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Entry")
		}
		return nil, models.NewInternalError(err)
	}
	if !visibility.IsVisible(entry, viewer) {
		return nil, models.NewNotFoundError("Entry")
	}
	allowed, err := s.gate.CanViewSponsored(ctx, entry, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !allowed {
		return nil, models.NewForbiddenError("an active sponsorship is required")
	}
	return entry, nil
}

func (s *CommentService) entryAuthorID(ctx context.Context, entryID uint) (uint, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	return entry.AuthorID, nil
}
