package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"waypost/internal/models"
	"waypost/internal/repository"

	"gorm.io/gorm"
)

// ExpeditionService handles expedition authoring.
type ExpeditionService struct {
	expeditions repository.ExpeditionRepository
}

// NewExpeditionService creates a new expedition service.
func NewExpeditionService(expeditions repository.ExpeditionRepository) *ExpeditionService {
	return &ExpeditionService{expeditions: expeditions}
}

// ExpeditionInput carries the author-editable fields of an expedition.
type ExpeditionInput struct {
	Name        string    `json:"name"`
	StartDate   time.Time `json:"start_date"`
	Description string    `json:"description"`
}

func (in *ExpeditionInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewValidationError("name is required")
	}
	if in.StartDate.IsZero() {
		return models.NewValidationError("start_date is required")
	}
	return nil
}

// Create starts a new expedition owned by the session explorer.
func (s *ExpeditionService) Create(ctx context.Context, in ExpeditionInput, author models.Session) (*models.Expedition, error) {
	if !author.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	expedition := &models.Expedition{
		Name:        in.Name,
		AuthorID:    author.ExplorerID,
		StartDate:   in.StartDate.UTC(),
		Description: in.Description,
	}
	if err := s.expeditions.Create(ctx, expedition); err != nil {
		return nil, models.NewInternalError(err)
	}
	return expedition, nil
}

// Get returns one expedition by public id.
func (s *ExpeditionService) Get(ctx context.Context, publicID string) (*models.Expedition, error) {
	expedition, err := s.expeditions.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Expedition")
		}
		return nil, models.NewInternalError(err)
	}
	return expedition, nil
}

// ListByAuthor returns an explorer's expeditions, newest first.
func (s *ExpeditionService) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Expedition, error) {
	expeditions, err := s.expeditions.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return expeditions, nil
}

// Update edits an expedition. Only the author or an admin may edit.
func (s *ExpeditionService) Update(ctx context.Context, publicID string, in ExpeditionInput, editor models.Session) (*models.Expedition, error) {
	if !editor.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	expedition, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if expedition.AuthorID != editor.ExplorerID && !editor.IsAdmin() {
		return nil, models.NewForbiddenError("only the author can edit this expedition")
	}
	expedition.Name = in.Name
	expedition.StartDate = in.StartDate.UTC()
	expedition.Description = in.Description
	if err := s.expeditions.Update(ctx, expedition); err != nil {
		return nil, models.NewInternalError(err)
	}
	return expedition, nil
}

// Delete soft-deletes an expedition. Member entries keep their rows; their
// derived fields simply stop resolving against a live expedition.
func (s *ExpeditionService) Delete(ctx context.Context, publicID string, editor models.Session) error {
	if !editor.Authenticated() {
		return models.NewUnauthorizedError("authentication required")
	}
	expedition, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if expedition.AuthorID != editor.ExplorerID && !editor.IsAdmin() {
		return models.NewForbiddenError("only the author can delete this expedition")
	}
	if err := s.expeditions.Delete(ctx, expedition.ID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
