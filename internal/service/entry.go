package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"waypost/internal/cache"
	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/notifications"
	"waypost/internal/repository"
	"waypost/internal/visibility"

	"gorm.io/gorm"
)

// EntryService owns entry reads and authoring. Every read goes through the
// same pipeline: fetch, visibility check, sponsorship gate, derived-field
// enrichment. Single fetches that fail visibility report NotFound; a gate
// denial reports Forbidden.
type EntryService struct {
	entries     repository.EntryRepository
	expeditions repository.ExpeditionRepository
	gate        *SponsorshipGate
	derived     *DerivedFieldsCalculator
	tracker     *ViewTracker
	notifier    *notifications.Notifier
}

// NewEntryService creates a new entry service.
func NewEntryService(
	entries repository.EntryRepository,
	expeditions repository.ExpeditionRepository,
	gate *SponsorshipGate,
	derived *DerivedFieldsCalculator,
	tracker *ViewTracker,
	notifier *notifications.Notifier,
) *EntryService {
	return &EntryService{
		entries:     entries,
		expeditions: expeditions,
		gate:        gate,
		derived:     derived,
		tracker:     tracker,
		notifier:    notifier,
	}
}

// Get returns one entry by public id, enforcing visibility and the
// sponsorship gate, and records the view in the background.
func (s *EntryService) Get(ctx context.Context, publicID string, viewer models.Session, remoteIP string) (*models.Entry, error) {
	entry, err := s.entries.GetByPublicID(ctx, publicID, viewer)
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

	if err := s.derived.Enrich(ctx, entry); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.tracker.Track(entry, viewer, remoteIP)
	return entry, nil
}

// ListResult pairs the page of entries with the count actually returned
// after gate filtering.
type ListResult struct {
	Data    []*models.Entry `json:"data"`
	Results int             `json:"results"`
}

// firstPageSize matches the handler's default page size.
const firstPageSize = 20

// List returns a visibility-filtered page of entries. Sponsored entries the
// viewer has no access to are silently excluded rather than erroring the
// whole page. The anonymous unfiltered first page is served cache-aside,
// since it is identical for every anonymous viewer.
func (s *EntryService) List(ctx context.Context, filter repository.EntryFilter, viewer models.Session) (*ListResult, error) {
	cacheable := !viewer.Authenticated() &&
		filter.AuthorID == 0 && filter.ExpeditionID == 0 &&
		filter.Offset == 0 && filter.Limit == firstPageSize
	if !cacheable {
		return s.list(ctx, filter, viewer)
	}

	var result ListResult
	err := cache.Aside(ctx, cache.EntryListKey(), &result, cache.EntryListTTL, func() error {
		page, err := s.list(ctx, filter, viewer)
		if err != nil {
			return err
		}
		result = *page
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EntryService) list(ctx context.Context, filter repository.EntryFilter, viewer models.Session) (*ListResult, error) {
	entries, err := s.entries.List(ctx, filter, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	entries, err = s.gate.FilterSponsored(ctx, entries, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.derived.EnrichAll(ctx, entries); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &ListResult{Data: entries, Results: len(entries)}, nil
}

// ListBookmarked returns the viewer's bookmarked feed, newest bookmark first.
func (s *EntryService) ListBookmarked(ctx context.Context, viewer models.Session, limit, offset int) (*ListResult, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	entries, err := s.entries.ListBookmarkedBy(ctx, viewer.ExplorerID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	entries, err = s.gate.FilterSponsored(ctx, entries, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.derived.EnrichAll(ctx, entries); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &ListResult{Data: entries, Results: len(entries)}, nil
}

// EntryInput carries the author-editable fields of an entry.
type EntryInput struct {
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	ExpeditionPublicID string     `json:"expedition_id"`
	Public             bool       `json:"public"`
	IsDraft            bool       `json:"is_draft"`
	Sponsored          bool       `json:"sponsored"`
	Date               *time.Time `json:"date"`
	PlaceName          string     `json:"place_name"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
}

func (in *EntryInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("title is required")
	}
	if len(in.Title) > 200 {
		return models.NewValidationError("title must be at most 200 characters")
	}
	return nil
}

// Create authors a new entry for the session explorer. Sponsored entries can
// only be authored by creators and admins.
func (s *EntryService) Create(ctx context.Context, in EntryInput, author models.Session) (*models.Entry, error) {
	if !author.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Sponsored && author.Role != models.RoleCreator && author.Role != models.RoleAdmin {
		return nil, models.NewForbiddenError("only creators can publish sponsored entries")
	}

	entry := &models.Entry{
		Title:     in.Title,
		Body:      in.Body,
		AuthorID:  author.ExplorerID,
		Public:    in.Public,
		IsDraft:   in.IsDraft,
		Sponsored: in.Sponsored,
		PlaceName: in.PlaceName,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
	entry.Visibility = visibilityFor(in)
	if in.Date != nil {
		entry.Date = in.Date.UTC()
	}

	if in.ExpeditionPublicID != "" {
		expedition, err := s.resolveExpedition(ctx, in.ExpeditionPublicID, author)
		if err != nil {
			return nil, err
		}
		entry.ExpeditionID = &expedition.ID
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, models.NewInternalError(err)
	}
	if entry.Public && !entry.IsDraft {
		s.announcePublished(ctx, entry)
	}
	if err := s.derived.Enrich(ctx, entry); err != nil {
		return nil, models.NewInternalError(err)
	}
	return entry, nil
}

// Update applies the input to an existing entry. Only the author or an admin
// may edit; a draft transitioning to published fires the published event.
func (s *EntryService) Update(ctx context.Context, publicID string, in EntryInput, editor models.Session) (*models.Entry, error) {
	if !editor.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByPublicID(ctx, publicID, editor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Entry")
		}
		return nil, models.NewInternalError(err)
	}
	if !visibility.IsVisible(entry, editor) {
		return nil, models.NewNotFoundError("Entry")
	}
	if entry.AuthorID != editor.ExplorerID && !editor.IsAdmin() {
		return nil, models.NewForbiddenError("only the author can edit this entry")
	}
	if in.Sponsored && !entry.Sponsored && editor.Role != models.RoleCreator && editor.Role != models.RoleAdmin {
		return nil, models.NewForbiddenError("only creators can publish sponsored entries")
	}

	wasPublished := entry.Public && !entry.IsDraft

	entry.Title = in.Title
	entry.Body = in.Body
	entry.Public = in.Public
	entry.IsDraft = in.IsDraft
	entry.Sponsored = in.Sponsored
	entry.Visibility = visibilityFor(in)
	entry.PlaceName = in.PlaceName
	entry.Latitude = in.Latitude
	entry.Longitude = in.Longitude
	if in.Date != nil {
		entry.Date = in.Date.UTC()
	}
	if in.ExpeditionPublicID != "" {
		expedition, err := s.resolveExpedition(ctx, in.ExpeditionPublicID, editor)
		if err != nil {
			return nil, err
		}
		entry.ExpeditionID = &expedition.ID
	} else {
		entry.ExpeditionID = nil
		entry.Expedition = nil
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, models.NewInternalError(err)
	}
	if !wasPublished && entry.Public && !entry.IsDraft {
		s.announcePublished(ctx, entry)
	}
	if err := s.derived.Enrich(ctx, entry); err != nil {
		return nil, models.NewInternalError(err)
	}
	return entry, nil
}

// Delete soft-deletes the entry. Only the author or an admin may delete.
func (s *EntryService) Delete(ctx context.Context, publicID string, editor models.Session) error {
	if !editor.Authenticated() {
		return models.NewUnauthorizedError("authentication required")
	}
	entry, err := s.entries.GetByPublicID(ctx, publicID, editor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Entry")
		}
		return models.NewInternalError(err)
	}
	if !visibility.IsVisible(entry, editor) {
		return models.NewNotFoundError("Entry")
	}
	if entry.AuthorID != editor.ExplorerID && !editor.IsAdmin() {
		return models.NewForbiddenError("only the author can delete this entry")
	}
	if err := s.entries.Delete(ctx, entry.ID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *EntryService) resolveExpedition(ctx context.Context, publicID string, session models.Session) (*models.Expedition, error) {
	expedition, err := s.expeditions.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Expedition")
		}
		return nil, models.NewInternalError(err)
	}
	if expedition.AuthorID != session.ExplorerID && !session.IsAdmin() {
		return nil, models.NewForbiddenError("entries can only join your own expeditions")
	}
	return expedition, nil
}

// announcePublished broadcasts the published event. Best effort only.
func (s *EntryService) announcePublished(ctx context.Context, entry *models.Entry) {
	payload, err := json.Marshal(notifications.Event{
		Context:   notifications.EventEntryPublished,
		ActorID:   entry.AuthorID,
		SubjectID: entry.PublicID,
	})
	if err != nil {
		return
	}
	if err := s.notifier.PublishBroadcast(ctx, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "publish announcement failed",
			"entry_id", entry.PublicID,
			"error", err.Error(),
		)
	}
}

func visibilityFor(in EntryInput) models.EntryVisibility {
	switch {
	case in.Sponsored:
		return models.EntryVisibilitySponsors
	case in.Public && !in.IsDraft:
		return models.EntryVisibilityPublic
	default:
		return models.EntryVisibilityPrivate
	}
}
