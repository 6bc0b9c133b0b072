package service

import (
	"context"
	"time"

	"waypost/internal/models"
	"waypost/internal/repository"
)

// Function-field stubs for the repository interfaces. Tests set only the
// fields they need; calling an unset field panics, which is a test bug.

type stubEntryRepo struct {
	CreateFn               func(ctx context.Context, entry *models.Entry) error
	GetByPublicIDFn        func(ctx context.Context, publicID string, viewer models.Session) (*models.Entry, error)
	GetByIDFn              func(ctx context.Context, id uint) (*models.Entry, error)
	ListFn                 func(ctx context.Context, filter repository.EntryFilter, viewer models.Session) ([]*models.Entry, error)
	ListBookmarkedByFn     func(ctx context.Context, explorerID uint, limit, offset int) ([]*models.Entry, error)
	UpdateFn               func(ctx context.Context, entry *models.Entry) error
	DeleteFn               func(ctx context.Context, id uint) error
	CountEarlierSiblingsFn func(ctx context.Context, expeditionID uint, date time.Time, entryID uint) (int64, error)
}

func (s *stubEntryRepo) Create(ctx context.Context, entry *models.Entry) error {
	return s.CreateFn(ctx, entry)
}

func (s *stubEntryRepo) GetByPublicID(ctx context.Context, publicID string, viewer models.Session) (*models.Entry, error) {
	return s.GetByPublicIDFn(ctx, publicID, viewer)
}

func (s *stubEntryRepo) GetByID(ctx context.Context, id uint) (*models.Entry, error) {
	return s.GetByIDFn(ctx, id)
}

func (s *stubEntryRepo) List(ctx context.Context, filter repository.EntryFilter, viewer models.Session) ([]*models.Entry, error) {
	return s.ListFn(ctx, filter, viewer)
}

func (s *stubEntryRepo) ListBookmarkedBy(ctx context.Context, explorerID uint, limit, offset int) ([]*models.Entry, error) {
	return s.ListBookmarkedByFn(ctx, explorerID, limit, offset)
}

func (s *stubEntryRepo) Update(ctx context.Context, entry *models.Entry) error {
	return s.UpdateFn(ctx, entry)
}

func (s *stubEntryRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}

func (s *stubEntryRepo) CountEarlierSiblings(ctx context.Context, expeditionID uint, date time.Time, entryID uint) (int64, error) {
	return s.CountEarlierSiblingsFn(ctx, expeditionID, date, entryID)
}

type stubEngagementRepo struct {
	ToggleFn func(ctx context.Context, entryID, explorerID uint, kind models.EngagementKind) (repository.ToggleResult, error)
}

func (s *stubEngagementRepo) Toggle(ctx context.Context, entryID, explorerID uint, kind models.EngagementKind) (repository.ToggleResult, error) {
	return s.ToggleFn(ctx, entryID, explorerID, kind)
}

type stubSponsorshipRepo struct {
	HasActiveSponsorshipFn      func(ctx context.Context, sponsorID, creatorID uint, now time.Time) (bool, error)
	ActiveSponsoredCreatorIDsFn func(ctx context.Context, sponsorID uint, creatorIDs []uint, now time.Time) (map[uint]bool, error)
	UpsertFn                    func(ctx context.Context, sponsorship *models.Sponsorship) error
	CancelFn                    func(ctx context.Context, sponsorID, creatorID uint) error
	ListBySponsorFn             func(ctx context.Context, sponsorID uint) ([]*models.Sponsorship, error)
}

func (s *stubSponsorshipRepo) HasActiveSponsorship(ctx context.Context, sponsorID, creatorID uint, now time.Time) (bool, error) {
	return s.HasActiveSponsorshipFn(ctx, sponsorID, creatorID, now)
}

func (s *stubSponsorshipRepo) ActiveSponsoredCreatorIDs(ctx context.Context, sponsorID uint, creatorIDs []uint, now time.Time) (map[uint]bool, error) {
	return s.ActiveSponsoredCreatorIDsFn(ctx, sponsorID, creatorIDs, now)
}

func (s *stubSponsorshipRepo) Upsert(ctx context.Context, sponsorship *models.Sponsorship) error {
	return s.UpsertFn(ctx, sponsorship)
}

func (s *stubSponsorshipRepo) Cancel(ctx context.Context, sponsorID, creatorID uint) error {
	return s.CancelFn(ctx, sponsorID, creatorID)
}

func (s *stubSponsorshipRepo) ListBySponsor(ctx context.Context, sponsorID uint) ([]*models.Sponsorship, error) {
	return s.ListBySponsorFn(ctx, sponsorID)
}

type stubExpeditionRepo struct {
	CreateFn        func(ctx context.Context, expedition *models.Expedition) error
	GetByPublicIDFn func(ctx context.Context, publicID string) (*models.Expedition, error)
	GetByIDFn       func(ctx context.Context, id uint) (*models.Expedition, error)
	ListByAuthorFn  func(ctx context.Context, authorID uint, limit, offset int) ([]*models.Expedition, error)
	UpdateFn        func(ctx context.Context, expedition *models.Expedition) error
	DeleteFn        func(ctx context.Context, id uint) error
}

func (s *stubExpeditionRepo) Create(ctx context.Context, expedition *models.Expedition) error {
	return s.CreateFn(ctx, expedition)
}

func (s *stubExpeditionRepo) GetByPublicID(ctx context.Context, publicID string) (*models.Expedition, error) {
	return s.GetByPublicIDFn(ctx, publicID)
}

func (s *stubExpeditionRepo) GetByID(ctx context.Context, id uint) (*models.Expedition, error) {
	return s.GetByIDFn(ctx, id)
}

func (s *stubExpeditionRepo) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Expedition, error) {
	return s.ListByAuthorFn(ctx, authorID, limit, offset)
}

func (s *stubExpeditionRepo) Update(ctx context.Context, expedition *models.Expedition) error {
	return s.UpdateFn(ctx, expedition)
}

func (s *stubExpeditionRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}

type stubExplorerRepo struct {
	CreateFn        func(ctx context.Context, explorer *models.Explorer) error
	GetByIDFn       func(ctx context.Context, id uint) (*models.Explorer, error)
	GetByPublicIDFn func(ctx context.Context, publicID string) (*models.Explorer, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.Explorer, error)
	GetByEmailFn    func(ctx context.Context, email string) (*models.Explorer, error)
	UpdateFn        func(ctx context.Context, explorer *models.Explorer) error
}

func (s *stubExplorerRepo) Create(ctx context.Context, explorer *models.Explorer) error {
	return s.CreateFn(ctx, explorer)
}

func (s *stubExplorerRepo) GetByID(ctx context.Context, id uint) (*models.Explorer, error) {
	return s.GetByIDFn(ctx, id)
}

func (s *stubExplorerRepo) GetByPublicID(ctx context.Context, publicID string) (*models.Explorer, error) {
	return s.GetByPublicIDFn(ctx, publicID)
}

func (s *stubExplorerRepo) GetByUsername(ctx context.Context, username string) (*models.Explorer, error) {
	return s.GetByUsernameFn(ctx, username)
}

func (s *stubExplorerRepo) GetByEmail(ctx context.Context, email string) (*models.Explorer, error) {
	return s.GetByEmailFn(ctx, email)
}

func (s *stubExplorerRepo) Update(ctx context.Context, explorer *models.Explorer) error {
	return s.UpdateFn(ctx, explorer)
}

type stubViewRepo struct {
	RecordFn func(ctx context.Context, view *models.EntryView) (bool, error)
}

func (s *stubViewRepo) Record(ctx context.Context, view *models.EntryView) (bool, error) {
	return s.RecordFn(ctx, view)
}

// allowAllGate builds a gate whose repository reports an active sponsorship
// for every pair.
func allowAllGate() *SponsorshipGate {
	return NewSponsorshipGate(&stubSponsorshipRepo{
		HasActiveSponsorshipFn: func(context.Context, uint, uint, time.Time) (bool, error) {
			return true, nil
		},
		ActiveSponsoredCreatorIDsFn: func(_ context.Context, _ uint, ids []uint, _ time.Time) (map[uint]bool, error) {
			out := make(map[uint]bool, len(ids))
			for _, id := range ids {
				out[id] = true
			}
			return out, nil
		},
	})
}
