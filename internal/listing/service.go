package listing

import (
	"context"
	"log/slog"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/catalog"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
	"github.com/dozendreams/dozendreams-server/internal/id"
	"github.com/dozendreams/dozendreams-server/internal/validation"
)

// Service owns all listing reads and writes.
type Service struct {
	store    backend.Store
	catalog  *catalog.Catalog
	validate *validation.Validator
	logger   *slog.Logger
}

// NewService creates the listing service.
func NewService(store backend.Store, cat *catalog.Catalog, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		validate: validation.New(),
		logger:   logger,
	}
}

// Browse runs the filtered feed query. Until the category catalog has
// loaded it returns ErrNotReady so callers keep their previous results
// instead of querying with an incomplete map. Any backend failure is
// returned as is; callers clear their displayed results on error.
func (s *Service) Browse(ctx context.Context, filters domain.FilterState, keyword string) ([]domain.Listing, error) {
	if !s.catalog.Ready() {
		return nil, errors.NotReady("category catalog not loaded")
	}
	if !filters.ListingType.Valid() {
		return nil, errors.Validationf("unknown listing type %q", filters.ListingType)
	}

	categoryIDs := s.catalog.ResolveNames(filters.Categories)
	q := BuildQuery(filters, keyword, categoryIDs)

	var rows []listingRow
	if err := s.store.Select(ctx, q, &rows); err != nil {
		s.logger.Error("listing browse failed", "query", q.String(), "error", err)
		return nil, err
	}

	listings := make([]domain.Listing, len(rows))
	for i, row := range rows {
		listings[i] = row.toDomain(s.catalog)
	}
	s.logger.Debug("listing browse", "results", len(listings), "keyword", keyword != "")
	return listings, nil
}

// Get fetches one listing by id.
func (s *Service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	var rows []listingRow
	q := backend.From(listingsTable).Where(backend.Eq("id", listingID)).Take(1)
	if err := s.store.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NotFoundf("listing %s not found", listingID)
	}
	l := rows[0].toDomain(s.catalog)
	return &l, nil
}

// Owned lists everything the given user has posted, newest first.
func (s *Service) Owned(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	var rows []listingRow
	q := backend.From(listingsTable).
		Where(backend.Eq("user_id", ownerID)).
		OrderBy("created_at", true)
	if err := s.store.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	listings := make([]domain.Listing, len(rows))
	for i, row := range rows {
		listings[i] = row.toDomain(s.catalog)
	}
	return listings, nil
}

// ListingInput carries the mutable fields of a listing.
type ListingInput struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description,omitempty" validate:"max=10000"`
	Price       int64              `json:"price" validate:"gte=0"`
	Location    string             `json:"location" validate:"required,max=200"`
	ImageURL    string             `json:"image_url,omitempty" validate:"omitempty,url"`
	Type        domain.ListingType `json:"type" validate:"required,oneof=SALE RENT"`
	Category    string             `json:"category" validate:"required"`
	Lat         float64            `json:"lat,omitempty"`
	Lon         float64            `json:"lon,omitempty"`

	Vehicle  *domain.VehicleAttrs  `json:"vehicle,omitempty"`
	Property *domain.PropertyAttrs `json:"property,omitempty"`
	Acreage  *domain.AcreageAttrs  `json:"acreage,omitempty"`
	Extended domain.ExtendedAttrs  `json:"extended,omitzero"`
}

func (s *Service) buildListing(input ListingInput, listingID, ownerID string) (domain.Listing, error) {
	if err := s.validate.Validate(input); err != nil {
		return domain.Listing{}, err
	}
	// Writes never drop an unknown category the way browse does.
	categoryID, err := s.catalog.MustResolveName(input.Category)
	if err != nil {
		return domain.Listing{}, err
	}

	l := domain.Listing{
		ID:          listingID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Location:    input.Location,
		ImageURL:    input.ImageURL,
		Type:        input.Type,
		CategoryID:  categoryID,
		Category:    input.Category,
		Lat:         input.Lat,
		Lon:         input.Lon,
		OwnerID:     ownerID,
		Vehicle:     input.Vehicle,
		Property:    input.Property,
		Acreage:     input.Acreage,
		Extended:    input.Extended,
	}
	l.Normalize()
	return l, nil
}

// Create posts a new listing for ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, input ListingInput) (*domain.Listing, error) {
	l, err := s.buildListing(input, id.MustGenerate(id.PrefixListing), ownerID)
	if err != nil {
		return nil, err
	}

	var stored listingRow
	if err := s.store.Insert(ctx, listingsTable, fromDomain(l), &stored); err != nil {
		s.logger.Error("listing create failed", "owner", ownerID, "error", err)
		return nil, err
	}

	s.logger.Info("listing created", "listing", stored.ID, "category", input.Category)
	created := stored.toDomain(s.catalog)
	return &created, nil
}

// Update replaces the mutable fields of an existing listing. Only the
// owner (or an admin, enforced by the backend's row rules) can update.
func (s *Service) Update(ctx context.Context, listingID, ownerID string, input ListingInput) (*domain.Listing, error) {
	existing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, errors.Forbidden("not the listing owner")
	}

	l, err := s.buildListing(input, listingID, existing.OwnerID)
	if err != nil {
		return nil, err
	}
	l.Featured = existing.Featured
	l.CreatedAt = existing.CreatedAt

	var stored listingRow
	if err := s.store.Upsert(ctx, listingsTable, fromDomain(l), &stored); err != nil {
		s.logger.Error("listing update failed", "listing", listingID, "error", err)
		return nil, err
	}

	updated := stored.toDomain(s.catalog)
	return &updated, nil
}

// SetFeatured flips the boost flag on a listing.
func (s *Service) SetFeatured(ctx context.Context, listingID string, featured bool) error {
	if _, err := s.Get(ctx, listingID); err != nil {
		return err
	}
	err := s.store.Update(ctx, listingsTable,
		map[string]bool{"featured": featured},
		backend.Eq("id", listingID))
	if err != nil {
		return err
	}
	s.logger.Info("listing boost changed", "listing", listingID, "featured", featured)
	return nil
}

// SetImageURL points a listing at its processed photo. Only the owner
// may change it.
func (s *Service) SetImageURL(ctx context.Context, listingID, ownerID, imageURL string) error {
	existing, err := s.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return errors.Forbidden("not the listing owner")
	}
	err = s.store.Update(ctx, listingsTable,
		map[string]string{"image_url": imageURL},
		backend.Eq("id", listingID))
	if err != nil {
		return err
	}
	s.logger.Info("listing photo updated", "listing", listingID)
	return nil
}

// Delete removes a listing. Ownership is checked here and again by the
// backend's row rules.
func (s *Service) Delete(ctx context.Context, listingID, ownerID string) error {
	existing, err := s.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return errors.Forbidden("not the listing owner")
	}
	if err := s.store.Delete(ctx, listingsTable, backend.Eq("id", listingID)); err != nil {
		return err
	}
	s.logger.Info("listing deleted", "listing", listingID)
	return nil
}

// ToggleSaved bookmarks the listing for the user, or removes the bookmark
// if one exists. Returns the resulting saved state.
func (s *Service) ToggleSaved(ctx context.Context, userID, listingID string) (bool, error) {
	filters := []backend.Filter{
		backend.Eq("user_id", userID),
		backend.Eq("listing_id", listingID),
	}

	var existing []domain.SavedListing
	q := backend.From(savedTable).Where(filters...).Take(1)
	if err := s.store.Select(ctx, q, &existing); err != nil {
		return false, err
	}

	if len(existing) > 0 {
		if err := s.store.Delete(ctx, savedTable, filters...); err != nil {
			return false, err
		}
		return false, nil
	}

	saved := domain.SavedListing{UserID: userID, ListingID: listingID}
	if err := s.store.Insert(ctx, savedTable, saved, nil); err != nil {
		return false, err
	}
	return true, nil
}

// SavedIDs returns the ids of the user's bookmarked listings.
func (s *Service) SavedIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []domain.SavedListing
	q := backend.From(savedTable).Where(backend.Eq("user_id", userID))
	if err := s.store.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ListingID
	}
	return ids, nil
}

// Saved hydrates the user's bookmarks into full listings. Bookmarks whose
// listing has since been deleted are skipped, not errors.
func (s *Service) Saved(ctx context.Context, userID string) ([]domain.Listing, error) {
	ids, err := s.SavedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Listing{}, nil
	}

	var rows []listingRow
	q := backend.From(listingsTable).
		Where(backend.In("id", ids)).
		OrderBy("featured", true).
		OrderBy("id", false)
	if err := s.store.Select(ctx, q, &rows); err != nil {
		return nil, err
	}

	listings := make([]domain.Listing, len(rows))
	for i, row := range rows {
		listings[i] = row.toDomain(s.catalog)
	}
	return listings, nil
}
