package listings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"roamstay-backend/internal/application/policies/ownership"
	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/infrastructure/geocoding"
	"roamstay-backend/internal/infrastructure/media"
	"roamstay-backend/internal/pkg/validation"
)

// Service orchestrates the listing lifecycle: validation, media upload,
// geocoding, persistence and the journal, in that order. Adapter calls
// happen only after validation and ownership checks have passed.
type Service struct {
	DB           *gorm.DB
	Geocoder     geocoding.Geocoder
	Media        media.Store
	DefaultImage string
}

// List returns all listings, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Listing, error) {
	var all []domain.Listing
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, domain.Internal(err)
	}
	return all, nil
}

// Get returns one listing with its owner, reviews and review authors.
func (s *Service) Get(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.DB.WithContext(ctx).
		Preload("Owner").
		Preload("Reviews").
		Preload("Reviews.Author").
		Where("listing_id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Listing not found")
		}
		return nil, domain.Internal(err)
	}
	return &listing, nil
}

// GetOwned returns one listing after checking actor owns it. Used by
// the owner-scoped read endpoints (edit form, journal).
func (s *Service) GetOwned(ctx context.Context, actor domain.Identity, listingID uuid.UUID) (*domain.Listing, error) {
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !policies.IsOwner(actor, listing) {
		return nil, domain.Forbidden("You do not own this listing")
	}
	return listing, nil
}

// Create validates the payload, stores the image (falling back to the
// default reference when none is sent), resolves the location to
// coordinates and persists the listing with its created-event in one
// transaction. Nothing is persisted when any step fails; an asset
// uploaded before a failed geocode is destroyed again.
func (s *Service) Create(ctx context.Context, actor domain.Identity, payload validation.ListingPayload, imageData string) (*domain.Listing, error) {
	if fields := validation.Check(payload); fields != nil {
		return nil, domain.ValidationFailed(fields)
	}

	image := domain.ImageRef{URL: s.DefaultImage}
	if imageData != "" {
		ref, err := s.Media.Upload(ctx, imageData, uuid.New().String())
		if err != nil {
			return nil, domain.UploadFailed(err)
		}
		image = ref
	}

	point, err := s.Geocoder.Forward(ctx, payload.Location)
	if err != nil {
		s.destroyAsset(ctx, image.Key)
		return nil, domain.GeocodingFailed(err)
	}

	listing := &domain.Listing{
		Title:       payload.Title,
		Description: payload.Description,
		Image:       image,
		Price:       payload.Price,
		Location:    payload.Location,
		Country:     payload.Country,
		Geometry:    domain.PointGeometry(point),
		OwnerID:     actor.UserID,
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(listing).Error; err != nil {
		tx.Rollback()
		s.destroyAsset(ctx, image.Key)
		return nil, domain.Internal(err)
	}
	if err := recordEvent(tx, listing.ListingID, actor.UserID, domain.ListingEventCreated, map[string]interface{}{
		"title": listing.Title,
		"price": listing.Price,
	}); err != nil {
		tx.Rollback()
		s.destroyAsset(ctx, image.Key)
		return nil, domain.Internal(err)
	}
	if err := tx.Commit().Error; err != nil {
		s.destroyAsset(ctx, image.Key)
		return nil, domain.Internal(err)
	}
	return listing, nil
}

// Update rewrites the client-supplied fields of an owned listing. The
// location is re-geocoded on every update so geometry stays derived
// state; a new image replaces the stored one, which is then destroyed.
func (s *Service) Update(ctx context.Context, actor domain.Identity, listingID uuid.UUID, payload validation.ListingPayload, imageData string) (*domain.Listing, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Listing not found")
		}
		return nil, domain.Internal(err)
	}
	if !policies.IsOwner(actor, &listing) {
		return nil, domain.Forbidden("You do not own this listing")
	}
	if fields := validation.Check(payload); fields != nil {
		return nil, domain.ValidationFailed(fields)
	}

	point, err := s.Geocoder.Forward(ctx, payload.Location)
	if err != nil {
		return nil, domain.GeocodingFailed(err)
	}

	oldImage := listing.Image
	newImage := oldImage
	if imageData != "" {
		ref, err := s.Media.Upload(ctx, imageData, uuid.New().String())
		if err != nil {
			return nil, domain.UploadFailed(err)
		}
		newImage = ref
	}

	listing.Title = payload.Title
	listing.Description = payload.Description
	listing.Price = payload.Price
	listing.Location = payload.Location
	listing.Country = payload.Country
	listing.Geometry = domain.PointGeometry(point)
	listing.Image = newImage

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Save(&listing).Error; err != nil {
		tx.Rollback()
		if imageData != "" {
			s.destroyAsset(ctx, newImage.Key)
		}
		return nil, domain.Internal(err)
	}
	if err := recordEvent(tx, listing.ListingID, actor.UserID, domain.ListingEventUpdated, map[string]interface{}{
		"title": listing.Title,
		"price": listing.Price,
	}); err != nil {
		tx.Rollback()
		if imageData != "" {
			s.destroyAsset(ctx, newImage.Key)
		}
		return nil, domain.Internal(err)
	}
	if err := tx.Commit().Error; err != nil {
		if imageData != "" {
			s.destroyAsset(ctx, newImage.Key)
		}
		return nil, domain.Internal(err)
	}

	// The replaced asset is unreferenced now; removal is best-effort.
	if imageData != "" && oldImage.Key != newImage.Key {
		s.destroyAsset(ctx, oldImage.Key)
	}
	return &listing, nil
}

// Delete removes an owned listing and every review attached to it in
// one transaction, reviews first, so no review ever outlives its
// listing. The deleted-event commits with the cascade.
func (s *Service) Delete(ctx context.Context, actor domain.Identity, listingID uuid.UUID) error {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("Listing not found")
		}
		return domain.Internal(err)
	}
	if !policies.IsOwner(actor, &listing) {
		return domain.Forbidden("You do not own this listing")
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	res := tx.Where("listing_id = ?", listingID).Delete(&domain.Review{})
	if res.Error != nil {
		tx.Rollback()
		return domain.Internal(res.Error)
	}
	if err := tx.Where("listing_id = ?", listingID).Delete(&domain.Listing{}).Error; err != nil {
		tx.Rollback()
		return domain.Internal(err)
	}
	if err := recordEvent(tx, listingID, actor.UserID, domain.ListingEventDeleted, map[string]interface{}{
		"title":           listing.Title,
		"reviews_removed": res.RowsAffected,
	}); err != nil {
		tx.Rollback()
		return domain.Internal(err)
	}
	if err := tx.Commit().Error; err != nil {
		return domain.Internal(err)
	}

	s.destroyAsset(ctx, listing.Image.Key)
	return nil
}

// destroyAsset is best-effort cleanup of a stored image. Failures leave
// an orphaned asset behind, never a broken listing.
func (s *Service) destroyAsset(ctx context.Context, key string) {
	if key == "" || s.Media == nil {
		return
	}
	if err := s.Media.Destroy(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("media: failed to destroy asset")
	}
}

func recordEvent(tx *gorm.DB, listingID, actorID uuid.UUID, eventType string, data map[string]interface{}) error {
	b, _ := json.Marshal(data)
	return tx.Create(&domain.ListingEvent{
		ListingID: listingID,
		EventType: eventType,
		EventData: datatypes.JSON(b),
		ActorID:   actorID,
	}).Error
}
