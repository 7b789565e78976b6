package listingevents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"roamstay-backend/internal/domain"
)

// Service reads the listing journal. Events are appended by the listing
// service inside the transaction of the write they describe.
type Service struct {
	DB *gorm.DB
}

// ForListing returns the journal for one listing, oldest first. The
// journal outlives the listing, so this works for deleted listings too.
func (s *Service) ForListing(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	if listingID == uuid.Nil {
		return nil, domain.NotFound("Listing not found")
	}
	var events []domain.ListingEvent
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, domain.Internal(err)
	}
	return events, nil
}
