package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"roamstay-backend/internal/application/policies/ownership"
	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/pkg/validation"
)

// Service orchestrates reviews under their parent listing. Membership
// is the review's listing_id column, so insert and delete each carry
// the listing↔review relationship in a single row write.
type Service struct {
	DB *gorm.DB
}

// Create validates the payload and inserts the review with its author
// and parent listing. The existence check and the insert share one
// transaction so the review cannot land on a listing that a concurrent
// cascade has already removed.
func (s *Service) Create(ctx context.Context, actor domain.Identity, listingID uuid.UUID, payload validation.ReviewPayload) (*domain.Review, error) {
	if fields := validation.Check(payload); fields != nil {
		return nil, domain.ValidationFailed(fields)
	}

	review := &domain.Review{
		Comment:   payload.Comment,
		Rating:    payload.Rating,
		AuthorID:  actor.UserID,
		ListingID: listingID,
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	var listing domain.Listing
	if err := tx.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Listing not found")
		}
		return nil, domain.Internal(err)
	}
	if err := tx.Create(review).Error; err != nil {
		tx.Rollback()
		return nil, domain.Internal(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, domain.Internal(err)
	}
	return review, nil
}

// Delete removes a review written by actor. The review must live under
// the listing named in the path; a mismatched pair addresses a resource
// that does not exist, regardless of who asks.
func (s *Service) Delete(ctx context.Context, actor domain.Identity, listingID, reviewID uuid.UUID) error {
	var review domain.Review
	if err := s.DB.WithContext(ctx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("Review not found")
		}
		return domain.Internal(err)
	}
	if review.ListingID != listingID {
		return domain.NotFound("Review not found")
	}
	if !policies.IsAuthor(actor, &review) {
		return domain.Forbidden("You did not write this review")
	}

	if err := s.DB.WithContext(ctx).Where("review_id = ?", reviewID).Delete(&domain.Review{}).Error; err != nil {
		return domain.Internal(err)
	}
	return nil
}
