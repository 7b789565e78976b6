package policies

import (
	"github.com/google/uuid"

	"roamstay-backend/internal/domain"
)

// IsOwner reports whether actor owns the listing. Pure predicate: the
// caller decides what a false answer means (usually 403).
func IsOwner(actor domain.Identity, listing *domain.Listing) bool {
	if listing == nil || actor.UserID == uuid.Nil {
		return false
	}
	return listing.OwnerID == actor.UserID
}

// IsAuthor reports whether actor wrote the review.
func IsAuthor(actor domain.Identity, review *domain.Review) bool {
	if review == nil || actor.UserID == uuid.Nil {
		return false
	}
	return review.AuthorID == actor.UserID
}
