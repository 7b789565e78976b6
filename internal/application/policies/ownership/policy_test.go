package policies

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"roamstay-backend/internal/domain"
)

func TestIsOwner(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	listing := &domain.Listing{ListingID: uuid.New(), OwnerID: owner}

	assert.True(t, IsOwner(domain.Identity{UserID: owner}, listing))
	assert.False(t, IsOwner(domain.Identity{UserID: other}, listing))
	assert.False(t, IsOwner(domain.Identity{}, listing))
	assert.False(t, IsOwner(domain.Identity{UserID: owner}, nil))
}

func TestIsAuthor(t *testing.T) {
	author := uuid.New()
	other := uuid.New()
	review := &domain.Review{ReviewID: uuid.New(), AuthorID: author}

	assert.True(t, IsAuthor(domain.Identity{UserID: author}, review))
	assert.False(t, IsAuthor(domain.Identity{UserID: other}, review))
	assert.False(t, IsAuthor(domain.Identity{}, review))
	assert.False(t, IsAuthor(domain.Identity{UserID: author}, nil))
}
