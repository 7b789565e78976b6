package reviews

import (
	revsvc "roamstay-backend/internal/application/reviews"
	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/middleware"
	"roamstay-backend/internal/pkg/response"
	"roamstay-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *revsvc.Service
}

// Create POST /listings/:id/reviews — any signed-in user may review.
func (h *Handlers) Create(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := paramID(c, "id", "Listing not found")
	if err != nil {
		return err
	}

	var payload validation.ReviewPayload
	if err := c.BodyParser(&payload); err != nil {
		return domain.ValidationFailed([]domain.FieldViolation{
			{Field: "body", Message: "must be valid JSON or form data"},
		})
	}

	review, err := h.Service.Create(c.Context(), identity, listingID, payload)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Review added successfully", fiber.Map{"review": review}, nil)
}

// Delete DELETE /listings/:id/reviews/:reviewId — author only.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := paramID(c, "id", "Listing not found")
	if err != nil {
		return err
	}
	reviewID, err := paramID(c, "reviewId", "Review not found")
	if err != nil {
		return err
	}

	if err := h.Service.Delete(c.Context(), identity, listingID, reviewID); err != nil {
		return err
	}
	return response.Success(c, "Review deleted successfully", fiber.Map{"review_id": reviewID}, nil)
}

func actor(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return domain.Identity{}, domain.Unauthenticated("You must be logged in")
	}
	return identity, nil
}

func paramID(c *fiber.Ctx, name, missing string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.NotFound(missing)
	}
	return id, nil
}
