package listings

import (
	"encoding/base64"
	"io"
	"strings"

	eventsvc "roamstay-backend/internal/application/listingevents"
	listsvc "roamstay-backend/internal/application/listings"
	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/middleware"
	"roamstay-backend/internal/pkg/response"
	"roamstay-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *listsvc.Service
	Events  *eventsvc.Service
}

// listingBody accepts either a JSON document or a multipart form. A
// multipart "image" file wins over the inline base64 string.
type listingBody struct {
	validation.ListingPayload
	Image string `json:"image" form:"image"`
}

// List GET /listings — public.
func (h *Handlers) List(c *fiber.Ctx) error {
	items, err := h.Service.List(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, "Listings fetched successfully", fiber.Map{"listings": items}, nil)
}

// New GET /listings/new — the field schema for the create form.
func (h *Handlers) New(c *fiber.Ctx) error {
	return response.Success(c, "New listing form", fiber.Map{
		"fields": validation.Describe(validation.ListingPayload{}),
	}, nil)
}

// Create POST /listings — geocodes the location and stores the optional image.
func (h *Handlers) Create(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	payload, imageData, err := parseListingBody(c)
	if err != nil {
		return err
	}

	listing, err := h.Service.Create(c.Context(), identity, payload, imageData)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Listing created successfully", fiber.Map{"listing": listing}, nil)
}

// Get GET /listings/:id — public, includes owner and reviews with authors.
func (h *Handlers) Get(c *fiber.Ctx) error {
	listingID, err := listingParam(c)
	if err != nil {
		return err
	}
	listing, err := h.Service.Get(c.Context(), listingID)
	if err != nil {
		return err
	}
	return response.Success(c, "Listing fetched successfully", fiber.Map{"listing": listing}, nil)
}

// Edit GET /listings/:id/edit — owner only; current values plus the form schema.
func (h *Handlers) Edit(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := listingParam(c)
	if err != nil {
		return err
	}
	listing, err := h.Service.GetOwned(c.Context(), identity, listingID)
	if err != nil {
		return err
	}
	return response.Success(c, "Edit listing form", fiber.Map{
		"listing": listing,
		"fields":  validation.Describe(validation.ListingPayload{}),
	}, nil)
}

// Update PUT /listings/:id — owner only; re-geocodes, swaps the image when a new one arrives.
func (h *Handlers) Update(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := listingParam(c)
	if err != nil {
		return err
	}
	payload, imageData, err := parseListingBody(c)
	if err != nil {
		return err
	}

	listing, err := h.Service.Update(c.Context(), identity, listingID, payload, imageData)
	if err != nil {
		return err
	}
	return response.Success(c, "Listing updated successfully", fiber.Map{"listing": listing}, nil)
}

// Delete DELETE /listings/:id — owner only; removes the listing and its reviews.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := listingParam(c)
	if err != nil {
		return err
	}
	if err := h.Service.Delete(c.Context(), identity, listingID); err != nil {
		return err
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"listing_id": listingID}, nil)
}

// EventsForListing GET /listings/:id/events — owner only; lifecycle journal.
func (h *Handlers) EventsForListing(c *fiber.Ctx) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	listingID, err := listingParam(c)
	if err != nil {
		return err
	}
	// Owner gate: events expose pricing history.
	if _, err := h.Service.GetOwned(c.Context(), identity, listingID); err != nil {
		return err
	}
	events, err := h.Events.ForListing(c.Context(), listingID)
	if err != nil {
		return err
	}
	return response.Success(c, "Listing events fetched successfully", fiber.Map{"events": events}, nil)
}

// --- helpers ---

func actor(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return domain.Identity{}, domain.Unauthenticated("You must be logged in")
	}
	return identity, nil
}

// listingParam parses :id. A malformed id addresses nothing, so it reads
// the same as an absent listing.
func listingParam(c *fiber.Ctx) (uuid.UUID, error) {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.NotFound("Listing not found")
	}
	return listingID, nil
}

// parseListingBody decodes the payload from JSON or a multipart form and
// returns the image as base64 when one was sent.
func parseListingBody(c *fiber.Ctx) (validation.ListingPayload, string, error) {
	var body listingBody
	if err := c.BodyParser(&body); err != nil {
		return validation.ListingPayload{}, "", domain.ValidationFailed([]domain.FieldViolation{
			{Field: "body", Message: "must be valid JSON or form data"},
		})
	}

	imageData := body.Image
	if strings.Contains(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		if fh, err := c.FormFile("image"); err == nil && fh != nil {
			f, err := fh.Open()
			if err != nil {
				return validation.ListingPayload{}, "", domain.UploadFailed(err)
			}
			defer f.Close()
			raw, err := io.ReadAll(f)
			if err != nil {
				return validation.ListingPayload{}, "", domain.UploadFailed(err)
			}
			imageData = base64.StdEncoding.EncodeToString(raw)
		}
	}
	return body.ListingPayload, imageData, nil
}
