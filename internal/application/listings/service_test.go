package listings

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/pkg/validation"
)

type fakeGeocoder struct {
	point domain.Point
	err   error
	calls []string
}

func (f *fakeGeocoder) Forward(ctx context.Context, query string) (domain.Point, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return domain.Point{}, f.err
	}
	return f.point, nil
}

type fakeStore struct {
	uploads   []string
	destroyed []string
	uploadErr error
}

func (f *fakeStore) Upload(ctx context.Context, imageData, publicID string) (domain.ImageRef, error) {
	if f.uploadErr != nil {
		return domain.ImageRef{}, f.uploadErr
	}
	f.uploads = append(f.uploads, publicID)
	return domain.ImageRef{URL: "https://media.test/" + publicID + ".jpg", Key: "stays/" + publicID}, nil
}

func (f *fakeStore) Destroy(ctx context.Context, key string) error {
	f.destroyed = append(f.destroyed, key)
	return nil
}

func setupListingsTest(t *testing.T) (*Service, *fakeGeocoder, *fakeStore, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Listing{}, &domain.Review{}, &domain.ListingEvent{}))
	geo := &fakeGeocoder{point: domain.Point{Longitude: 2.35, Latitude: 48.85}}
	store := &fakeStore{}
	svc := &Service{DB: db, Geocoder: geo, Media: store, DefaultImage: "https://img.test/default.jpg"}
	return svc, geo, store, db
}

func mkUser(t *testing.T, db *gorm.DB, username string) domain.Identity {
	u := &domain.User{Username: username, Email: username + "@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return domain.IdentityOf(u)
}

func parisPayload() validation.ListingPayload {
	return validation.ListingPayload{
		Title:       "Canal-side loft",
		Description: "Quiet top-floor flat near the canal.",
		Price:       180,
		Location:    "Paris, France",
		Country:     "France",
	}
}

func TestCreate_PersistsGeometryFromGeocoder(t *testing.T) {
	svc, geo, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")

	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris, France"}, geo.calls)
	assert.Equal(t, "Point", listing.Geometry.Type)
	assert.Equal(t, []float64{2.35, 48.85}, listing.Geometry.Coordinates)

	stored, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.35, 48.85}, stored.Geometry.Coordinates)
	assert.Equal(t, owner.UserID, stored.OwnerID)
}

func TestCreate_WithoutImageUsesDefaultReference(t *testing.T) {
	svc, _, store, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")

	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/default.jpg", listing.Image.URL)
	assert.Empty(t, listing.Image.Key)
	assert.Empty(t, store.uploads)
}

func TestCreate_WithImageStoresUploadedReference(t *testing.T) {
	svc, _, store, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")

	listing, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, store.uploads, 1)
	assert.Equal(t, "https://media.test/"+store.uploads[0]+".jpg", listing.Image.URL)
	assert.Equal(t, "stays/"+store.uploads[0], listing.Image.Key)
}

func TestCreate_InvalidPayloadNeverCallsAdapters(t *testing.T) {
	svc, geo, store, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")

	payload := parisPayload()
	payload.Price = -1
	_, err := svc.Create(context.Background(), owner, payload, "data:image/png;base64,aGVsbG8=")
	require.Error(t, err)
	derr := domain.Wrap(err)
	assert.Equal(t, domain.KindValidationFailed, derr.Kind)
	require.Len(t, derr.Fields, 1)
	assert.Equal(t, "price", derr.Fields[0].Field)

	assert.Empty(t, geo.calls)
	assert.Empty(t, store.uploads)
	var count int64
	db.Model(&domain.Listing{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreate_ZeroPriceSucceeds(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")

	payload := parisPayload()
	payload.Price = 0
	_, err := svc.Create(context.Background(), owner, payload, "")
	require.NoError(t, err)
}

func TestCreate_GeocodeFailureDestroysUploadedAsset(t *testing.T) {
	svc, geo, store, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	geo.err = errors.New("no match for query")

	_, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.Error(t, err)
	assert.Equal(t, domain.KindGeocodingFailed, domain.KindOf(err))

	require.Len(t, store.uploads, 1)
	assert.Equal(t, []string{"stays/" + store.uploads[0]}, store.destroyed)
	var count int64
	db.Model(&domain.Listing{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreate_UploadFailurePersistsNothing(t *testing.T) {
	svc, geo, store, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	store.uploadErr = errors.New("provider says no")

	_, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.Error(t, err)
	assert.Equal(t, domain.KindUploadFailed, domain.KindOf(err))
	assert.Empty(t, geo.calls)

	var count int64
	db.Model(&domain.Listing{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreate_RecordsCreatedEvent(t *testing.T) {
	svc, _, _, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")

	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)

	var events []domain.ListingEvent
	require.NoError(t, db.Where("listing_id = ?", listing.ListingID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ListingEventCreated, events[0].EventType)
	assert.Equal(t, owner.UserID, events[0].ActorID)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestGet_IsIdempotent(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGet_PopulatesReviewsAndAuthors(t *testing.T) {
	svc, _, _, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	guest := mkUser(t, db, "ben")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Review{
		Comment: "Great location", Rating: 5, AuthorID: guest.UserID, ListingID: listing.ListingID,
	}).Error)

	got, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "ana", got.Owner.Username)
	require.Len(t, got.Reviews, 1)
	require.NotNil(t, got.Reviews[0].Author)
	assert.Equal(t, "ben", got.Reviews[0].Author.Username)
}

func TestList_ReturnsAllListings(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	for _, title := range []string{"First stay", "Second stay"} {
		payload := parisPayload()
		payload.Title = title
		_, err := svc.Create(context.Background(), owner, payload, "")
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate_NonOwnerForbiddenAndUnchanged(t *testing.T) {
	svc, geo, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	intruder := mkUser(t, svc.DB, "ben")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)
	geocodeCallsBefore := len(geo.calls)

	payload := parisPayload()
	payload.Title = "Hijacked"
	_, err = svc.Update(context.Background(), intruder, listing.ListingID, payload, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	assert.Len(t, geo.calls, geocodeCallsBefore)

	stored, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, "Canal-side loft", stored.Title)
}

func TestUpdate_ReGeocodesEvenWhenLocationUnchanged(t *testing.T) {
	svc, geo, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)

	geo.point = domain.Point{Longitude: 2.36, Latitude: 48.86}
	updated, err := svc.Update(context.Background(), owner, listing.ListingID, parisPayload(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris, France", "Paris, France"}, geo.calls)
	assert.Equal(t, []float64{2.36, 48.86}, updated.Geometry.Coordinates)
}

func TestUpdate_NewImageReplacesAndDestroysOld(t *testing.T) {
	svc, _, store, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	oldKey := listing.Image.Key

	updated, err := svc.Update(context.Background(), owner, listing.ListingID, parisPayload(), "data:image/png;base64,d29ybGQ=")
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, updated.Image.Key)
	assert.Contains(t, store.destroyed, oldKey)
}

func TestUpdate_WithoutImageKeepsExistingReference(t *testing.T) {
	svc, _, store, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, listing.ListingID, parisPayload(), "")
	require.NoError(t, err)
	assert.Equal(t, listing.Image, updated.Image)
	assert.Empty(t, store.destroyed)
}

func TestUpdate_MissingListingNotFound(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	_, err := svc.Update(context.Background(), owner, uuid.New(), parisPayload(), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUpdate_GeocodeFailurePersistsNothing(t *testing.T) {
	svc, geo, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)

	geo.err = errors.New("provider down")
	payload := parisPayload()
	payload.Title = "Should not stick"
	_, err = svc.Update(context.Background(), owner, listing.ListingID, payload, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindGeocodingFailed, domain.KindOf(err))

	stored, err := svc.Get(context.Background(), listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, "Canal-side loft", stored.Title)
}

func TestDelete_CascadesReviewsInOneOperation(t *testing.T) {
	svc, _, _, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	guest := mkUser(t, db, "ben")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&domain.Review{
			Comment: "Nice", Rating: 4, AuthorID: guest.UserID, ListingID: listing.ListingID,
		}).Error)
	}

	require.NoError(t, svc.Delete(context.Background(), owner, listing.ListingID))

	var reviewCount int64
	db.Model(&domain.Review{}).Where("listing_id = ?", listing.ListingID).Count(&reviewCount)
	assert.Zero(t, reviewCount)

	_, err = svc.Get(context.Background(), listing.ListingID)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestDelete_DestroysStoredAssetAndRecordsEvent(t *testing.T) {
	svc, _, store, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), owner, listing.ListingID))
	assert.Contains(t, store.destroyed, listing.Image.Key)

	var events []domain.ListingEvent
	require.NoError(t, db.Where("listing_id = ? AND event_type = ?", listing.ListingID, domain.ListingEventDeleted).Find(&events).Error)
	require.Len(t, events, 1)
}

func TestDelete_NonOwnerForbiddenKeepsEverything(t *testing.T) {
	svc, _, _, db := setupListingsTest(t)
	owner := mkUser(t, db, "ana")
	intruder := mkUser(t, db, "ben")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Review{
		Comment: "Nice", Rating: 4, AuthorID: intruder.UserID, ListingID: listing.ListingID,
	}).Error)

	err = svc.Delete(context.Background(), intruder, listing.ListingID)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	var listingCount, reviewCount int64
	db.Model(&domain.Listing{}).Count(&listingCount)
	db.Model(&domain.Review{}).Count(&reviewCount)
	assert.EqualValues(t, 1, listingCount)
	assert.EqualValues(t, 1, reviewCount)
}

func TestGetOwned_NonOwnerForbidden(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	owner := mkUser(t, svc.DB, "ana")
	intruder := mkUser(t, svc.DB, "ben")
	listing, err := svc.Create(context.Background(), owner, parisPayload(), "")
	require.NoError(t, err)

	_, err = svc.GetOwned(context.Background(), owner, listing.ListingID)
	require.NoError(t, err)

	_, err = svc.GetOwned(context.Background(), intruder, listing.ListingID)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestOwnerLifecycleScenario(t *testing.T) {
	svc, _, _, _ := setupListingsTest(t)
	ownerA := mkUser(t, svc.DB, "ana")
	userB := mkUser(t, svc.DB, "ben")

	listing, err := svc.Create(context.Background(), ownerA, parisPayload(), "")
	require.NoError(t, err)
	assert.True(t, listing.Geometry.IsValid())

	payload := parisPayload()
	payload.Title = "Taken over"
	_, err = svc.Update(context.Background(), userB, listing.ListingID, payload, "")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	require.NoError(t, svc.Delete(context.Background(), ownerA, listing.ListingID))

	_, err = svc.Get(context.Background(), listing.ListingID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
