package router

import (
	"net/http"

	authsvc "roamstay-backend/internal/application/auth"
	healthsvc "roamstay-backend/internal/application/health"
	eventsvc "roamstay-backend/internal/application/listingevents"
	listsvc "roamstay-backend/internal/application/listings"
	revsvc "roamstay-backend/internal/application/reviews"
	"roamstay-backend/internal/config"
	"roamstay-backend/internal/infrastructure/database"
	"roamstay-backend/internal/infrastructure/geocoding"
	"roamstay-backend/internal/infrastructure/media"
	authhandler "roamstay-backend/internal/interfaces/handlers/auth"
	healthhandler "roamstay-backend/internal/interfaces/handlers/health"
	listhandler "roamstay-backend/internal/interfaces/handlers/listings"
	revhandler "roamstay-backend/internal/interfaces/handlers/reviews"
	"roamstay-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires middleware, adapters, services, and routes. The app
// still boots without a database so the health surface stays up; domain
// routes are only mounted once the database is open.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	probes := healthsvc.ExternalProbes{GeocoderURL: cfg.GeocoderURL}
	if cfg.MediaCloudName != "" {
		probes.MediaURL = "https://api.cloudinary.com/v1_1/" + cfg.MediaCloudName
	}
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
		Probes:         probes,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db != nil && rdb != nil {
		geocoder := &geocoding.HTTPClient{
			BaseURL: cfg.GeocoderURL,
			Token:   cfg.GeocoderToken,
			Client:  &http.Client{Timeout: cfg.GeocoderTimeout},
		}
		mediaStore := &media.HTTPClient{
			CloudName: cfg.MediaCloudName,
			APIKey:    cfg.MediaAPIKey,
			APISecret: cfg.MediaAPISecret,
			Folder:    cfg.MediaFolder,
			Client:    &http.Client{Timeout: cfg.MediaTimeout},
		}

		requireAuth := middleware.RequireAuth(sessionCfg)

		// Identity
		as := &authsvc.Service{DB: db, Verifier: &authsvc.LocalVerifier{DB: db}}
		ah := &authhandler.Handlers{Auth: as, Rdb: rdb, Config: sessionCfg}
		app.Get("/signup", ah.SignupForm)
		app.Post("/signup", ah.Signup)
		app.Get("/login", ah.LoginForm)
		app.Post("/login", ah.Login)
		app.Get("/logout", requireAuth, ah.Logout)
		app.Get("/me", ah.Me)

		// Listings
		ls := &listsvc.Service{DB: db, Geocoder: geocoder, Media: mediaStore, DefaultImage: cfg.DefaultImageURL}
		lh := &listhandler.Handlers{Service: ls, Events: &eventsvc.Service{DB: db}}
		app.Get("/listings", lh.List)
		app.Get("/listings/new", requireAuth, lh.New)
		app.Post("/listings", requireAuth, lh.Create)
		app.Get("/listings/:id", lh.Get)
		app.Get("/listings/:id/edit", requireAuth, lh.Edit)
		app.Put("/listings/:id", requireAuth, lh.Update)
		app.Delete("/listings/:id", requireAuth, lh.Delete)
		app.Get("/listings/:id/events", requireAuth, lh.EventsForListing)

		// Reviews
		rh := &revhandler.Handlers{Service: &revsvc.Service{DB: db}}
		app.Post("/listings/:id/reviews", requireAuth, rh.Create)
		app.Delete("/listings/:id/reviews/:reviewId", requireAuth, rh.Delete)
	}

	return app, db, rdb, nil
}

// Handler adapts the Fiber app for net/http serving environments.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
