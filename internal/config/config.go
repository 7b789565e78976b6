package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	GeocoderURL         string // forward-geocoding endpoint base, e.g. https://api.mapbox.com/geocoding/v5/mapbox.places
	GeocoderToken       string
	GeocoderTimeout     time.Duration
	MediaCloudName      string // Cloudinary cloud name for listing images
	MediaAPIKey         string
	MediaAPISecret      string
	MediaFolder         string
	MediaTimeout        time.Duration
	DefaultImageURL     string // shown for listings created without an upload
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("NODE_ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		GeocoderURL:         geocoderURL(viper.GetString("GEOCODER_URL")),
		GeocoderToken:       viper.GetString("GEOCODER_TOKEN"),
		GeocoderTimeout:     timeoutMS("GEOCODER_TIMEOUT_MS", 5*time.Second),
		MediaCloudName:      viper.GetString("MEDIA_CLOUD_NAME"),
		MediaAPIKey:         viper.GetString("MEDIA_API_KEY"),
		MediaAPISecret:      viper.GetString("MEDIA_API_SECRET"),
		MediaFolder:         mediaFolder(viper.GetString("MEDIA_FOLDER")),
		MediaTimeout:        timeoutMS("MEDIA_TIMEOUT_MS", 10*time.Second),
		DefaultImageURL:     defaultImageURL(viper.GetString("DEFAULT_IMAGE_URL")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func geocoderURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://api.mapbox.com/geocoding/v5/mapbox.places"
	}
	return strings.TrimRight(s, "/")
}

func mediaFolder(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "roamstay"
	}
	return s
}

func defaultImageURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://images.unsplash.com/photo-1625505826533-5c80aca7d157"
	}
	return s
}

func timeoutMS(key string, fallback time.Duration) time.Duration {
	ms := viper.GetInt(key)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
