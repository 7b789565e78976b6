package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Point is a geographic coordinate pair as returned by the geocoder.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Geometry is a GeoJSON Point stored in a jsonb column. It is derived
// server-side from the listing's location text and never trusted from
// client input; a persisted listing always carries a valid one.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
}

// PointGeometry builds the canonical GeoJSON Point for a coordinate pair.
func PointGeometry(p Point) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{p.Longitude, p.Latitude}}
}

// IsValid reports whether the geometry is a well-formed Point.
func (g Geometry) IsValid() bool {
	return g.Type == "Point" && len(g.Coordinates) == 2
}

// Scan implements sql.Scanner for reading from the DB (jsonb column).
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		*g = Geometry{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return errors.New("unsupported type for Geometry")
	}
}

// Value implements driver.Valuer for writing to the DB.
func (g Geometry) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// ImageRef is the durable reference returned by the media store.
type ImageRef struct {
	URL string `gorm:"column:image_url;not null" json:"url"`
	Key string `gorm:"column:image_key" json:"key"`
}

// Listing is a rentable property record. Owner is immutable after create;
// geometry is recomputed from Location on every write that touches it.
type Listing struct {
	ListingID   uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Image       ImageRef  `gorm:"embedded" json:"image"`
	Price       float64   `gorm:"column:price;not null;check:price >= 0" json:"price"`
	Location    string    `gorm:"column:location;not null" json:"location"`
	Country     string    `gorm:"column:country;not null" json:"country"`
	Geometry    Geometry  `gorm:"column:geometry;type:jsonb;not null" json:"geometry"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;references:UserID" json:"owner,omitempty"`
	Reviews     []Review  `gorm:"foreignKey:ListingID;references:ListingID" json:"reviews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}
