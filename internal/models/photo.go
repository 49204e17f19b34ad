package models

import (
	"time"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

// Photo is a single media attachment owned by exactly one Observation.
type Photo struct {
	PhotoID       int64               `db:"photo_id" json:"photo_id"`
	ObservationID int64               `db:"observation_id" json:"observation_id"`
	Position      int                 `db:"position" json:"position"`
	URLSquare     *string             `db:"url_square" json:"url_square,omitempty"`
	URLLarge      *string             `db:"url_large" json:"url_large,omitempty"`
	URLOriginal   *string             `db:"url_original" json:"url_original,omitempty"`
	LicenseCode   *string             `db:"license_code" json:"license_code,omitempty"`
	Attribution   *string             `db:"attribution" json:"attribution,omitempty"`
	Raw           database.JSONB[any] `db:"raw" json:"raw"`
	FirstSeenAt   time.Time           `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt    time.Time           `db:"last_seen_at" json:"last_seen_at"`
}

func (Photo) TableName() string {
	return "photos"
}

// BestURL returns the first non-null URL variant in large, original, square
// preference order, or "" if the photo has no usable URL at all.
func (p Photo) BestURL() string {
	if p.URLLarge != nil && *p.URLLarge != "" {
		return *p.URLLarge
	}
	if p.URLOriginal != nil && *p.URLOriginal != "" {
		return *p.URLOriginal
	}
	if p.URLSquare != nil && *p.URLSquare != "" {
		return *p.URLSquare
	}
	return ""
}
