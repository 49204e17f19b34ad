package models

import (
	"time"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

// Observation is a single citizen-science sighting of the target taxon,
// keyed by the remote-assigned observation id.
type Observation struct {
	ObservationID    int64                       `db:"observation_id" json:"observation_id"`
	TaxonID          *int64                      `db:"taxon_id" json:"taxon_id,omitempty"`
	ScientificName   *string                     `db:"scientific_name" json:"scientific_name,omitempty"`
	CommonName       *string                     `db:"common_name" json:"common_name,omitempty"`
	QualityGrade     *string                     `db:"quality_grade" json:"quality_grade,omitempty"`
	Captive          bool                        `db:"captive" json:"captive"`
	LicenseCode      *string                     `db:"license_code" json:"license_code,omitempty"`
	ObservedAt       *time.Time                  `db:"observed_at" json:"observed_at,omitempty"`
	ObservedOnDate   *time.Time                  `db:"observed_on_date" json:"observed_on_date,omitempty"`
	CreatedAtRemote  *time.Time                  `db:"created_at_remote" json:"created_at_remote,omitempty"`
	UpdatedAtRemote  *time.Time                  `db:"updated_at_remote" json:"updated_at_remote,omitempty"`
	Latitude         *float64                    `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64                    `db:"longitude" json:"longitude,omitempty"`
	PositionAccuracy *float64                    `db:"positional_accuracy" json:"positional_accuracy,omitempty"`
	PlaceGuess       *string                     `db:"place_guess" json:"place_guess,omitempty"`
	User             *string                     `db:"observer_login" json:"observer_login,omitempty"`
	Notes            *string                     `db:"notes" json:"notes,omitempty"`
	Raw              database.JSONB[any]         `db:"raw" json:"raw"`
	FirstSeenAt      time.Time                   `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt       time.Time                   `db:"last_seen_at" json:"last_seen_at"`
}

func (Observation) TableName() string {
	return "observations"
}
