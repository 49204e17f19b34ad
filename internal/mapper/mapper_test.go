package mapper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylenessen/monarch-phenology-go/internal/mapper"
)

func TestMapObservation_ExtractsTypedFields(t *testing.T) {
	raw := map[string]any{
		"id":               float64(123),
		"quality_grade":    "research",
		"captive":          false,
		"license_code":     "CC-BY-NC",
		"time_observed_at": "2026-03-01T12:30:00Z",
		"observed_on":      "2026-03-01",
		"created_at":       "2026-02-28T09:00:00+00:00",
		"updated_at":       "2026-03-02T00:00:00Z",
		"location":         "34.42,-119.70",
		"positional_accuracy": float64(15),
		"place_guess":      "Pismo Beach, CA",
		"description":      "Monarchs clustering on eucalyptus",
		"taxon":            map[string]any{"id": float64(48662), "name": "Danaus plexippus", "preferred_common_name": "Monarch"},
		"user":             map[string]any{"login": "observer42"},
	}

	obs, err := mapper.MapObservation(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(123), obs.ObservationID)
	require.NotNil(t, obs.TaxonID)
	assert.Equal(t, int64(48662), *obs.TaxonID)
	require.NotNil(t, obs.ScientificName)
	assert.Equal(t, "Danaus plexippus", *obs.ScientificName)
	require.NotNil(t, obs.CommonName)
	assert.Equal(t, "Monarch", *obs.CommonName)
	require.NotNil(t, obs.QualityGrade)
	assert.Equal(t, "research", *obs.QualityGrade)
	assert.False(t, obs.Captive)
	require.NotNil(t, obs.User)
	assert.Equal(t, "observer42", *obs.User)
	require.NotNil(t, obs.Notes)
	assert.Equal(t, "Monarchs clustering on eucalyptus", *obs.Notes)
	require.NotNil(t, obs.ObservedAt)
	assert.Equal(t, 2026, obs.ObservedAt.Year())
	require.NotNil(t, obs.ObservedOnDate)
	require.NotNil(t, obs.Latitude)
	require.NotNil(t, obs.Longitude)
	assert.InDelta(t, 34.42, *obs.Latitude, 0.0001)
	assert.InDelta(t, -119.70, *obs.Longitude, 0.0001)
}

func TestMapObservation_MissingIDIsAnError(t *testing.T) {
	_, err := mapper.MapObservation(map[string]any{"quality_grade": "research"})
	require.Error(t, err)
}

func TestMapObservation_MalformedLocationLeavesLatLonNil(t *testing.T) {
	raw := map[string]any{"id": float64(1), "location": "not-a-latlon"}
	obs, err := mapper.MapObservation(raw)
	require.NoError(t, err)
	assert.Nil(t, obs.Latitude)
	assert.Nil(t, obs.Longitude)
}

func TestMapPhoto_DerivesLargeURLFromSquare(t *testing.T) {
	raw := map[string]any{
		"id":           float64(555),
		"url":          "https://static.inaturalist.org/photos/1/square.jpg",
		"license_code": "CC-BY",
		"attribution":  "(c) observer42",
	}

	photo, err := mapper.MapPhoto(123, raw, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(555), photo.PhotoID)
	assert.Equal(t, int64(123), photo.ObservationID)
	assert.Equal(t, 0, photo.Position)
	require.NotNil(t, photo.URLLarge)
	assert.Equal(t, "https://static.inaturalist.org/photos/1/large.jpg", *photo.URLLarge)
	require.NotNil(t, photo.URLOriginal)
	assert.Equal(t, "https://static.inaturalist.org/photos/1/original.jpeg", *photo.URLOriginal)
}

func TestMapPhoto_PrefersExplicitOriginalURL(t *testing.T) {
	raw := map[string]any{
		"id":            float64(1),
		"url":           "https://static.inaturalist.org/photos/1/square.jpg",
		"original_url":  "https://static.inaturalist.org/photos/1/original.jpg",
	}

	photo, err := mapper.MapPhoto(1, raw, 0)
	require.NoError(t, err)
	require.NotNil(t, photo.URLOriginal)
	assert.Equal(t, "https://static.inaturalist.org/photos/1/original.jpg", *photo.URLOriginal)
}

func TestMapPhoto_MissingIDIsAnError(t *testing.T) {
	_, err := mapper.MapPhoto(1, map[string]any{"url": "https://example.com/square.jpg"}, 0)
	require.Error(t, err)
}

func TestDeriveLargeURL_NilWhenNoSquareSegment(t *testing.T) {
	url := "https://static.inaturalist.org/photos/1/medium.jpg"
	assert.Nil(t, mapper.DeriveLargeURL(&url))
	assert.Nil(t, mapper.DeriveLargeURL(nil))
}

func TestDeriveOriginalURL_NilWhenNoSquareJpgSegment(t *testing.T) {
	url := "https://static.inaturalist.org/photos/1/square.png"
	assert.Nil(t, mapper.DeriveOriginalURL(&url))
	assert.Nil(t, mapper.DeriveOriginalURL(nil))
}
