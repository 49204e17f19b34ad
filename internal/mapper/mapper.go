// Package mapper translates raw remote observation/photo JSON into the
// typed fields the persistence layer stores. It is pure and side-effect
// free: every function here takes a value and returns a value.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

// MapObservation extracts the typed fields enumerated in §3 of the
// observation's data model from a raw remote JSON object.
func MapObservation(raw map[string]any) (*models.Observation, error) {
	id, ok := asInt64(raw["id"])
	if !ok {
		return nil, fmt.Errorf("mapper: observation missing integer id")
	}

	taxon, _ := raw["taxon"].(map[string]any)
	user, _ := raw["user"].(map[string]any)

	obs := &models.Observation{
		ObservationID:   id,
		TaxonID:         ptrInt64(taxon["id"]),
		ScientificName:  ptrString(taxon["name"]),
		CommonName:      ptrString(taxon["preferred_common_name"]),
		QualityGrade:    ptrString(raw["quality_grade"]),
		Captive:         asBool(raw["captive"]),
		LicenseCode:     ptrString(raw["license_code"]),
		PositionAccuracy: ptrFloat64(raw["positional_accuracy"]),
		PlaceGuess:      ptrString(raw["place_guess"]),
		User:            ptrString(user["login"]),
		Notes:           ptrString(raw["description"]),
		Raw:             database.JSONB[any]{Data: raw},
	}

	if ts, ok := raw["time_observed_at"].(string); ok {
		obs.ObservedAt = parseISOTimestamp(ts)
	}
	if d, ok := raw["observed_on"].(string); ok {
		obs.ObservedOnDate = parseDate(d)
	}
	if ts, ok := raw["created_at"].(string); ok {
		obs.CreatedAtRemote = parseISOTimestamp(ts)
	}
	if ts, ok := raw["updated_at"].(string); ok {
		obs.UpdatedAtRemote = parseISOTimestamp(ts)
	}

	if loc, ok := raw["location"].(string); ok {
		if lat, lon, ok := parseLatLon(loc); ok {
			obs.Latitude = &lat
			obs.Longitude = &lon
		}
	}

	return obs, nil
}

// MapPhoto extracts the typed fields of a single photo attached to
// observationID, at ordinal position, from a raw remote JSON object, and
// derives the large/original URL variants described in §4.D.
func MapPhoto(observationID int64, raw map[string]any, position int) (*models.Photo, error) {
	id, ok := asInt64(raw["id"])
	if !ok {
		return nil, fmt.Errorf("mapper: photo missing integer id")
	}

	square := ptrString(raw["url"])
	original := ptrString(raw["original_url"])
	large := DeriveLargeURL(square)
	if original == nil {
		original = DeriveOriginalURL(square)
	}

	return &models.Photo{
		PhotoID:       id,
		ObservationID: observationID,
		Position:      position,
		URLSquare:     square,
		URLLarge:      large,
		URLOriginal:   original,
		LicenseCode:   ptrString(raw["license_code"]),
		Attribution:   ptrString(raw["attribution"]),
		Raw:           database.JSONB[any]{Data: raw},
	}, nil
}

// DeriveLargeURL substitutes the "large." path segment for "square." in a
// thumbnail URL. It returns nil if square is nil or does not contain the
// "square." segment.
func DeriveLargeURL(square *string) *string {
	if square == nil {
		return nil
	}
	if !strings.Contains(*square, "square.") {
		return nil
	}
	large := strings.Replace(*square, "square.", "large.", 1)
	return &large
}

// DeriveOriginalURL is the best-effort fallback for photos whose remote
// record has no explicit original_url: it substitutes "original.jpeg" for
// "square.jpg" in the thumbnail URL. It returns nil if the substitution
// does not apply.
func DeriveOriginalURL(square *string) *string {
	if square == nil {
		return nil
	}
	if !strings.Contains(*square, "square.jpg") {
		return nil
	}
	original := strings.Replace(*square, "square.jpg", "original.jpeg", 1)
	return &original
}

// parseISOTimestamp parses an ISO-8601 timestamp, accepting a trailing "Z"
// as UTC. It returns nil if value does not parse.
func parseISOTimestamp(value string) *time.Time {
	value = strings.Replace(value, "Z", "+00:00", 1)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func parseDate(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

// parseLatLon splits a "lat,lon" string into two floats. Both values parse
// or neither is returned.
func parseLatLon(value string) (lat, lon float64, ok bool) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func ptrInt64(v any) *int64 {
	n, ok := asInt64(v)
	if !ok {
		return nil
	}
	return &n
}

func ptrFloat64(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	default:
		return nil
	}
}

func ptrString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
