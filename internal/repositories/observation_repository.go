package repositories

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"context"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

const observationsTable = "observations"

// ObservationRepository upserts observations, refreshing last_seen_at and
// retaining first_seen_at on conflict, exactly as the record mapper hands
// them over.
type ObservationRepository struct {
	*Repository
}

func NewObservationRepository(db database.DB, logger ectologger.Logger) *ObservationRepository {
	return &ObservationRepository{Repository: NewRepository(db, logger)}
}

// Upsert inserts obs, or on a conflicting observation_id updates every
// mutable column and bumps last_seen_at while leaving first_seen_at intact.
func (r *ObservationRepository) Upsert(ctx context.Context, obs *models.Observation) error {
	ctx, span := r.StartSpan(ctx, "ObservationRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(observationsTable).
		Cols("observation_id", "taxon_id", "scientific_name", "common_name", "quality_grade",
			"captive", "license_code", "observed_at", "observed_on_date", "created_at_remote",
			"updated_at_remote", "latitude", "longitude", "positional_accuracy", "place_guess",
			"observer_login", "notes", "raw", "first_seen_at", "last_seen_at").
		Values(obs.ObservationID, obs.TaxonID, obs.ScientificName, obs.CommonName, obs.QualityGrade,
			obs.Captive, obs.LicenseCode, obs.ObservedAt, obs.ObservedOnDate, obs.CreatedAtRemote,
			obs.UpdatedAtRemote, obs.Latitude, obs.Longitude, obs.PositionAccuracy, obs.PlaceGuess,
			obs.User, obs.Notes, obs.Raw, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("observation_id")
	ub.Assign("taxon_id", database.Excluded("taxon_id"))
	ub.Assign("scientific_name", database.Excluded("scientific_name"))
	ub.Assign("common_name", database.Excluded("common_name"))
	ub.Assign("quality_grade", database.Excluded("quality_grade"))
	ub.Assign("captive", database.Excluded("captive"))
	ub.Assign("license_code", database.Excluded("license_code"))
	ub.Assign("observed_at", database.Excluded("observed_at"))
	ub.Assign("observed_on_date", database.Excluded("observed_on_date"))
	ub.Assign("created_at_remote", database.Excluded("created_at_remote"))
	ub.Assign("updated_at_remote", database.Excluded("updated_at_remote"))
	ub.Assign("latitude", database.Excluded("latitude"))
	ub.Assign("longitude", database.Excluded("longitude"))
	ub.Assign("positional_accuracy", database.Excluded("positional_accuracy"))
	ub.Assign("place_guess", database.Excluded("place_guess"))
	ub.Assign("observer_login", database.Excluded("observer_login"))
	ub.Assign("notes", database.Excluded("notes"))
	ub.Assign("raw", database.Excluded("raw"))
	ub.Assign("last_seen_at", sqlbuilder.Raw("NOW()"))

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.LogError(ctx, "upsert", observationsTable, err)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert observation")
	}

	r.LogUpsert(ctx, observationsTable, obs.ObservationID)
	return nil
}
