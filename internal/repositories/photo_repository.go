package repositories

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

const photosTable = "photos"

// PhotoRepository upserts photos owned by an observation.
type PhotoRepository struct {
	*Repository
}

func NewPhotoRepository(db database.DB, logger ectologger.Logger) *PhotoRepository {
	return &PhotoRepository{Repository: NewRepository(db, logger)}
}

func (r *PhotoRepository) Upsert(ctx context.Context, photo *models.Photo) error {
	ctx, span := r.StartSpan(ctx, "PhotoRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(photosTable).
		Cols("photo_id", "observation_id", "position", "url_square", "url_large", "url_original",
			"license_code", "attribution", "raw", "first_seen_at", "last_seen_at").
		Values(photo.PhotoID, photo.ObservationID, photo.Position, photo.URLSquare, photo.URLLarge,
			photo.URLOriginal, photo.LicenseCode, photo.Attribution, photo.Raw,
			sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()"))

	ub := ib.OnConflict("photo_id")
	ub.Assign("observation_id", database.Excluded("observation_id"))
	ub.Assign("position", database.Excluded("position"))
	ub.Assign("url_square", database.Excluded("url_square"))
	ub.Assign("url_large", database.Excluded("url_large"))
	ub.Assign("url_original", database.Excluded("url_original"))
	ub.Assign("license_code", database.Excluded("license_code"))
	ub.Assign("attribution", database.Excluded("attribution"))
	ub.Assign("raw", database.Excluded("raw"))
	ub.Assign("last_seen_at", sqlbuilder.Raw("NOW()"))

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.LogError(ctx, "upsert", photosTable, err)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert photo")
	}

	r.LogUpsert(ctx, photosTable, photo.PhotoID)
	return nil
}
