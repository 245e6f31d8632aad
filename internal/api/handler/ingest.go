package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/albapepper/hoopstats/internal/api/respond"
	"github.com/albapepper/hoopstats/internal/ingest"
)

// IngestResponse is the body returned by the upload and seed endpoints.
type IngestResponse struct {
	OK       bool          `json:"ok"`
	Inserted int           `json:"inserted"`
	Result   ingest.Result `json:"result"`
}

// Upload ingests a CSV file sent as multipart field "file".
// @Summary Upload box scores
// @Description Parses the CSV and upserts Team, Player, Game and StatLine records row by row. Invalid rows are reported and skipped.
// @Tags ingest
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV with player, team, date and stat columns"
// @Success 200 {object} IngestResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 413 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(h.cfg.UploadMaxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.WriteError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Upload exceeds the size limit")
			return
		}
		respond.WriteError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FILE", "Missing file")
		return
	}
	defer file.Close()

	rows, err := ingest.ReadCSV(file)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_CSV", "Could not parse CSV", err.Error())
		return
	}

	res, err := h.upserter.Ingest(r.Context(), rows)
	h.afterWrite(res)
	if err != nil {
		slog.Error("Upload ingest failed", "file", header.Filename, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INGEST_FAILED", "Ingest failed", err.Error())
		return
	}
	slog.Info("Upload ingested", "file", header.Filename, "summary", res.Summary())
	respond.WriteJSONObject(w, http.StatusOK, IngestResponse{OK: true, Inserted: res.Inserted, Result: res})
}

// Seed replaces all records with the demo dataset.
// @Summary Reseed demo data
// @Description Deletes every record and ingests the bundled demo CSV.
// @Tags ingest
// @Produce json
// @Success 200 {object} IngestResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/seed [post]
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := h.upserter.SeedDemo(r.Context(), h.cfg.DemoCSVPath)
	// A failed seed may already have reset the store.
	h.cache.Purge()
	if err != nil {
		slog.Error("Demo seed failed", "path", h.cfg.DemoCSVPath, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SEED_FAILED", "Seed failed", err.Error())
		return
	}
	slog.Info("Demo seed complete", "summary", res.Summary())
	respond.WriteJSONObject(w, http.StatusOK, IngestResponse{OK: true, Inserted: res.Inserted, Result: res})
}

func (h *Handler) afterWrite(res ingest.Result) {
	if res.Rows > 0 {
		h.cache.Purge()
	}
}
