package rest

import (
	"context"
	"net/http"
	"strconv"

	"lintang/floodnav/pkg/ingestion"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulmach/orb/geojson"
)

type IngestionService interface {
	TriggerIngestion(ctx context.Context, force, wait bool) (ingestion.Job, error)
	GetJob(ctx context.Context, id string) (ingestion.Job, error)
	Status(ctx context.Context) service.IngestionStatus
	SegmentsGeoJSON(ctx context.Context, floodedOnly bool) (*geojson.FeatureCollection, error)
}

type IngestionHandler struct {
	svc IngestionService
}

func IngestionRouter(r *chi.Mux, svc IngestionService) {
	handler := &IngestionHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api/ingestion", func(r chi.Router) {
			r.Post("/trigger", handler.trigger)
			r.Get("/jobs/{id}", handler.getJob)
			r.Get("/status", handler.status)
		})
		r.Get("/api/segments", handler.segments)
	})
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, server.WrapErrorf(err, server.ErrBadParamInput, "query parameter %s must be a boolean", key)
	}
	return v, nil
}

// trigger
//
//	@Summary		trigger satu siklus ingestion (road network, elevation, curah hujan, flood scoring).
//	@Description	force=true mengabaikan min_refresh_gap. sync=true menunggu siklus selesai, selain itu langsung balas 202 dengan job id.
//	@Tags			ingestion
//	@Param			force	query	bool	false	"abaikan minimum refresh gap"
//	@Param			sync	query	bool	false	"tunggu sampai siklus selesai"
//	@Produce		application/json
//	@Router			/ingestion/trigger [post]
//	@Success		200	{object}	ingestion.Job
//	@Success		202	{object}	ingestion.Job
//	@Failure		400	{object}	ErrResponse
//	@Failure		409	{object}	ErrResponse
func (h *IngestionHandler) trigger(w http.ResponseWriter, r *http.Request) {
	force, err := queryBool(r, "force")
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	wait, err := queryBool(r, "sync")
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	job, err := h.svc.TriggerIngestion(r.Context(), force, wait)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	if job.Finished() {
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, http.StatusAccepted)
	}
	render.JSON(w, r, job)
}

// getJob
//
//	@Summary		status satu job ingestion.
//	@Tags			ingestion
//	@Param			id	path	string	true	"job id"
//	@Produce		application/json
//	@Router			/ingestion/jobs/{id} [get]
//	@Success		200	{object}	ingestion.Job
//	@Failure		404	{object}	ErrResponse
func (h *IngestionHandler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// status
//
//	@Summary		ringkasan snapshot road segment saat ini dan job ingestion terakhir.
//	@Tags			ingestion
//	@Produce		application/json
//	@Router			/ingestion/status [get]
//	@Success		200	{object}	service.IngestionStatus
func (h *IngestionHandler) status(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.svc.Status(r.Context()))
}

// segments
//
//	@Summary		semua road segment beserta flood score dalam format GeoJSON FeatureCollection.
//	@Tags			segments
//	@Param			flooded	query	bool	false	"hanya segment yang tergenang"
//	@Produce		application/json
//	@Router			/segments [get]
//	@Success		200	{object}	map[string]interface{}
//	@Failure		503	{object}	ErrResponse
func (h *IngestionHandler) segments(w http.ResponseWriter, r *http.Request) {
	floodedOnly, err := queryBool(r, "flooded")
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	fc, err := h.svc.SegmentsGeoJSON(r.Context(), floodedOnly)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
