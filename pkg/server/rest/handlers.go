package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/exp/slog"
)

type NavigationService interface {
	FloodAwareRoutes(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
		mode string) (*datastructure.RouteSet, error)
}

type NavigationHandler struct {
	svc          NavigationService
	promeMetrics *metrics
	log          *slog.Logger
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *metrics, log *slog.Logger) {
	handler := &NavigationHandler{svc, m, log}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/flood-aware-routes", handler.floodAwareRoutes)
			r.Get("/hello", handler.Hello)
		})
	})
}

// FloodAwareRoutesRequest model info
//
//	@Description	request body untuk query 3 rute (safe, balanced, fastest) antara 2 tempat
type FloodAwareRoutesRequest struct {
	// pointer: 0 koordinat valid, field yang tidak dikirim ditolak required.
	SrcLat *float64 `json:"src_lat" validate:"required,gte=-90,lte=90"`
	SrcLon *float64 `json:"src_lon" validate:"required,gte=-180,lte=180"`
	DstLat *float64 `json:"dst_lat" validate:"required,gte=-90,lte=90"`
	DstLon *float64 `json:"dst_lon" validate:"required,gte=-180,lte=180"`
	Mode   string   `json:"mode" validate:"required,oneof=car motorcycle walking"`
}

func (s *FloodAwareRoutesRequest) Bind(r *http.Request) error {
	return nil
}

// RouteResponse model info
//
//	@Description	satu rute beserta statistik genangan di sepanjang rute
type RouteResponse struct {
	Profile         string                     `json:"profile"`
	Mode            string                     `json:"mode"`
	Path            string                     `json:"path"`
	Route           []datastructure.Coordinate `json:"route"`
	Dist            float64                    `json:"distance"`
	ETA             float64                    `json:"ETA"`
	FloodedDistance float64                    `json:"flooded_distance"`
	FloodPercentage float64                    `json:"flood_percentage"`
	RiskLevel       string                     `json:"risk_level"`
	Color           string                     `json:"color"`
	Segments        []string                   `json:"segments"`
}

// RouteSlotResponse model info
//
//	@Description	hasil untuk satu risk profile. route kosong kalau rute tidak ditemukan, alasannya di reason
type RouteSlotResponse struct {
	Available bool           `json:"available"`
	Reason    string         `json:"reason,omitempty"`
	Route     *RouteResponse `json:"route,omitempty"`
}

// FloodAwareRoutesResponse model info
//
//	@Description	response body untuk query flood aware routes
type FloodAwareRoutesResponse struct {
	Safe       RouteSlotResponse `json:"safe"`
	Balanced   RouteSlotResponse `json:"balanced"`
	Fastest    RouteSlotResponse `json:"fastest"`
	Generation uint64            `json:"data_generation"`
	ComputedAt time.Time         `json:"computed_at"`
}

func newRouteSlotResponse(slot datastructure.RouteSlot) RouteSlotResponse {
	if !slot.Available() {
		return RouteSlotResponse{Available: false, Reason: slot.Reason}
	}
	rt := slot.Route
	return RouteSlotResponse{
		Available: true,
		Route: &RouteResponse{
			Profile:         rt.Profile.String(),
			Mode:            rt.Mode.String(),
			Path:            rt.Polyline,
			Route:           rt.Coordinates,
			Dist:            util.RoundFloat(rt.DistanceM/1000, 3),
			ETA:             util.RoundFloat(rt.DurationS/60, 2),
			FloodedDistance: util.RoundFloat(rt.FloodedDistance/1000, 3),
			FloodPercentage: util.RoundFloat(rt.FloodPercentage, 2),
			RiskLevel:       rt.RiskLevel.String(),
			Color:           rt.Color,
			Segments:        rt.SegmentIDs,
		},
	}
}

func NewFloodAwareRoutesResponse(rs *datastructure.RouteSet) *FloodAwareRoutesResponse {
	return &FloodAwareRoutesResponse{
		Safe:       newRouteSlotResponse(rs.Safe),
		Balanced:   newRouteSlotResponse(rs.Balanced),
		Fastest:    newRouteSlotResponse(rs.Fastest),
		Generation: rs.Generation,
		ComputedAt: rs.ComputedAt,
	}
}

// floodAwareRoutes
//
//	@Summary		3 rute (safe, balanced, fastest) antara 2 tempat dengan mempertimbangkan genangan banjir.
//	@Description	rute safe (risk-averse), balanced, dan fastest (risk-tolerant). Distance dalam km, ETA dalam menit. Slot yang tidak punya rute ditandai available=false beserta reason.
//	@Tags			navigations
//	@Param			body	body	FloodAwareRoutesRequest	true	"request body query flood aware routes"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/flood-aware-routes [post]
//	@Success		200	{object}	FloodAwareRoutesResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
//	@Failure		503	{object}	ErrResponse
func (h *NavigationHandler) floodAwareRoutes(w http.ResponseWriter, r *http.Request) {
	data := &FloodAwareRoutesRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := validateStruct(data); err != nil {
		render.Render(w, r, err)
		return
	}

	h.promeMetrics.RouteQueryCount.WithLabelValues(data.Mode).Inc()
	rs, err := h.svc.FloodAwareRoutes(r.Context(), *data.SrcLat, *data.SrcLon, *data.DstLat, *data.DstLon, data.Mode)
	if err != nil {
		if getStatusCode(err) == http.StatusInternalServerError {
			h.log.Error("flood aware routes failed", slog.String("error", err.Error()))
		}
		render.Render(w, r, ErrChi(err))
		return
	}

	for _, p := range datastructure.RiskProfiles {
		if !rs.Slot(p).Available() {
			h.promeMetrics.UnavailableRoutes.WithLabelValues(p.String()).Inc()
		}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewFloodAwareRoutesResponse(rs))
}

func (h *NavigationHandler) Hello(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"message": "hello from floodnav"})
}

// validateStruct validasi struct request, error sudah diterjemahkan ke bahasa inggris.
func validateStruct(data interface{}) render.Renderer {
	validate := validator.New()
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	vv := translateError(err, trans)
	return ErrValidation(err, vv)
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrRender(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 422,
		StatusText:     "Error rendering response.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	case http.StatusServiceUnavailable:
		statusText = "Service not ready."
	default:
		statusText = "Error."
	}

	errorText := err.Error()
	var ierr *server.Error
	if errors.As(err, &ierr) {
		errorText = ierr.Message()
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      errorText,
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	} else {
		switch ierr.Code() {
		case server.ErrInternalServerError:
			return http.StatusInternalServerError
		case server.ErrNotFound:
			return http.StatusNotFound
		case server.ErrConflict:
			return http.StatusConflict
		case server.ErrBadParamInput:
			return http.StatusBadRequest
		case server.ErrNotReady:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}

}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
