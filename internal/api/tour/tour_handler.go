package tour

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

// listParams reads the list filters. Numeric codes are checked but passed on as strings.
func listParams(r *http.Request) (types.TourListParams, bool) {
	q := r.URL.Query()
	p := types.TourListParams{
		AreaCode:      q.Get("areaCode"),
		SigunguCode:   q.Get("sigunguCode"),
		ContentTypeID: q.Get("contentTypeId"),
		Keyword:       q.Get("keyword"),
		Page:          api.QueryInt(r, "page", 1),
		Size:          api.QueryInt(r, "size", defaultPageSize),
	}
	for _, v := range []string{p.AreaCode, p.SigunguCode, p.ContentTypeID} {
		if _, err := strconv.Atoi(v); v != "" && err != nil {
			return p, false
		}
	}
	return p, true
}

// ListAreas godoc
// @Summary      Province level area codes
// @Tags         tour
// @Produce      json
// @Success      200 {array} types.AreaCode
// @Router       /tour/areas [get]
func (h *HandlerImpl) ListAreas(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.AreaCodes(r.Context()))
}

// ListPlaces godoc
// @Summary      Tourism content by area, or keyword search
// @Tags         tour
// @Produce      json
// @Param        areaCode query string false "Area code"
// @Param        sigunguCode query string false "District code"
// @Param        contentTypeId query string false "Content type, 39 for restaurants"
// @Param        keyword query string false "Search keyword"
// @Param        page query int false "Page number"
// @Param        size query int false "Page size"
// @Success      200 {object} types.TourPage
// @Failure      400 {object} api.Response
// @Failure      502 {object} api.Response
// @Router       /tour/places [get]
func (h *HandlerImpl) ListPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TourHandler").Start(r.Context(), "ListPlaces")
	defer span.End()

	p, ok := listParams(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Area, district and content type codes must be numeric")
		return
	}
	page, err := h.service.Places(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		api.HandleServiceError(w, r, err, "Tourism service unavailable")
		return
	}
	span.SetStatus(codes.Ok, "Listed")
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

// GetPlace godoc
// @Summary      Common detail of one content item
// @Tags         tour
// @Produce      json
// @Param        contentID path string true "Content id"
// @Success      200 {object} types.TourItem
// @Failure      404 {object} api.Response
// @Failure      502 {object} api.Response
// @Router       /tour/places/{contentID} [get]
func (h *HandlerImpl) GetPlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TourHandler").Start(r.Context(), "GetPlace")
	defer span.End()

	item, err := h.service.Detail(ctx, chi.URLParam(r, "contentID"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Detail failed")
		api.HandleServiceError(w, r, err, "Tourism service unavailable")
		return
	}
	span.SetStatus(codes.Ok, "Fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

// HotRestaurants godoc
// @Summary      Restaurants of an area with like counts
// @Tags         restaurants
// @Produce      json
// @Param        areaCode query string false "Area code"
// @Param        page query int false "Page number"
// @Param        size query int false "Page size"
// @Success      200 {object} types.HotRestaurantsPage
// @Failure      502 {object} api.Response
// @Router       /restaurants/hot [get]
func (h *HandlerImpl) HotRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TourHandler").Start(r.Context(), "HotRestaurants")
	defer span.End()

	p, ok := listParams(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Area code must be numeric")
		return
	}
	page, err := h.service.HotRestaurants(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		api.HandleServiceError(w, r, err, "Tourism service unavailable")
		return
	}
	span.SetStatus(codes.Ok, "Listed")
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}
