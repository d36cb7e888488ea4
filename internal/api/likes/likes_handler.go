package likes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/api/auth"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// ToggleLike godoc
// @Summary      Like or unlike a restaurant or food
// @Tags         likes
// @Produce      json
// @Param        kind path string true "restaurant or food"
// @Param        id path string true "Content or food id"
// @Success      200 {object} types.LikeState
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /likes/{kind}/{id}/toggle [post]
func (h *HandlerImpl) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LikesHandler").Start(r.Context(), "ToggleLike")
	defer span.End()

	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	kind := types.PlaceKind(chi.URLParam(r, "kind"))
	state, err := h.service.Toggle(ctx, userID, kind, chi.URLParam(r, "id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Toggle failed")
		api.HandleServiceError(w, r, err, "Failed to update like")
		return
	}
	span.SetStatus(codes.Ok, "Toggled")
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// GetLike godoc
// @Summary      Like state of one item for the caller
// @Tags         likes
// @Produce      json
// @Param        kind path string true "restaurant or food"
// @Param        id path string true "Content or food id"
// @Success      200 {object} types.LikeState
// @Security     BearerAuth
// @Router       /likes/{kind}/{id} [get]
func (h *HandlerImpl) GetLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	kind := types.PlaceKind(chi.URLParam(r, "kind"))
	state, err := h.service.View(r.Context(), userID, kind, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to read like")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// ListLiked godoc
// @Summary      Liked restaurants and foods in one list
// @Tags         likes
// @Produce      json
// @Param        keyword query string false "Title or location contains"
// @Param        kind query string false "restaurant or food"
// @Param        seasonal query bool false "Only in-season items"
// @Param        local query bool false "Only regional specialties"
// @Param        month query int false "Month for the seasonal filter, defaults to now"
// @Success      200 {object} types.LikedItemsResponse
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /likes [get]
func (h *HandlerImpl) ListLiked(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LikesHandler").Start(r.Context(), "ListLiked")
	defer span.End()

	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	resp, err := h.service.Collect(ctx, userID, types.LikedItemsFilter{
		Keyword:      q.Get("keyword"),
		Kind:         types.PlaceKind(q.Get("kind")),
		SeasonalOnly: queryBool(r, "seasonal"),
		LocalOnly:    queryBool(r, "local"),
		Month:        api.QueryInt(r, "month", 0),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Collect failed")
		api.HandleServiceError(w, r, err, "Failed to list liked items")
		return
	}
	span.SetStatus(codes.Ok, "Listed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// LikeCounts godoc
// @Summary      Like totals for a list of ids
// @Tags         likes
// @Produce      json
// @Param        kind query string true "restaurant or food"
// @Param        ids query string true "Comma separated ids"
// @Success      200 {object} map[string]int
// @Failure      400 {object} api.Response
// @Router       /likes/counts [get]
func (h *HandlerImpl) LikeCounts(w http.ResponseWriter, r *http.Request) {
	kind := types.PlaceKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		api.ErrorResponse(w, r, http.StatusBadRequest, "kind must be restaurant or food")
		return
	}
	ids := api.QueryList(r, "ids")
	if len(ids) > 100 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "At most 100 ids per request")
		return
	}
	counts, err := h.service.Counts(r.Context(), kind, ids)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to count likes")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, counts)
}
