package itinerary

import (
	"log/slog"
	"net/http"

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

type MoveResponse struct {
	Itinerary types.Itinerary `json:"itinerary"`
	Changed   bool            `json:"changed"`
}

// PlanTrip godoc
// @Summary      Spread a trip draft over its days
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        draft body types.TripDraft true "Trip draft"
// @Success      200 {object} types.PlanResponse
// @Failure      400 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/plan [post]
func (h *HandlerImpl) PlanTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "PlanTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "PlanTrip"))

	var draft types.TripDraft
	if err := api.DecodeJSONBody(w, r, &draft); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.service.Plan(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to plan trip")
		api.HandleServiceError(w, r, err, "Failed to plan trip")
		return
	}
	span.SetStatus(codes.Ok, "Trip planned")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// MoveDraftPlace godoc
// @Summary      Move one place within a draft itinerary
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        move body types.MoveDraftRequest true "Itinerary and move"
// @Success      200 {object} MoveResponse
// @Failure      400 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/move [post]
func (h *HandlerImpl) MoveDraftPlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "MoveDraftPlace")
	defer span.End()
	l := h.logger.With(slog.String("handler", "MoveDraftPlace"))

	var req types.MoveDraftRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, changed, err := h.service.Move(ctx, req.Itinerary, req.Move)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to move place")
		api.HandleServiceError(w, r, err, "Failed to move place")
		return
	}
	span.SetStatus(codes.Ok, "Moved")
	api.WriteJSONResponse(w, r, http.StatusOK, MoveResponse{Itinerary: out, Changed: changed})
}
