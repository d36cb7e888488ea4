package recommend

import (
	"context"
	"log/slog"
	"net/http"

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

// Recommend godoc
// @Summary      Ask the food recommendation assistant
// @Tags         recommend
// @Accept       json
// @Produce      json
// @Param        request body types.RecommendRequest true "Query and conversation"
// @Success      200 {object} types.RecommendResponse
// @Failure      400 {object} api.Response
// @Failure      429 {object} api.Response
// @Failure      502 {object} api.Response
// @Security     BearerAuth
// @Router       /recommend [post]
func (h *HandlerImpl) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendHandler").Start(r.Context(), "Recommend")
	defer span.End()

	if _, ok := auth.RequireUser(w, r); !ok {
		return
	}
	var req types.RecommendRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.service.Recommend(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Recommend failed")
		api.HandleServiceError(w, r, err, "Recommendation unavailable")
		return
	}
	span.SetStatus(codes.Ok, "Recommended")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// EnhanceFood godoc
// @Summary      Rewrite a seasonal food description
// @Tags         recommend
// @Accept       json
// @Produce      json
// @Param        request body types.EnhanceRequest true "Food"
// @Success      200 {object} types.EnhanceResponse
// @Failure      400 {object} api.Response
// @Router       /enhance/food [post]
func (h *HandlerImpl) EnhanceFood(w http.ResponseWriter, r *http.Request) {
	h.enhance(w, r, h.service.EnhanceFood)
}

// EnhanceRestaurant godoc
// @Summary      Rewrite a restaurant description
// @Tags         recommend
// @Accept       json
// @Produce      json
// @Param        request body types.EnhanceRequest true "Restaurant"
// @Success      200 {object} types.EnhanceResponse
// @Failure      400 {object} api.Response
// @Router       /enhance/restaurant [post]
func (h *HandlerImpl) EnhanceRestaurant(w http.ResponseWriter, r *http.Request) {
	h.enhance(w, r, h.service.EnhanceRestaurant)
}

func (h *HandlerImpl) enhance(w http.ResponseWriter, r *http.Request,
	run func(ctx context.Context, req types.EnhanceRequest) (*types.EnhanceResponse, error)) {
	var req types.EnhanceRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := run(r.Context(), req)
	if err != nil {
		api.HandleServiceError(w, r, err, "Enhancement unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
