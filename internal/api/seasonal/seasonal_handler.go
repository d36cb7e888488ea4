package seasonal

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/harunekki-api/internal/api"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

// ListSeasonalFoods godoc
// @Summary      Seasonal foods catalogue
// @Tags         foods
// @Produce      json
// @Param        region query int false "Area code"
// @Param        thisMonth query bool false "Only foods in season now"
// @Success      200 {array} types.SeasonalFood
// @Failure      400 {object} api.Response
// @Router       /foods/seasonal [get]
func (h *HandlerImpl) ListSeasonalFoods(w http.ResponseWriter, r *http.Request) {
	thisMonth, _ := strconv.ParseBool(r.URL.Query().Get("thisMonth"))
	foods, err := h.service.List(r.Context(), api.QueryInt(r, "region", 0), thisMonth)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to list seasonal foods")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, foods)
}

// GetSeasonalFood godoc
// @Summary      One seasonal food
// @Tags         foods
// @Produce      json
// @Param        foodID path string true "Food id"
// @Success      200 {object} types.SeasonalFood
// @Failure      404 {object} api.Response
// @Router       /foods/seasonal/{foodID} [get]
func (h *HandlerImpl) GetSeasonalFood(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLParamUUID(w, r, "foodID")
	if !ok {
		return
	}
	food, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to read seasonal food")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, food)
}
