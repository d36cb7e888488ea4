package places

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type Searcher interface {
	Search(ctx context.Context, query string, page, size int) ([]types.SearchPlace, bool, error)
}

type HandlerImpl struct {
	logger   *slog.Logger
	searcher Searcher
}

func NewHandler(searcher Searcher, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, searcher: searcher}
}

type SearchResponse struct {
	Places []types.SearchPlace `json:"places"`
	IsEnd  bool                `json:"is_end"`
}

// SearchPlaces godoc
// @Summary      Keyword search on the map provider
// @Tags         places
// @Produce      json
// @Param        q query string true "Keyword"
// @Param        page query int false "Page number"
// @Param        size query int false "Page size, at most 15"
// @Success      200 {object} SearchResponse
// @Failure      400 {object} api.Response
// @Failure      502 {object} api.Response
// @Router       /places/search [get]
func (h *HandlerImpl) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	hits, isEnd, err := h.searcher.Search(r.Context(), r.URL.Query().Get("q"),
		api.QueryInt(r, "page", 1), api.QueryInt(r, "size", maxPageSize))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Place search failed", slog.Any("error", err))
		api.HandleServiceError(w, r, err, "Place search unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, SearchResponse{Places: hits, IsEnd: isEnd})
}
