package diary

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/api/auth"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const maxPhotoBytes = 10 << 20

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

type MoveResponse struct {
	Diary   *types.DiaryWithPlaces `json:"diary"`
	Changed bool                   `json:"changed"`
}

// CreateDiary godoc
// @Summary      Save a planned trip as a diary
// @Tags         diaries
// @Accept       json
// @Produce      json
// @Param        diary body types.CreateDiaryRequest true "Diary"
// @Success      201 {object} types.DiaryWithPlaces
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries [post]
func (h *HandlerImpl) CreateDiary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiaryHandler").Start(r.Context(), "CreateDiary")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateDiary"))

	userID, ok := auth.RequireUser(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthenticated")
		return
	}
	var req types.CreateDiaryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	diary, err := h.service.Create(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		api.HandleServiceError(w, r, err, "Failed to create diary")
		return
	}
	span.SetStatus(codes.Ok, "Diary created")
	api.WriteJSONResponse(w, r, http.StatusCreated, diary)
}

// ListDiaries godoc
// @Summary      List the caller's diaries, newest first
// @Tags         diaries
// @Produce      json
// @Success      200 {array} types.Diary
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries [get]
func (h *HandlerImpl) ListDiaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	diaries, err := h.service.List(r.Context(), userID)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to list diaries")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, diaries)
}

// GetDiary godoc
// @Summary      Get a diary with its places grouped by day
// @Tags         diaries
// @Produce      json
// @Param        diaryID path string true "Diary ID"
// @Success      200 {object} types.DiaryWithPlaces
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries/{diaryID} [get]
func (h *HandlerImpl) GetDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	diaryID, ok := api.URLParamUUID(w, r, "diaryID")
	if !ok {
		return
	}
	diary, err := h.service.Get(r.Context(), userID, diaryID)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to get diary")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, diary)
}

// DeleteDiary godoc
// @Summary      Delete a diary and its places
// @Tags         diaries
// @Param        diaryID path string true "Diary ID"
// @Success      204
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries/{diaryID} [delete]
func (h *HandlerImpl) DeleteDiary(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	diaryID, ok := api.URLParamUUID(w, r, "diaryID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, diaryID); err != nil {
		api.HandleServiceError(w, r, err, "Failed to delete diary")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// SetCover godoc
// @Summary      Set a diary cover image
// @Tags         diaries
// @Accept       json
// @Produce      json
// @Param        diaryID path string true "Diary ID"
// @Param        cover body types.SetCoverRequest true "Cover"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries/{diaryID}/cover [put]
func (h *HandlerImpl) SetCover(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	diaryID, ok := api.URLParamUUID(w, r, "diaryID")
	if !ok {
		return
	}
	var req types.SetCoverRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.SetCover(r.Context(), userID, diaryID, req.CoverImageURL); err != nil {
		api.HandleServiceError(w, r, err, "Failed to set cover")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Cover updated"})
}

// MovePlace godoc
// @Summary      Move a place inside a saved diary
// @Tags         diaries
// @Accept       json
// @Produce      json
// @Param        diaryID path string true "Diary ID"
// @Param        move body types.Move true "Move"
// @Success      200 {object} MoveResponse
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries/{diaryID}/move [post]
func (h *HandlerImpl) MovePlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiaryHandler").Start(r.Context(), "MovePlace")
	defer span.End()

	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	diaryID, ok := api.URLParamUUID(w, r, "diaryID")
	if !ok {
		return
	}
	var m types.Move
	if err := api.DecodeJSONBody(w, r, &m); err != nil {
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	diary, changed, err := h.service.MovePlace(ctx, userID, diaryID, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move failed")
		api.HandleServiceError(w, r, err, "Failed to move place")
		return
	}
	span.SetStatus(codes.Ok, "Moved")
	api.WriteJSONResponse(w, r, http.StatusOK, MoveResponse{Diary: diary, Changed: changed})
}

func readPhoto(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid photo: %w", types.ErrValidation)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo must not be larger than %d bytes: %w", maxPhotoBytes, types.ErrValidation)
	}
	return data, nil
}

// RecordStamp godoc
// @Summary      Mark a diary place visited with a photo and a note
// @Tags         diaries
// @Accept       multipart/form-data
// @Produce      json
// @Param        placeID path string true "Diary place ID"
// @Param        title formData string false "Stamp title"
// @Param        description formData string false "Stamp note"
// @Param        photo formData file false "Photo"
// @Success      200 {object} types.StampResult
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /diaries/places/{placeID}/stamp [post]
func (h *HandlerImpl) RecordStamp(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiaryHandler").Start(r.Context(), "RecordStamp")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RecordStamp"))

	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	placeID, ok := api.URLParamUUID(w, r, "placeID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		l.WarnContext(ctx, "Failed to parse stamp form", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid stamp form")
		return
	}
	photo, err := readPhoto(r)
	if err != nil {
		span.RecordError(err)
		api.HandleServiceError(w, r, err, "Failed to read photo")
		return
	}

	result, err := h.service.RecordStamp(ctx, userID, placeID, types.StampInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Photo:       photo,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stamp failed")
		api.HandleServiceError(w, r, err, "Failed to record stamp")
		return
	}
	span.SetStatus(codes.Ok, "Stamp recorded")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// ListBadges godoc
// @Summary      List completed diaries as badges
// @Tags         me
// @Produce      json
// @Success      200 {array} types.Badge
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /me/badges [get]
func (h *HandlerImpl) ListBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	badges, err := h.service.Badges(r.Context(), userID)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to list badges")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, badges)
}
