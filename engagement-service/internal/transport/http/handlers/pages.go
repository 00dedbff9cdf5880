package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/apierrors"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/middleware"
)

// pageNumber достаёт и парсит {page} из пути.
func pageNumber(r *http.Request) (int32, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, "page"), 10, 32)
	if err != nil || n < 1 {
		return 0, false
	}

	return int32(n), true
}

func (h *Handlers) AddPage(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in AddPageRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	page, err := h.svc.AddPage(r.Context(), service.AddPageInput{
		StoryID:  id,
		Actor:    middleware.ActorFrom(r.Context()),
		Content:  in.Content,
		Position: in.Position,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pageToResponse(page))
}

func (h *Handlers) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	n, ok := pageNumber(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in UpdatePageRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	page, err := h.svc.UpdatePage(r.Context(), id, n, middleware.ActorFrom(r.Context()), in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}

func (h *Handlers) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	n, ok := pageNumber(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := h.svc.DeletePage(r.Context(), id, n, middleware.ActorFrom(r.Context())); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	n, ok := pageNumber(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	view, err := h.svc.GetPage(r.Context(), id, n, middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PageViewResponse{
		Page:        pageToResponse(&view.Page),
		HasPrevious: view.HasPrevious,
		HasNext:     view.HasNext,
		PageCount:   view.PageCount,
	})
}

func (h *Handlers) TrackPageView(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	n, ok := pageNumber(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := h.svc.TrackPageView(r.Context(), id, n); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateReadingProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in ProgressRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	rp, err := h.svc.UpdateReadingProgress(r.Context(), service.UpdateReadingProgressInput{
		StoryID:           id,
		UserID:            actor.UserID,
		CurrentPage:       in.CurrentPage,
		TimeSpentDeltaSec: in.TimeSpentDeltaSeconds,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progressToResponse(rp))
}

func (h *Handlers) GetReadingProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	rp, err := h.svc.GetReadingProgress(r.Context(), id, actor.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progressToResponse(rp))
}
