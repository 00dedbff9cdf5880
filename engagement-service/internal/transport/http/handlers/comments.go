package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/apierrors"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/middleware"
)

// pageParams разбирает ?page и ?page_size; невалидные значения -> (0, 0, false).
func pageParams(r *http.Request) (int32, int32, bool) {
	var page, size int32

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = int32(n)
	}

	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		size = int32(n)
	}

	return page, size, true
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in CreateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	comm, err := h.svc.CreateComment(r.Context(), service.CreateCommentInput{
		StoryID:  id,
		AuthorID: actor.UserID,
		ParentID: in.ParentID,
		Content:  in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentToResponse(comm))
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	page, size, ok := pageParams(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	sortKey, ok := models.ParseCommentSort(r.URL.Query().Get("sort"))
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	res, err := h.svc.ListComments(r.Context(), service.ListCommentsInput{
		StoryID:  id,
		Page:     page,
		PageSize: size,
		Sort:     sortKey,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentPageToResponse(res))
}

func (h *Handlers) ListFlaggedComments(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	page, size, ok := pageParams(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	res, err := h.svc.ListFlaggedComments(r.Context(), service.ListFlaggedInput{
		StoryID:  id,
		Actor:    middleware.ActorFrom(r.Context()),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]CommentResponse, 0, len(res))
	for i := range res {
		out = append(out, commentToResponse(&res[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	var in EditCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	comm, err := h.svc.EditComment(r.Context(), chi.URLParam(r, "id"), actor.UserID, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentToResponse(comm))
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteComment(r.Context(), chi.URLParam(r, "id"), middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r.Context())

	res, err := h.svc.ToggleCommentLike(r.Context(), chi.URLParam(r, "id"), actor.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{Active: res.Active, Count: res.Count})
}

func (h *Handlers) ReportComment(w http.ResponseWriter, r *http.Request) {
	var in ReportCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	comm, err := h.svc.ReportComment(r.Context(), chi.URLParam(r, "id"), actor.UserID, in.Reason)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentToResponse(comm))
}

func (h *Handlers) ModerateComment(w http.ResponseWriter, r *http.Request) {
	var in ModerateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	action, ok := models.ParseModerationAction(in.Action)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	comm, err := h.svc.ModerateComment(r.Context(), chi.URLParam(r, "id"), middleware.ActorFrom(r.Context()), action, in.Reason)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentToResponse(comm))
}

func (h *Handlers) PinComment(w http.ResponseWriter, r *http.Request) {
	comm, err := h.svc.PinComment(r.Context(), chi.URLParam(r, "id"), middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentToResponse(comm))
}

func (h *Handlers) UnpinComment(w http.ResponseWriter, r *http.Request) {
	comm, err := h.svc.UnpinComment(r.Context(), chi.URLParam(r, "id"), middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentToResponse(comm))
}
