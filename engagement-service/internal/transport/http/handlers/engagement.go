package handlers

import (
	"net/http"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/apierrors"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/middleware"
)

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	res, err := h.svc.ToggleLike(r.Context(), id, actor.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{Active: res.Active, Count: res.Count})
}

func (h *Handlers) ToggleReadingList(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	res, err := h.svc.ToggleReadingList(r.Context(), id, actor.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{Active: res.Active, Count: res.Count})
}

func (h *Handlers) SubmitRating(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in RatingRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	res, err := h.svc.SubmitRating(r.Context(), id, actor.UserID, in.Rating)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RatingResponse{
		RatingCount:   res.RatingCount,
		AverageRating: res.AverageRating,
	})
}
