package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/apierrors"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/middleware"
)

// storyID достаёт и парсит {story_id} из пути.
func storyID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "story_id"))
	return id, err == nil
}

func (h *Handlers) CreateStory(w http.ResponseWriter, r *http.Request) {
	var in CreateStoryRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	actor := middleware.ActorFrom(r.Context())

	collab := make([]uuid.UUID, 0, len(in.Collaborators))
	for _, raw := range in.Collaborators {
		id, err := uuid.Parse(raw)
		if err != nil {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}
		collab = append(collab, id)
	}

	st, err := h.svc.CreateStory(r.Context(), service.CreateStoryInput{
		AuthorID:         actor.UserID,
		Title:            in.Title,
		FirstPageContent: in.FirstPageContent,
		Collaborators:    collab,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, storyToResponse(st))
}

func (h *Handlers) GetStory(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.svc.GetStory(r.Context(), id, middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, storyToResponse(st))
}

func (h *Handlers) PublishStory(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	st, err := h.svc.PublishStory(r.Context(), id, middleware.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, storyToResponse(st))
}

func (h *Handlers) DeleteStory(w http.ResponseWriter, r *http.Request) {
	id, ok := storyID(r)
	if !ok {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := h.svc.DeleteStory(r.Context(), id, middleware.ActorFrom(r.Context())); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
