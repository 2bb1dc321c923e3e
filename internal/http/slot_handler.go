package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/scheduler"
)

type slotService interface {
	AddSlot(ctx context.Context, params application.AddSlotParams) (scheduler.Slot, error)
	UpdateSlot(ctx context.Context, params application.UpdateSlotParams) (scheduler.Slot, error)
	DeleteSlot(ctx context.Context, params application.DeleteSlotParams) error
	ListSlots(ctx context.Context, containerID string) ([]scheduler.Slot, error)
}

type conflictChecker interface {
	CheckConflicts(ctx context.Context, params application.CheckParams) ([]scheduler.Conflict, error)
}

// SlotHandler serves slot writes and the dry-run conflict check.
type SlotHandler struct {
	slots     slotService
	conflicts conflictChecker
	responder responder
	logger    *slog.Logger
}

func NewSlotHandler(slots slotService, conflicts conflictChecker, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, conflicts: conflicts, responder: newResponder(logger), logger: logger}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.slots == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	slots, err := h.slots.ListSlots(r.Context(), chi.URLParam(r, "containerID"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"slots": toSlotDTOs(slots)})
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.slots == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.SlotInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	slot, err := h.slots.AddSlot(r.Context(), application.AddSlotParams{
		Principal:   principal,
		ContainerID: chi.URLParam(r, "containerID"),
		Input:       input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSlotDTO(slot))
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.slots == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.SlotInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	slot, err := h.slots.UpdateSlot(r.Context(), application.UpdateSlotParams{
		Principal: principal,
		SlotID:    chi.URLParam(r, "slotID"),
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSlotDTO(slot))
}

func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.slots == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.slots.DeleteSlot(r.Context(), application.DeleteSlotParams{
		Principal: principal,
		SlotID:    chi.URLParam(r, "slotID"),
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CheckConflicts answers whether the submitted slot could be committed
// without writing anything.
func (h *SlotHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.conflicts == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var params application.CheckParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	params.ContainerID = chi.URLParam(r, "containerID")

	conflicts, err := h.conflicts.CheckConflicts(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	routeLogger(r, h.logger, "SlotHandler").DebugContext(r.Context(), "conflict check answered",
		"container_id", params.ContainerID,
		"conflicts", len(conflicts),
	)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictCheckResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    toConflictDTOs(conflicts),
	})
}
