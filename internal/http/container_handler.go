package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

type containerService interface {
	CreateContainer(ctx context.Context, params application.CreateContainerParams) (scheduler.Container, error)
	GetContainer(ctx context.Context, id string) (application.ContainerDetail, error)
	ListContainers(ctx context.Context, filter persistence.ContainerFilter) ([]scheduler.Container, error)
	DeleteContainer(ctx context.Context, params application.ContainerActionParams) error
	ClassSchedule(ctx context.Context, classID string, kind scheduler.Kind, academicYear string) ([]application.ContainerDetail, error)
}

type lifecycleService interface {
	Publish(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error)
	Activate(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error)
	Archive(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error)
}

// ContainerHandler serves container management and lifecycle transitions.
type ContainerHandler struct {
	containers containerService
	lifecycle  lifecycleService
	responder  responder
}

func NewContainerHandler(containers containerService, lifecycle lifecycleService, logger *slog.Logger) *ContainerHandler {
	return &ContainerHandler{containers: containers, lifecycle: lifecycle, responder: newResponder(logger)}
}

func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.containers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.ContainerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	container, err := h.containers.CreateContainer(r.Context(), application.CreateContainerParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toContainerDTO(container))
}

func (h *ContainerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.containers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := persistence.ContainerFilter{
		Kind:         scheduler.Kind(strings.TrimSpace(query.Get("kind"))),
		ClassID:      strings.TrimSpace(query.Get("class_id")),
		AcademicYear: strings.TrimSpace(query.Get("academic_year")),
		Status:       scheduler.Status(strings.TrimSpace(query.Get("status"))),
	}

	containers, err := h.containers.ListContainers(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"containers": toContainerDTOs(containers)})
}

func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.containers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	detail, err := h.containers.GetContainer(r.Context(), chi.URLParam(r, "containerID"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toContainerDetailResponse(detail))
}

// ClassExams serves the published exam containers holding slots for a class.
func (h *ContainerHandler) ClassExams(w http.ResponseWriter, r *http.Request) {
	h.classSchedule(w, r, scheduler.KindExam)
}

func (h *ContainerHandler) ClassAssessments(w http.ResponseWriter, r *http.Request) {
	h.classSchedule(w, r, scheduler.KindAssessment)
}

func (h *ContainerHandler) classSchedule(w http.ResponseWriter, r *http.Request, kind scheduler.Kind) {
	if h == nil || h.containers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	details, err := h.containers.ClassSchedule(r.Context(), chi.URLParam(r, "classID"), kind, strings.TrimSpace(r.URL.Query().Get("academic_year")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]containerDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toContainerDetailResponse(d))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"containers": out})
}

func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.containers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	err := h.containers.DeleteContainer(r.Context(), application.ContainerActionParams{
		Principal:   principal,
		ContainerID: chi.URLParam(r, "containerID"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ContainerHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error) {
		return h.lifecycle.Publish(ctx, params)
	})
}

func (h *ContainerHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error) {
		return h.lifecycle.Activate(ctx, params)
	})
}

func (h *ContainerHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, params application.ContainerActionParams) (scheduler.Container, error) {
		return h.lifecycle.Archive(ctx, params)
	})
}

func (h *ContainerHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, application.ContainerActionParams) (scheduler.Container, error)) {
	if h == nil || h.lifecycle == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	container, err := apply(r.Context(), application.ContainerActionParams{
		Principal:   principal,
		ContainerID: chi.URLParam(r, "containerID"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toContainerDTO(container))
}
