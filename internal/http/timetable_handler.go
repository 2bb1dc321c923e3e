package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/recurrence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

type generator interface {
	Generate(ctx context.Context, params application.GenerateParams) (application.GenerationResult, error)
}

type activeTimetableReader interface {
	ActiveTimetable(ctx context.Context, classID string) (application.ContainerDetail, error)
}

type lessonReader interface {
	ClassLessons(ctx context.Context, classID string, from, to time.Time) ([]recurrence.Lesson, error)
}

// TimetableHandler serves class timetable generation and class calendars.
type TimetableHandler struct {
	generator generator
	active    activeTimetableReader
	lessons   lessonReader
	responder responder
}

func NewTimetableHandler(gen generator, active activeTimetableReader, lessons lessonReader, logger *slog.Logger) *TimetableHandler {
	return &TimetableHandler{generator: gen, active: active, lessons: lessons, responder: newResponder(logger)}
}

// Generate drafts a timetable. Infeasible runs still report the candidates
// that were rejected so callers can see why nothing fit.
func (h *TimetableHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.generator == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var params application.GenerateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	params.Principal, _ = PrincipalFromContext(r.Context())

	result, err := h.generator.Generate(r.Context(), params)
	if err != nil {
		var gErr *application.InfeasibleGenerationError
		if errors.As(err, &gErr) && len(result.Conflicts) > 0 {
			payload := toGenerationResponse(result)
			payload.Message = gErr.Error()
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, struct {
				ErrorCode string `json:"error_code"`
				generationResponse
			}{ErrorCode: strings.ToUpper(gErr.Reason), generationResponse: payload})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toGenerationResponse(result))
}

func (h *TimetableHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.active == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	detail, err := h.active.ActiveTimetable(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toContainerDetailResponse(detail))
}

// Lessons expands the active timetable over [from, to). Both parameters
// default to the current week starting Monday.
func (h *TimetableHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.lessons == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	from, to, err := parseLessonRange(r, time.Now().UTC())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	lessons, err := h.lessons.ClassLessons(r.Context(), chi.URLParam(r, "classID"), from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"from":    from.Format(scheduler.DateLayout),
		"to":      to.Format(scheduler.DateLayout),
		"lessons": toLessonDTOs(lessons),
	})
}

func parseLessonRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	query := r.URL.Query()

	offset := (int(now.Weekday()) + 6) % 7
	from := scheduler.TruncateDate(now).AddDate(0, 0, -offset)
	if value := strings.TrimSpace(query.Get("from")); value != "" {
		parsed, err := scheduler.ParseDate(value)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate
		}
		from = parsed
	}

	to := from.AddDate(0, 0, 7)
	if value := strings.TrimSpace(query.Get("to")); value != "" {
		parsed, err := scheduler.ParseDate(value)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate
		}
		to = parsed
	}
	return from, to, nil
}
