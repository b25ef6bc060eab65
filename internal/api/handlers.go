package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Processor interface {
	Process(ctx context.Context, messageID *uuid.UUID) (model.Report, error)
}

type LogLister interface {
	ListByMessage(ctx context.Context, messageID uuid.UUID, limit, offset int) ([]model.DeliveryLog, error)
}

type SchedulerControl interface {
	Start() bool
	Stop() bool
	IsRunning() bool
	Spec() string
	NextRun() time.Time
}

type Handler struct {
	proc     Processor
	logs     LogLister
	sched    SchedulerControl
	validate *validator.Validate
	log      logrus.FieldLogger
}

// NewHandler wires the HTTP handlers. sched may be nil when the in-process
// trigger is disabled.
func NewHandler(p Processor, logs LogLister, sched SchedulerControl, log logrus.FieldLogger) *Handler {
	return &Handler{
		proc:     p,
		logs:     logs,
		sched:    sched,
		validate: validator.New(),
		log:      log,
	}
}

type processRequest struct {
	MessageID string `json:"messageId" validate:"omitempty,uuid"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ProcessScheduled runs one dispatch pass. A missing, empty or syntactically
// broken body is treated as a request to process every due message; a body
// whose messageId has the wrong type is rejected.
func (h *Handler) ProcessScheduled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.WithField("request_id", middleware.GetReqID(ctx))

	req, err := h.decodeProcessRequest(r, log)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid messageId",
			"details": err.Error(),
		})
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid messageId",
			"details": err.Error(),
		})
		return
	}

	var messageID *uuid.UUID
	if req.MessageID != "" {
		id, err := uuid.Parse(req.MessageID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Invalid messageId",
				"details": err.Error(),
			})
			return
		}
		messageID = &id
	}

	report, err := h.proc.Process(ctx, messageID)
	if err != nil {
		log.WithError(err).Error("dispatch pass failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to process scheduled messages",
			"details": err.Error(),
		})
		return
	}

	if report.Processed == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "No messages due for processing",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"processed": report.Processed,
		"results":   report.Results,
	})
}

func (h *Handler) decodeProcessRequest(r *http.Request, log logrus.FieldLogger) (processRequest, error) {
	var req processRequest
	if r.Method != http.MethodPost || r.Body == nil {
		return req, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).Warn("failed to read request body")
		return processRequest{}, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return processRequest{}, err
		}
		log.WithError(err).Debug("ignoring malformed request body")
		return processRequest{}, nil
	}
	return req, nil
}

func (h *Handler) ListMessageLogs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid message id"})
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.logs.ListByMessage(r.Context(), id, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []model.DeliveryLog{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schedulerState())
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "in-process scheduler is disabled"})
		return
	}
	h.sched.Start()
	writeJSON(w, http.StatusOK, h.schedulerState())
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "in-process scheduler is disabled"})
		return
	}
	h.sched.Stop()
	writeJSON(w, http.StatusOK, h.schedulerState())
}

func (h *Handler) schedulerState() map[string]any {
	if h.sched == nil {
		return map[string]any{"enabled": false, "running": false}
	}

	state := map[string]any{
		"enabled": true,
		"running": h.sched.IsRunning(),
		"spec":    h.sched.Spec(),
	}
	if next := h.sched.NextRun(); !next.IsZero() {
		state["next_run"] = next.UTC().Format(time.RFC3339)
	}
	return state
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
