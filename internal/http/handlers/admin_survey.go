package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/http/middleware"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// manualBroadcastTimeout bounds a broadcast started from the admin API. The
// run does not follow the request context, so a dropped client cannot stop
// it halfway through the roster.
const manualBroadcastTimeout = 10 * time.Minute

type broadcaster interface {
	Broadcast(ctx context.Context) survey.BroadcastReport
}

type conversationState interface {
	Snapshot() []survey.RecipientSnapshot
	Get(recipientID string) (survey.Entry, bool)
}

type tableInvalidator interface {
	Invalidate(ctx context.Context, worksheets ...string) error
}

// AdminSurveyHandler exposes broadcast and state inspection to operators.
type AdminSurveyHandler struct {
	dispatcher broadcaster
	state      conversationState
	cache      tableInvalidator
	worksheets []string
	logger     *logging.Logger

	running sync.Mutex
}

// NewAdminSurveyHandler builds the handler. cache may be nil; when set, the
// listed worksheets are evicted before every manual broadcast.
func NewAdminSurveyHandler(dispatcher broadcaster, state conversationState, cache tableInvalidator, worksheets []string, logger *logging.Logger) *AdminSurveyHandler {
	if dispatcher == nil || state == nil {
		panic("handlers: admin survey handler requires dispatcher and state")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSurveyHandler{
		dispatcher: dispatcher,
		state:      state,
		cache:      cache,
		worksheets: worksheets,
		logger:     logger,
	}
}

// Broadcast handles POST /admin/broadcast.
func (h *AdminSurveyHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	if !h.running.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "broadcast already running"})
		return
	}
	defer h.running.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), manualBroadcastTimeout)
	defer cancel()

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, h.worksheets...); err != nil {
			h.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	h.logger.Info("manual broadcast requested", "admin", middleware.AdminSubject(r.Context()))
	report := h.dispatcher.Broadcast(ctx)
	writeJSON(w, http.StatusOK, report)
}

// ConversationsResponse is a page of recipient cursors.
type ConversationsResponse struct {
	Conversations []survey.RecipientSnapshot `json:"conversations"`
	Total         int                        `json:"total"`
	Page          int                        `json:"page"`
	PageSize      int                        `json:"page_size"`
}

// ListConversations handles GET /admin/conversations.
func (h *AdminSurveyHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 500 {
		pageSize = 100
	}

	all := h.state.Snapshot()
	if closed := r.URL.Query().Get("closed"); closed != "" {
		want, err := strconv.ParseBool(closed)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "closed must be a boolean"})
			return
		}
		filtered := all[:0]
		for _, s := range all {
			if s.Closed == want {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	writeJSON(w, http.StatusOK, ConversationsResponse{
		Conversations: all[start:end],
		Total:         len(all),
		Page:          page,
		PageSize:      pageSize,
	})
}

// GetConversation handles GET /admin/conversations/{recipientID}.
func (h *AdminSurveyHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recipientID")
	entry, ok := h.state.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipient not found"})
		return
	}
	writeJSON(w, http.StatusOK, survey.RecipientSnapshot{RecipientID: id, Entry: entry})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
