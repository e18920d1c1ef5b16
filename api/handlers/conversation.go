package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/api"
	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/messaging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Conversation exists for dependency injection purposes
type Conversation struct {
	Manager *messaging.Manager
}

// session resolves the caller's live session, loading it on first use. A
// load failure is answered with a retryable 503 and the caller gets false.
func (c Conversation) session(w http.ResponseWriter, r *http.Request) (*messaging.Session, bool) {
	viewer, ok := api.ViewerFrom(r.Context())
	if !ok {
		config.ErrorStatus("viewer missing from request", http.StatusUnauthorized, w, errors.New("unauthorized"))
		return nil, false
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	s, err := c.Manager.Open(ctx, viewer)
	if err != nil {
		zap.S().Errorw("failed to load conversations", "viewer", viewer.ID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, models.RetryableErrorResponse{
			Error:     "failed to load conversations",
			Retryable: true,
		})
		return nil, false
	}
	return s, true
}

// ConversationsHandler returns the viewer's directory, most recent first,
// optionally filtered by the q query parameter
func (c Conversation) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	convs := s.Search(q)

	resp := models.DirectoryResponse{
		Conversations: make([]models.ConversationSummary, 0, len(convs)),
		Query:         q,
	}
	for _, conv := range convs {
		resp.Conversations = append(resp.Conversations, models.Summarize(conv))
	}
	writeJSON(w, http.StatusOK, resp)
}

// OpenConversationHandler makes a conversation the active one and marks its
// messages read
func (c Conversation) OpenConversationHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["conversation_id"]
	conv, err := s.Select(id)
	if err != nil {
		writeSessionError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ThreadHandler returns the rendering plan for one conversation
func (c Conversation) ThreadHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["conversation_id"]
	thread, err := s.ThreadFor(id)
	if err != nil {
		writeSessionError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

// ActiveThreadHandler returns the rendering plan for the active conversation,
// or the empty state when nothing is selected
func (c Conversation) ActiveThreadHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.ActiveThread())
}

// SendMessageHandler sends a message from the viewer. Blank messages are
// ignored and answered with 204.
func (c Conversation) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["conversation_id"]

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	var att *models.Attachment
	if req.Attachment != nil {
		a := req.Attachment
		if a.Kind != models.AttachmentDocument && a.Kind != models.AttachmentImage {
			config.ErrorStatus("invalid attachment", http.StatusBadRequest, w, fmt.Errorf("unknown attachment kind %q", a.Kind))
			return
		}
		att = models.NewAttachment(a.Kind, a.DisplayName, a.SizeBytes)
	}

	msg, err := s.SendWithAttachment(id, req.Text, att)
	c.writeSent(w, msg, err, id)
}

// SaveDraftHandler stores the compose text of a conversation
func (c Conversation) SaveDraftHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["conversation_id"]

	var req models.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := s.SetDraft(id, req.Text); err != nil {
		writeSessionError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendDraftHandler sends the stored compose text of a conversation
func (c Conversation) SendDraftHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["conversation_id"]
	msg, err := s.SendDraft(id)
	c.writeSent(w, msg, err, id)
}

func (c Conversation) writeSent(w http.ResponseWriter, msg models.Message, err error, conversationID string) {
	if errors.Is(err, messaging.ErrEmptyMessage) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeSessionError(w, err, conversationID)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// RetryMessageHandler stores a failed message again
func (c Conversation) RetryMessageHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["message_id"]
	msg, err := s.Retry(id)
	if err != nil {
		writeSessionError(w, err, id)
		return
	}
	writeJSON(w, http.StatusAccepted, msg)
}

func writeSessionError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, messaging.ErrConversationNotFound):
		config.ErrorStatus(fmt.Sprintf("conversation %s not found", id), http.StatusNotFound, w, err)
	case errors.Is(err, messaging.ErrMessageNotFound):
		config.ErrorStatus(fmt.Sprintf("message %s not found", id), http.StatusNotFound, w, err)
	case errors.Is(err, messaging.ErrNotFailed):
		config.ErrorStatus("only failed messages can be retried", http.StatusConflict, w, err)
	default:
		config.ErrorStatus("failed to handle request", http.StatusInternalServerError, w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
