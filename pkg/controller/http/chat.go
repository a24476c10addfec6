package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"github.com/secmon-lab/plantops/pkg/utils/errutil"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
)

type focusRequest struct {
	PlantID model.PlantID `json:"plantId"`
}

type chatSessionResponse struct {
	SessionID string              `json:"sessionId"`
	PlantID   model.PlantID       `json:"plantId,omitempty"`
	Messages  []model.ChatMessage `json:"messages"`
}

func sessionResponse(session *usecase.ChatSession) chatSessionResponse {
	return chatSessionResponse{
		SessionID: session.ID(),
		PlantID:   session.Focus(),
		Messages:  session.Messages(),
	}
}

// focusChat scopes the chat to a plant, or to the whole garden when plantId is empty
func (s *Server) focusChat(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	session, err := s.uc.Chat.Focus(r.Context(), req.PlantID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(session))
}

func (s *Server) listChatMessages(w http.ResponseWriter, r *http.Request) {
	session, err := s.uc.Chat.Current(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(session))
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type streamEvent struct {
	Text string `json:"text"`
}

// sendChatMessage streams the reply as server-sent events: one "message" event per
// fragment followed by a single "done" event.
func (s *Server) sendChatMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(model.ErrInvalidInput, "message text is required"))
		return
	}

	session, err := s.uc.Chat.Current(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Chat-Session", session.ID())
	w.WriteHeader(http.StatusOK)

	for fragment := range session.Send(ctx, req.Text) {
		if err := writeEvent(w, "message", streamEvent{Text: fragment}); err != nil {
			logging.From(ctx).Warn("chat stream client went away", "error", err.Error())
			return
		}
		if err := rc.Flush(); err != nil {
			logging.From(ctx).Warn("failed to flush chat stream", "error", err.Error())
			return
		}
	}

	if err := writeEvent(w, "done", struct{}{}); err != nil {
		logging.From(ctx).Warn("failed to finish chat stream", "error", err.Error())
		return
	}
	_ = rc.Flush()
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal stream event")
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return goerr.Wrap(err, "failed to write stream event")
	}
	return nil
}
