package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

type conversationCreateRequest struct {
	Topic string   `json:"topic"`
	Owner string   `json:"owner,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

type messageAppendRequest struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Surface string         `json:"surface"`
	Mode    string         `json:"mode,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type artifactLinkRequest struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (s *Server) handleConversationCreate(w http.ResponseWriter, r *http.Request) {
	var req conversationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	conv, err := s.conversations.Create(req.Topic, req.Owner, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}

	s.emit(observability.EventConversationCreated, "conversation created", map[string]any{
		"conversation_id": conv.ID,
		"owner":           conv.Owner,
	})
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	filter := models.ConversationFilter{
		Owner:   r.URL.Query().Get("owner"),
		Surface: r.URL.Query().Get("surface"),
		Status:  models.ParseStatusFilter(r.URL.Query().Get("status")),
	}

	entries, err := s.conversations.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": entries,
		"total":         len(entries),
	})
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversations.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleMessageAppend(w http.ResponseWriter, r *http.Request) {
	var req messageAppendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	conv, err := s.conversations.AppendMessage(id, models.Message{
		Role:    req.Role,
		Content: req.Content,
		Surface: req.Surface,
		Mode:    req.Mode,
		Meta:    req.Meta,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.emit(observability.EventMessageAppended, "message appended", map[string]any{
		"conversation_id": id,
		"surface":         req.Surface,
	})
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleArtifactLink(w http.ResponseWriter, r *http.Request) {
	var req artifactLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	conv, err := s.conversations.LinkArtifact(chi.URLParam(r, "id"), models.ArtifactLink{
		Type:       req.Type,
		ID:         req.ID,
		Title:      req.Title,
		Confidence: req.Confidence,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleConversationClose(w http.ResponseWriter, r *http.Request) {
	conv, err := s.conversations.Close(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
