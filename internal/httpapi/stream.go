package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/valter-silva-au/toolbrain/internal/broadcast"
	"github.com/valter-silva-au/toolbrain/internal/observability"
)

// handleStream serves one long-lived server-sent-events connection. The
// first event carries the connection ID so producers can address this
// subscriber via POST /stream/{id}. The delivery loop blocks on the
// connection's queue; on keep-alive timeout it emits a comment frame
// instead of a payload so intermediaries never kill an idle connection.
// Cleanup runs on every exit path, including abnormal disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	id, queue := s.broker.Open()
	defer func() {
		s.broker.Close(id)
		s.emit(observability.EventStreamClosed, "stream closed", map[string]any{"connection_id": id})
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.emit(observability.EventStreamOpened, "stream opened", map[string]any{"connection_id": id})

	if err := writeSSE(w, "connected", map[string]any{"connection_id": id}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTimer(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case msg, ok := <-queue:
			if !ok {
				return
			}
			if err := writeSSE(w, msg.Event, msg.Data); err != nil {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}

		if !keepAlive.Stop() {
			select {
			case <-keepAlive.C:
			default:
			}
		}
		keepAlive.Reset(s.keepAlive)
	}
}

// handlePublish enqueues a message for one subscriber. Publishing to a
// connection that has since closed returns 404; a full queue drops the
// message and reports it, but the connection stays alive.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var msg broadcast.Message
	if err := decodeJSON(r, &msg); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.broker.Push(id, msg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"delivered": true, "connection_id": id})
}

// writeSSE writes one event frame. An empty event name writes a bare data
// frame.
func writeSSE(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling SSE payload: %w", err)
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
