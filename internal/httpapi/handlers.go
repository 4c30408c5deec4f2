package httpapi

import (
	"net/http"
	"strconv"

	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
)

type queryRequest struct {
	Need string `json:"need"`
}

type reportRequest struct {
	ToolID    string `json:"tool_id"`
	Need      string `json:"need"`
	Success   bool   `json:"success"`
	Notes     string `json:"notes,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type rankRequest struct {
	ToolIDs []string `json:"tool_ids"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":      "ok",
		"connections": s.broker.Count(),
	}
	if reg := s.registry.Current(); reg != nil {
		body["registry_version"] = reg.Version()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.router.RouteNeed(req.Need)
	if err != nil {
		if core.IsNotFound(err) {
			s.emit(observability.EventRouteMissed, "no capability matched", map[string]any{"need": req.Need})
		}
		writeError(w, err)
		return
	}

	s.emit(observability.EventRouteMatched, "need routed", map[string]any{
		"capability_id": result.CapabilityID,
		"tool_id":       result.ToolID,
		"confidence":    result.Confidence,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ack, err := s.router.ReportUsage(core.UsageReport{
		ToolID:    req.ToolID,
		Need:      req.Need,
		Success:   req.Success,
		Notes:     req.Notes,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.emit(observability.EventUsageReported, "usage reported", map[string]any{
		"tool_id":    req.ToolID,
		"success":    req.Success,
		"session_id": ack.SessionID,
	})
	writeJSON(w, http.StatusOK, ack)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ranked, err := s.router.RankTools(req.ToolIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ranking": ranked})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, &core.ValidationError{Field: "limit", Reason: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	summary, err := s.stats.Summary(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	resume, err := s.stats.FormatResume()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(resume))
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	inv, err := s.router.ListCapabilities()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleReload re-reads the capability map. On failure the previous
// registry stays active and the error is reported.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Load(); err != nil {
		writeError(w, err)
		return
	}

	reg := s.registry.Current()
	s.emit(observability.EventRegistryReloaded, "registry reloaded", map[string]any{
		"version": reg.Version(),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"version":  reg.Version(),
	})
}
