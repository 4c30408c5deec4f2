// Package mcp provides an MCP (Model Context Protocol) server that exposes
// toolbrain functionality as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/internal/storage"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// Server wraps toolbrain services and exposes them as MCP tools.
type Server struct {
	server        *gomcp.Server
	router        core.NeedRouter
	stats         core.StatsService
	conversations storage.ConversationStoreManager
	metricsCalc   observability.MetricsCalculator
}

// NewServer creates a new MCP server with the given service dependencies.
// metricsCalc may be nil if observability is disabled.
func NewServer(router core.NeedRouter, stats core.StatsService, conversations storage.ConversationStoreManager, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		router:        router,
		stats:         stats,
		conversations: conversations,
		metricsCalc:   metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "toolbrain", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type queryInput struct {
	Need string `json:"need" jsonschema:"required,free text describing what you want to do"`
}

type queryOutput struct {
	CapabilityID string   `json:"capability_id"`
	ToolID       string   `json:"tool_id"`
	Description  string   `json:"description"`
	Confidence   string   `json:"confidence"`
	Profile      string   `json:"profile,omitempty"`
	AlsoRelevant []string `json:"also_relevant,omitempty"`
}

type reportUsageInput struct {
	ToolID    string `json:"tool_id" jsonschema:"required,the tool that was used"`
	Need      string `json:"need" jsonschema:"required,the need the tool was used for"`
	Success   bool   `json:"success" jsonschema:"whether the tool call succeeded"`
	Notes     string `json:"notes,omitempty" jsonschema:"optional free-text notes about the outcome"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to attribute the report to; omit to start a new one"`
}

type reportUsageOutput struct {
	Logged    bool   `json:"logged"`
	SessionID string `json:"session_id"`
}

type rankToolsInput struct {
	ToolIDs []string `json:"tool_ids" jsonschema:"required,tool IDs to rank by learned weight and success rate"`
}

type rankedToolOutput struct {
	ToolID      string  `json:"tool_id"`
	Weight      float64 `json:"weight"`
	Uses        int     `json:"uses"`
	SuccessRate float64 `json:"success_rate"`
	Score       float64 `json:"score"`
}

type rankToolsOutput struct {
	Ranking []rankedToolOutput `json:"ranking"`
}

type statsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max entries in the most-used-tools and recent-failures lists; defaults to 5"`
}

type statsToolOutput struct {
	ToolID      string  `json:"tool_id"`
	Uses        int     `json:"uses"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
}

type statsFailureOutput struct {
	ToolID string `json:"tool_id"`
	Need   string `json:"need"`
	Notes  string `json:"notes,omitempty"`
}

type statsOutput struct {
	TotalSessions  int                  `json:"total_sessions"`
	TotalCalls     int                  `json:"total_calls"`
	TotalSuccesses int                  `json:"total_successes"`
	TotalFailures  int                  `json:"total_failures"`
	LastSessionID  string               `json:"last_session_id,omitempty"`
	MostUsedTools  []statsToolOutput    `json:"most_used_tools,omitempty"`
	RecentFailures []statsFailureOutput `json:"recent_failures,omitempty"`
}

type resumeInput struct{}

type resumeOutput struct {
	Resume string `json:"resume"`
}

type listCapabilitiesInput struct{}

type capabilityOutput struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	ToolID      string   `json:"tool_id"`
}

type listCapabilitiesOutput struct {
	Capabilities []capabilityOutput `json:"capabilities"`
	Count        int                `json:"count"`
}

type conversationCreateInput struct {
	Topic string   `json:"topic" jsonschema:"required,short topic for the conversation"`
	Owner string   `json:"owner,omitempty" jsonschema:"owner of the conversation; defaults to the configured owner"`
	Tags  []string `json:"tags,omitempty" jsonschema:"optional tags"`
}

type conversationOutput struct {
	ID           string   `json:"id"`
	Topic        string   `json:"topic"`
	Owner        string   `json:"owner"`
	Surfaces     []string `json:"surfaces,omitempty"`
	Status       string   `json:"status"`
	MessageCount int      `json:"message_count"`
	Created      string   `json:"created"`
	Updated      string   `json:"updated"`
}

type appendMessageInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,the conversation to append to"`
	Role           string `json:"role" jsonschema:"required,user or assistant"`
	Content        string `json:"content" jsonschema:"required,the message text"`
	Surface        string `json:"surface" jsonschema:"required,the surface the message came from (e.g. cli, web, mcp)"`
}

type linkArtifactInput struct {
	ConversationID string  `json:"conversation_id" jsonschema:"required,the conversation to link to"`
	Type           string  `json:"type" jsonschema:"required,artifact type (e.g. ticket, doc, commit)"`
	ArtifactID     string  `json:"artifact_id" jsonschema:"required,unique artifact identifier"`
	Title          string  `json:"title,omitempty" jsonschema:"optional artifact title"`
	Confidence     float64 `json:"confidence,omitempty" jsonschema:"link confidence in [0,1]"`
}

type closeConversationInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,the conversation to close"`
}

type listConversationsInput struct {
	Owner   string `json:"owner,omitempty" jsonschema:"filter by owner"`
	Surface string `json:"surface,omitempty" jsonschema:"filter by surface"`
	Status  string `json:"status,omitempty" jsonschema:"filter by status (active, closed)"`
}

type listConversationsOutput struct {
	Conversations []conversationOutput `json:"conversations"`
	Count         int                  `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	RoutesMatched        int            `json:"routes_matched"`
	RoutesMissed         int            `json:"routes_missed"`
	UsageReports         int            `json:"usage_reports"`
	UsageFailures        int            `json:"usage_failures"`
	RoutesByCapability   map[string]int `json:"routes_by_capability"`
	ReportsByTool        map[string]int `json:"reports_by_tool"`
	ConversationsCreated int            `json:"conversations_created"`
	MessagesAppended     int            `json:"messages_appended"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_query",
		Description: "Route a free-text need to the best registered capability. Returns the capability, owning tool, and match confidence.",
	}, s.handleQuery)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_report_usage",
		Description: "Report the outcome of using a tool. Feeds the learned ranking: success nudges the tool's weight up, failure down.",
	}, s.handleReportUsage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_rank_tools",
		Description: "Rank tool IDs by learned weight multiplied by success rate, best first.",
	}, s.handleRankTools)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_stats",
		Description: "Get overall session and usage totals.",
	}, s.handleStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_resume",
		Description: "Get a short briefing of where the last working session left off: totals, most-used tools, and recent failures.",
	}, s.handleResume)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "brain_list_capabilities",
		Description: "List every registered capability with its keywords and owning tool.",
	}, s.handleListCapabilities)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "conversation_create",
		Description: "Start a new durable conversation with a topic and optional owner and tags.",
	}, s.handleConversationCreate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "conversation_append",
		Description: "Append a message to a conversation. The message's surface is added to the conversation on first use.",
	}, s.handleAppendMessage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "conversation_link_artifact",
		Description: "Link an artifact (ticket, doc, commit) to a conversation. Linking the same artifact twice is a no-op.",
	}, s.handleLinkArtifact)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "conversation_close",
		Description: "Close a conversation. Closing an already closed conversation is a no-op.",
	}, s.handleCloseConversation)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "conversation_list",
		Description: "List conversations filtered by owner, surface, and status, most recently updated first.",
	}, s.handleListConversations)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: routes served, usage reports, conversation activity.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleQuery(_ context.Context, _ *gomcp.CallToolRequest, input queryInput) (*gomcp.CallToolResult, queryOutput, error) {
	if input.Need == "" {
		return errorResult("need is required"), queryOutput{}, nil
	}

	result, err := s.router.RouteNeed(input.Need)
	if err != nil {
		return errorResult(fmt.Sprintf("routing need: %s", err)), queryOutput{}, nil
	}

	out := queryOutput{
		CapabilityID: result.CapabilityID,
		ToolID:       result.ToolID,
		Description:  result.Description,
		Confidence:   result.Confidence,
		Profile:      result.Profile,
		AlsoRelevant: result.AlsoRelevant,
	}
	return nil, out, nil
}

func (s *Server) handleReportUsage(_ context.Context, _ *gomcp.CallToolRequest, input reportUsageInput) (*gomcp.CallToolResult, reportUsageOutput, error) {
	ack, err := s.router.ReportUsage(core.UsageReport{
		ToolID:    input.ToolID,
		Need:      input.Need,
		Success:   input.Success,
		Notes:     input.Notes,
		SessionID: input.SessionID,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("reporting usage: %s", err)), reportUsageOutput{}, nil
	}

	return nil, reportUsageOutput{Logged: ack.Logged, SessionID: ack.SessionID}, nil
}

func (s *Server) handleRankTools(_ context.Context, _ *gomcp.CallToolRequest, input rankToolsInput) (*gomcp.CallToolResult, rankToolsOutput, error) {
	ranked, err := s.router.RankTools(input.ToolIDs)
	if err != nil {
		return errorResult(fmt.Sprintf("ranking tools: %s", err)), rankToolsOutput{}, nil
	}

	out := rankToolsOutput{Ranking: make([]rankedToolOutput, len(ranked))}
	for i, rt := range ranked {
		out.Ranking[i] = rankedToolOutput{
			ToolID:      rt.ToolID,
			Weight:      rt.Weight,
			Uses:        rt.Uses,
			SuccessRate: rt.SuccessRate,
			Score:       rt.Score,
		}
	}
	return nil, out, nil
}

func (s *Server) handleStats(_ context.Context, _ *gomcp.CallToolRequest, input statsInput) (*gomcp.CallToolResult, statsOutput, error) {
	summary, err := s.stats.Summary(input.Limit)
	if err != nil {
		return errorResult(fmt.Sprintf("building summary: %s", err)), statsOutput{}, nil
	}

	out := statsOutput{
		TotalSessions:  summary.TotalSessions,
		TotalCalls:     summary.TotalCalls,
		TotalSuccesses: summary.TotalSuccesses,
		TotalFailures:  summary.TotalFailures,
	}
	if summary.LastSession != nil {
		out.LastSessionID = summary.LastSession.ID
	}
	for _, p := range summary.MostUsedTools {
		out.MostUsedTools = append(out.MostUsedTools, statsToolOutput{
			ToolID:      p.ToolID,
			Uses:        p.Uses,
			Successes:   p.Successes,
			SuccessRate: p.SuccessRate,
		})
	}
	for _, rec := range summary.RecentFailures {
		out.RecentFailures = append(out.RecentFailures, statsFailureOutput{
			ToolID: rec.ToolID,
			Need:   rec.Need,
			Notes:  rec.Notes,
		})
	}
	return nil, out, nil
}

func (s *Server) handleResume(_ context.Context, _ *gomcp.CallToolRequest, _ resumeInput) (*gomcp.CallToolResult, resumeOutput, error) {
	resume, err := s.stats.FormatResume()
	if err != nil {
		return errorResult(fmt.Sprintf("formatting resume: %s", err)), resumeOutput{}, nil
	}
	return nil, resumeOutput{Resume: resume}, nil
}

func (s *Server) handleListCapabilities(_ context.Context, _ *gomcp.CallToolRequest, _ listCapabilitiesInput) (*gomcp.CallToolResult, listCapabilitiesOutput, error) {
	inv, err := s.router.ListCapabilities()
	if err != nil {
		return errorResult(fmt.Sprintf("listing capabilities: %s", err)), listCapabilitiesOutput{}, nil
	}

	out := listCapabilitiesOutput{
		Capabilities: make([]capabilityOutput, len(inv.Capabilities)),
		Count:        len(inv.Capabilities),
	}
	for i, c := range inv.Capabilities {
		out.Capabilities[i] = capabilityOutput{
			ID:          c.ID,
			Description: c.Description,
			Keywords:    c.Keywords,
			ToolID:      c.ToolID,
		}
	}
	return nil, out, nil
}

func (s *Server) handleConversationCreate(_ context.Context, _ *gomcp.CallToolRequest, input conversationCreateInput) (*gomcp.CallToolResult, conversationOutput, error) {
	conv, err := s.conversations.Create(input.Topic, input.Owner, input.Tags)
	if err != nil {
		return errorResult(fmt.Sprintf("creating conversation: %s", err)), conversationOutput{}, nil
	}
	return nil, conversationToOutput(conv), nil
}

func (s *Server) handleAppendMessage(_ context.Context, _ *gomcp.CallToolRequest, input appendMessageInput) (*gomcp.CallToolResult, conversationOutput, error) {
	if input.ConversationID == "" {
		return errorResult("conversation_id is required"), conversationOutput{}, nil
	}

	conv, err := s.conversations.AppendMessage(input.ConversationID, models.Message{
		Role:    input.Role,
		Content: input.Content,
		Surface: input.Surface,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("appending to %s: %s", input.ConversationID, err)), conversationOutput{}, nil
	}
	return nil, conversationToOutput(conv), nil
}

func (s *Server) handleLinkArtifact(_ context.Context, _ *gomcp.CallToolRequest, input linkArtifactInput) (*gomcp.CallToolResult, conversationOutput, error) {
	if input.ConversationID == "" {
		return errorResult("conversation_id is required"), conversationOutput{}, nil
	}

	conv, err := s.conversations.LinkArtifact(input.ConversationID, models.ArtifactLink{
		Type:       input.Type,
		ID:         input.ArtifactID,
		Title:      input.Title,
		Confidence: input.Confidence,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("linking artifact to %s: %s", input.ConversationID, err)), conversationOutput{}, nil
	}
	return nil, conversationToOutput(conv), nil
}

func (s *Server) handleCloseConversation(_ context.Context, _ *gomcp.CallToolRequest, input closeConversationInput) (*gomcp.CallToolResult, conversationOutput, error) {
	if input.ConversationID == "" {
		return errorResult("conversation_id is required"), conversationOutput{}, nil
	}

	conv, err := s.conversations.Close(input.ConversationID)
	if err != nil {
		return errorResult(fmt.Sprintf("closing %s: %s", input.ConversationID, err)), conversationOutput{}, nil
	}
	return nil, conversationToOutput(conv), nil
}

func (s *Server) handleListConversations(_ context.Context, _ *gomcp.CallToolRequest, input listConversationsInput) (*gomcp.CallToolResult, listConversationsOutput, error) {
	entries, err := s.conversations.List(models.ConversationFilter{
		Owner:   input.Owner,
		Surface: input.Surface,
		Status:  models.ParseStatusFilter(input.Status),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing conversations: %s", err)), listConversationsOutput{}, nil
	}

	out := listConversationsOutput{
		Conversations: make([]conversationOutput, len(entries)),
		Count:         len(entries),
	}
	for i, e := range entries {
		out.Conversations[i] = conversationOutput{
			ID:           e.ID,
			Topic:        e.Topic,
			Owner:        e.Owner,
			Surfaces:     e.Surfaces,
			Status:       string(e.Status),
			MessageCount: e.MessageCount,
			Created:      e.CreatedAt.Format(time.RFC3339),
			Updated:      e.UpdatedAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		RoutesMatched:        metrics.RoutesMatched,
		RoutesMissed:         metrics.RoutesMissed,
		UsageReports:         metrics.UsageReports,
		UsageFailures:        metrics.UsageFailures,
		RoutesByCapability:   metrics.RoutesByCapability,
		ReportsByTool:        metrics.ReportsByTool,
		ConversationsCreated: metrics.ConversationsCreated,
		MessagesAppended:     metrics.MessagesAppended,
		EventCount:           metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func conversationToOutput(c *models.Conversation) conversationOutput {
	return conversationOutput{
		ID:           c.ID,
		Topic:        c.Topic,
		Owner:        c.Owner,
		Surfaces:     c.Surfaces,
		Status:       string(c.Status),
		MessageCount: c.MessageCount,
		Created:      c.CreatedAt.Format(time.RFC3339),
		Updated:      c.UpdatedAt.Format(time.RFC3339),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		RoutesByCapability: make(map[string]int),
		ReportsByTool:      make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
