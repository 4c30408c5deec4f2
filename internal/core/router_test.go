package core

import (
	"errors"
	"sort"
	"testing"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// fakeWeights implements WeightStore with a fixed score table.
type fakeWeights struct {
	scores   map[string]float64
	outcomes []string
	fail     bool
}

func (f *fakeWeights) RecordOutcome(toolID string, success bool) error {
	if f.fail {
		return errors.New("weight store down")
	}
	f.outcomes = append(f.outcomes, toolID)
	return nil
}

func (f *fakeWeights) GetWeight(toolID string) float64 {
	if w, ok := f.scores[toolID]; ok {
		return w
	}
	return models.DefaultToolWeight
}

func (f *fakeWeights) Rank(toolIDs []string) []models.RankedTool {
	ranked := make([]models.RankedTool, 0, len(toolIDs))
	for _, id := range toolIDs {
		score := models.DefaultToolWeight * models.NeutralSuccessRate
		if s, ok := f.scores[id]; ok {
			score = s
		}
		ranked = append(ranked, models.RankedTool{ToolID: id, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// fakeSessions implements SessionRecorder.
type fakeSessions struct {
	ensured  []string
	recorded []string
	fail     bool
}

func (f *fakeSessions) EnsureSession(id string) (string, error) {
	if id == "" {
		id = "S-00001"
	}
	f.ensured = append(f.ensured, id)
	return id, nil
}

func (f *fakeSessions) RecordUsage(sessionID string, success bool) error {
	if f.fail {
		return errors.New("session store down")
	}
	f.recorded = append(f.recorded, sessionID)
	return nil
}

// fakeUsageLog implements UsageAppender.
type fakeUsageLog struct {
	records []models.ToolUsageRecord
}

func (f *fakeUsageLog) AppendUsage(rec models.ToolUsageRecord) error {
	f.records = append(f.records, rec)
	return nil
}

// staticRegistry implements RegistryManager around a compiled registry.
type staticRegistry struct {
	reg *Registry
}

func (s *staticRegistry) Load() error      { return nil }
func (s *staticRegistry) Current() *Registry { return s.reg }

func newTestRouter(t *testing.T, weights *fakeWeights) (NeedRouter, *fakeSessions, *fakeUsageLog) {
	t.Helper()
	sessions := &fakeSessions{}
	usage := &fakeUsageLog{}
	router := NewNeedRouter(&staticRegistry{reg: testRegistry(t)}, weights, sessions, usage)
	return router, sessions, usage
}

func TestRouteNeed_HighConfidenceOnTwoKeywords(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	result, err := router.RouteNeed("export this to docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CapabilityID != "export-docx" {
		t.Errorf("expected export-docx, got %s", result.CapabilityID)
	}
	if result.ToolID != "exporter" {
		t.Errorf("expected exporter, got %s", result.ToolID)
	}
	if result.Confidence != "high" {
		t.Errorf("expected high confidence, got %s", result.Confidence)
	}
}

func TestRouteNeed_MediumConfidenceOnOneKeyword(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	result, err := router.RouteNeed("render the report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != "medium" {
		t.Errorf("expected medium confidence, got %s", result.Confidence)
	}
}

func TestRouteNeed_EmptyNeedIsValidationError(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	_, err := router.RouteNeed("")
	if !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRouteNeed_NoMatchIsNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	_, err := router.RouteNeed("bake a chocolate cake")
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRouteNeed_LearnedScoreBreaksKeywordTies(t *testing.T) {
	// Both capabilities score one keyword hit; the searcher's learned score
	// is higher, so search-text must win despite document order.
	weights := &fakeWeights{scores: map[string]float64{
		"exporter": 0.4,
		"searcher": 1.5,
	}}
	router, _, _ := newTestRouter(t, weights)

	result, err := router.RouteNeed("export or search something")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CapabilityID != "search-text" {
		t.Errorf("expected search-text to win tie, got %s", result.CapabilityID)
	}
}

func TestRouteNeed_ListsAlternatives(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	result, err := router.RouteNeed("export and render and search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AlsoRelevant) != 2 {
		t.Errorf("expected 2 alternatives, got %v", result.AlsoRelevant)
	}
}

func TestReportUsage_RecordsOutcomeSessionAndLog(t *testing.T) {
	weights := &fakeWeights{}
	sessions := &fakeSessions{}
	usage := &fakeUsageLog{}
	router := NewNeedRouter(&staticRegistry{reg: testRegistry(t)}, weights, sessions, usage)

	ack, err := router.ReportUsage(UsageReport{ToolID: "exporter", Need: "export docs", Success: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ack.Logged {
		t.Error("expected ack.Logged")
	}
	if ack.SessionID != "S-00001" {
		t.Errorf("expected S-00001, got %s", ack.SessionID)
	}
	if len(weights.outcomes) != 1 || weights.outcomes[0] != "exporter" {
		t.Errorf("expected one weight outcome for exporter, got %v", weights.outcomes)
	}
	if len(sessions.recorded) != 1 {
		t.Errorf("expected one session usage record, got %d", len(sessions.recorded))
	}
	if len(usage.records) != 1 || usage.records[0].ToolID != "exporter" {
		t.Errorf("expected one usage record for exporter, got %v", usage.records)
	}
}

func TestReportUsage_ValidatesInput(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	if _, err := router.ReportUsage(UsageReport{Need: "something"}); !IsValidation(err) {
		t.Errorf("expected ValidationError for missing tool_id, got %v", err)
	}
	if _, err := router.ReportUsage(UsageReport{ToolID: "exporter"}); !IsValidation(err) {
		t.Errorf("expected ValidationError for missing need, got %v", err)
	}
}

func TestReportUsage_WeightFailureDoesNotSuppressSessionAppend(t *testing.T) {
	weights := &fakeWeights{fail: true}
	sessions := &fakeSessions{}
	usage := &fakeUsageLog{}
	router := NewNeedRouter(&staticRegistry{reg: testRegistry(t)}, weights, sessions, usage)

	ack, err := router.ReportUsage(UsageReport{ToolID: "exporter", Need: "export"})
	if err == nil {
		t.Fatal("expected error from weight store")
	}
	if ack == nil || ack.Logged {
		t.Errorf("expected non-logged ack, got %+v", ack)
	}
	// The session append and usage journal still happened.
	if len(sessions.recorded) != 1 {
		t.Errorf("expected session append despite weight failure, got %d", len(sessions.recorded))
	}
	if len(usage.records) != 1 {
		t.Errorf("expected usage record despite weight failure, got %d", len(usage.records))
	}
}

func TestRankTools_EmptyInputIsValidationError(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	if _, err := router.RankTools(nil); !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestListCapabilities(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeWeights{})

	inv, err := router.ListCapabilities()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.TotalCapabilities != 3 || inv.TotalTools != 3 {
		t.Errorf("expected 3 capabilities and 3 tools, got %d/%d", inv.TotalCapabilities, inv.TotalTools)
	}
}
