package core

import (
	"testing"

	"github.com/valter-silva-au/toolbrain/pkg/models"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := compileRegistry(models.RegistryDocument{
		Version: "1.0",
		Tools: []models.Tool{
			{ID: "exporter", Kind: models.ToolKindScript},
			{ID: "renderer", Kind: models.ToolKindNetworkService},
			{ID: "searcher", Kind: models.ToolKindEmbeddedProcess},
		},
		Capabilities: []models.Capability{
			{ID: "export-docx", Description: "export documents", Keywords: []string{"export", "docx", "word"}, ToolID: "exporter"},
			{ID: "render-pdf", Description: "render PDFs", Keywords: []string{"render", "pdf"}, ToolID: "renderer"},
			{ID: "search-text", Description: "full text search", Keywords: []string{"search", "find", "text"}, ToolID: "searcher"},
		},
	})
	if err != nil {
		t.Fatalf("compiling registry: %v", err)
	}
	return reg
}

func TestMatchNeed_ScoresKeywordOverlap(t *testing.T) {
	reg := testRegistry(t)

	matches := MatchNeed("export my report to docx", reg)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Capability.ID != "export-docx" {
		t.Errorf("expected export-docx first, got %s", matches[0].Capability.ID)
	}
	if matches[0].Score != 2 {
		t.Errorf("expected score 2, got %d", matches[0].Score)
	}
}

func TestMatchNeed_CaseInsensitive(t *testing.T) {
	reg := testRegistry(t)

	matches := MatchNeed("EXPORT to DOCX please", reg)
	if len(matches) == 0 || matches[0].Capability.ID != "export-docx" {
		t.Fatalf("expected export-docx match, got %+v", matches)
	}
}

func TestMatchNeed_NoOverlapReturnsEmpty(t *testing.T) {
	reg := testRegistry(t)

	if matches := MatchNeed("bake a chocolate cake", reg); len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestMatchNeed_EmptyTextReturnsEmpty(t *testing.T) {
	reg := testRegistry(t)

	if matches := MatchNeed("", reg); len(matches) != 0 {
		t.Errorf("expected no matches for empty text, got %d", len(matches))
	}
	if matches := MatchNeed("   ", reg); len(matches) != 0 {
		t.Errorf("expected no matches for blank text, got %d", len(matches))
	}
}

func TestMatchNeed_CapsAtThree(t *testing.T) {
	reg, err := compileRegistry(models.RegistryDocument{
		Version: "1.0",
		Tools:   []models.Tool{{ID: "t", Kind: models.ToolKindScript}},
		Capabilities: []models.Capability{
			{ID: "a", Keywords: []string{"data"}, ToolID: "t"},
			{ID: "b", Keywords: []string{"data"}, ToolID: "t"},
			{ID: "c", Keywords: []string{"data"}, ToolID: "t"},
			{ID: "d", Keywords: []string{"data"}, ToolID: "t"},
		},
	})
	if err != nil {
		t.Fatalf("compiling registry: %v", err)
	}

	matches := MatchNeed("process some data", reg)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	// Equal scores keep document order.
	for i, want := range []string{"a", "b", "c"} {
		if matches[i].Capability.ID != want {
			t.Errorf("match %d: expected %s, got %s", i, want, matches[i].Capability.ID)
		}
	}
}

func TestClassifyProfile(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"code triggers", "refactor this python function", ProfileCode},
		{"reasoning triggers", "analyze the tradeoff and decide", ProfileReasoning},
		{"math triggers", "calculate the compound interest", ProfileMath},
		{"general triggers", "summarize this article", ProfileGeneral},
		{"nothing triggers", "hello there", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyProfile(tt.text); got != tt.want {
				t.Errorf("ClassifyProfile(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyProfile_SpecialistWinsTies(t *testing.T) {
	// "summarize" triggers general and "code" triggers code; one hit each.
	// The specialist profile must win the tie.
	got := ClassifyProfile("summarize this code")
	if got != ProfileCode {
		t.Errorf("expected %s on tie, got %s", ProfileCode, got)
	}
}
