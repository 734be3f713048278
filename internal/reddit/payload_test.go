package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

func testRequest(depth model.Depth) model.SearchRequest {
	return model.SearchRequest{
		Topic:    "Python testing",
		FromDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Depth:    depth,
		Model:    "gpt-4o",
	}
}

func TestBuildPayloadStructure(t *testing.T) {
	p := NewPayloadBuilder(nil, "reddit.com").Build(testRequest(model.DepthDefault))

	if p.Model != "gpt-4o" {
		t.Errorf("Model = %v, want gpt-4o", p.Model)
	}
	if len(p.Tools) != 1 || p.Tools[0].Type != "web_search" {
		t.Fatalf("Tools = %+v", p.Tools)
	}
	if got := p.Tools[0].Filters.AllowedDomains; len(got) != 1 || got[0] != "reddit.com" {
		t.Errorf("AllowedDomains = %v", got)
	}
	if len(p.Include) != 1 || p.Include[0] != "web_search_call.action.sources" {
		t.Errorf("Include = %v", p.Include)
	}
	if !strings.Contains(p.Input, "Find Reddit discussion threads about: Python testing") {
		t.Errorf("Input missing topic: %s", p.Input)
	}
	if !strings.Contains(p.Input, "from 2026-01-01 to 2026-01-31") {
		t.Errorf("Input missing date window: %s", p.Input)
	}
	if !strings.Contains(p.Input, `"/r/" AND "/comments/"`) {
		t.Error("Input missing permalink rule")
	}
}

func TestBuildPayloadJSONShape(t *testing.T) {
	body, err := NewPayloadBuilder(nil, "reddit.com").Build(testRequest(model.DepthQuick)).Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, key := range []string{"model", "tools", "include", "input"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing %q", key)
		}
	}
	tools := decoded["tools"].([]any)
	filters := tools[0].(map[string]any)["filters"].(map[string]any)
	if _, ok := filters["allowed_domains"]; !ok {
		t.Error("payload missing tools[0].filters.allowed_domains")
	}
}

func TestBuildPayloadDepthBounds(t *testing.T) {
	tests := []struct {
		depth    model.Depth
		min, max int
	}{
		{model.DepthQuick, 15, 25},
		{model.DepthDefault, 30, 50},
		{model.DepthDeep, 70, 100},
		{model.Depth("exhaustive"), 30, 50},
		{model.Depth(""), 30, 50},
	}
	b := NewPayloadBuilder(nil, "reddit.com")
	for _, tt := range tests {
		p := b.Build(testRequest(tt.depth))
		want := fmt.Sprintf("Find %d-%d threads.", tt.min, tt.max)
		if !strings.Contains(p.Input, want) {
			t.Errorf("Build(%q) input missing %q", tt.depth, want)
		}
	}
}

func TestBuildPayloadDeterministic(t *testing.T) {
	b := NewPayloadBuilder(nil, "reddit.com")
	first, err := b.Build(testRequest(model.DepthDeep)).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build(testRequest(model.DepthDeep)).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Build() is not deterministic")
	}
}

func TestBuildPayloadOddTopic(t *testing.T) {
	req := testRequest(model.DepthDefault)
	req.Topic = `quotes " and braces {} and %d verbs`
	req.FromDate = time.Time{}

	body, err := NewPayloadBuilder(nil, "reddit.com").Build(req).Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !strings.Contains(p.Input, req.Topic) {
		t.Errorf("topic not embedded verbatim: %s", p.Input)
	}
	if strings.Contains(p.Input, "Focus on threads from") {
		t.Error("date window should be omitted when a date is missing")
	}
}

func TestCoreSubject(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"best nano banana prompting practices", "nano banana"},
		{"killer features of clawdbot", "clawdbot"},
		{"top Claude Code skills", "claude code skills"},
		{"the best of the top", "the best of the top"},
		{"one two three four five", "one two three"},
	}
	for _, tt := range tests {
		if got := CoreSubject(tt.topic); got != tt.want {
			t.Errorf("CoreSubject(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
