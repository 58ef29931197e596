package memory

import (
	"context"
	"testing"

	"github.com/freitext-dev/freitext/pkg/api"
)

func sample() []api.ToolDefinition {
	return []api.ToolDefinition{
		{ID: "t1", Name: "lookup_record", ServiceID: "svc", ServiceEndpoint: "http://x", Enabled: true},
		{ID: "t2", Name: "run_ttest", ServiceID: "svc", ServiceEndpoint: "http://x", Enabled: false},
	}
}

func TestListEnabledTools(t *testing.T) {
	p := New(sample())

	tools, err := p.ListEnabledTools(context.Background())
	if err != nil {
		t.Fatalf("ListEnabledTools: %v", err)
	}
	if len(tools) != 1 || tools[0].ID != "t1" {
		t.Errorf("expected only the enabled tool, got %v", tools)
	}
}

func TestSetEnabled(t *testing.T) {
	p := New(sample())
	p.SetEnabled("t2", true)

	tools, _ := p.ListEnabledTools(context.Background())
	if len(tools) != 2 {
		t.Errorf("expected 2 enabled tools, got %d", len(tools))
	}
}

func TestIncrementUsage(t *testing.T) {
	p := New(sample())

	for i := 0; i < 3; i++ {
		if err := p.IncrementUsage(context.Background(), "t1"); err != nil {
			t.Fatalf("IncrementUsage: %v", err)
		}
	}
	if got := p.Usage("t1"); got != 3 {
		t.Errorf("usage = %d, want 3", got)
	}

	// The counter is reflected in listings.
	tools, _ := p.ListEnabledTools(context.Background())
	if tools[0].UsageCount != 3 {
		t.Errorf("listed usage = %d, want 3", tools[0].UsageCount)
	}
}
