package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestProcess_PlainProse(t *testing.T) {
	reply := "Quarterly revenue grew by 12 percent, driven by the Acme account."
	result := process(t, reply, "How did revenue develop?")

	if result.HasToolCalls {
		t.Error("plain prose must not produce tool calls")
	}
	if result.FinalResponse != reply {
		t.Errorf("final = %q, want original reply", result.FinalResponse)
	}
}

func TestProcess_FencedLookup(t *testing.T) {
	reply := "Let me look that up.\n\n" + fenced("lookup_record", `{"id":"A1"}`)
	result := process(t, reply, "What do we know about Acme?")

	if !result.HasToolCalls {
		t.Fatal("expected tool calls")
	}
	if len(result.ToolResults) != 1 {
		t.Fatalf("len(ToolResults) = %d, want 1", len(result.ToolResults))
	}
	if !result.ToolResults[0].Success {
		t.Fatalf("lookup failed: %s", result.ToolResults[0].Error)
	}
	if !strings.Contains(result.FormattedResults, "Acme GmbH") {
		t.Errorf("formatted report missing record name:\n%s", result.FormattedResults)
	}
	if result.FinalResponse == "" {
		t.Error("final response is empty")
	}
}

func TestProcess_SearchDirectReturn(t *testing.T) {
	reply := fenced("search_records", `{"query":"active"}`)
	result := process(t, reply, "Which accounts are active?")

	if !result.HasToolCalls {
		t.Fatal("expected tool calls")
	}
	if result.UsedSecondaryPass {
		t.Error("a complete record report should be returned directly")
	}
	for _, want := range []string{"### Summary", "### Data", "Acme GmbH", "Widget AG", "Nordlicht KG"} {
		if !strings.Contains(result.FinalResponse, want) {
			t.Errorf("final response missing %q:\n%s", want, result.FinalResponse)
		}
	}
	if !strings.Contains(result.FinalResponse, "Amounts are yearly contract values") {
		t.Error("guidance block not rendered")
	}
}

func TestProcess_StatsSignificance(t *testing.T) {
	reply := "<tool_call>\n{\"tool\":\"run_ttest\",\"parameters\":{\"variable\":\"amount\"}}\n</tool_call>"
	result := process(t, reply, "Is the amount difference significant?")

	if !result.HasToolCalls {
		t.Fatal("expected tool calls")
	}
	if !strings.Contains(result.FormattedResults, "significant") {
		t.Errorf("p=0.042 should be highlighted as significant:\n%s", result.FormattedResults)
	}
}

func TestProcess_DuplicateAcrossFormats(t *testing.T) {
	reply := fenced("lookup_record", `{"id":"A1"}`) +
		"\n\n<tool_call>\n{\"tool\":\"lookup_record\",\"parameters\":{\"id\":\"A1\"}}\n</tool_call>"
	result := process(t, reply, "Tell me about record A1.")

	if len(result.ToolCalls) != 1 {
		t.Errorf("len(ToolCalls) = %d, want 1 (duplicate must collapse)", len(result.ToolCalls))
	}
	if len(result.ToolResults) != 1 {
		t.Errorf("len(ToolResults) = %d, want 1", len(result.ToolResults))
	}
}

func TestProcess_AllFailedShortCircuit(t *testing.T) {
	reply := "The answer is roughly 5 million.\n\n" + fenced("broken_tool", `{}`)
	result := process(t, reply, "What is the total contract value?")

	if !result.HasToolCalls {
		t.Fatal("expected tool calls")
	}
	if result.ToolResults[0].Success {
		t.Fatal("broken_tool should fail")
	}
	if !strings.Contains(result.FinalResponse, "could not retrieve") {
		t.Errorf("expected failure report, got:\n%s", result.FinalResponse)
	}
	if strings.Contains(result.FinalResponse, "5 million") {
		t.Error("pre-tool assistant text must not leak into the failure response")
	}
	if result.UsedSecondaryPass {
		t.Error("all-failed runs must not reach the secondary pass")
	}
}

func TestProcess_MixedResultsKeepFailureVisible(t *testing.T) {
	reply := fenced("search_records", `{"query":"active"}`) +
		"\n\n" + fenced("broken_tool", `{}`)
	result := process(t, reply, "Active accounts and the health check, please.")

	if len(result.ToolResults) != 2 {
		t.Fatalf("len(ToolResults) = %d, want 2", len(result.ToolResults))
	}
	if !strings.Contains(result.FormattedResults, "Acme GmbH") {
		t.Error("successful result missing from report")
	}
	if !strings.Contains(result.FormattedResults, "could not be executed") {
		t.Errorf("failure section missing from report:\n%s", result.FormattedResults)
	}
}

func TestProcess_ThinkingStripped(t *testing.T) {
	reply := "<thinking>The user wants record A1, I should call the lookup tool.</thinking>\n" +
		fenced("lookup_record", `{"id":"A1"}`)
	result := process(t, reply, "Show me record A1.")

	if !result.HasToolCalls {
		t.Fatal("expected tool calls")
	}
	if !strings.Contains(result.ThinkingContent, "wants record A1") {
		t.Errorf("thinking content not captured: %q", result.ThinkingContent)
	}
	if strings.Contains(result.FinalResponse, "<thinking>") {
		t.Error("thinking tags leaked into the final response")
	}
}

func TestProcess_SecondaryPassSummary(t *testing.T) {
	reply := fenced("lookup_record", `{"id":"A1"}`)
	result := process(t, reply, "What do we know about Acme?")

	// A single three-field record renders well under the completeness
	// threshold, so the summary backend answers.
	if !result.UsedSecondaryPass {
		t.Fatalf("expected secondary pass for a short report; final:\n%s", result.FinalResponse)
	}
	if result.FinalResponse != mockSummary {
		t.Errorf("final = %q, want mock summary", result.FinalResponse)
	}
}

func TestProcess_BadRequest(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/v1/process", map[string]any{"reply": ""})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty reply status = %d, want 400", resp.StatusCode)
	}
}

func TestFormatEndpoint(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/v1/format", map[string]any{
		"tool_name": "search_records",
		"data":      map[string]any{"records": []map[string]any{{"id": "Z9", "name": "Zeta OHG"}}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/format status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "Zeta OHG") {
		t.Errorf("formatted output missing record name: %s", body)
	}
}

func TestHealthz(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", resp.StatusCode)
	}
	readBody(t, resp)
}

func TestMetricsExposed(t *testing.T) {
	// Run at least one request first so pipeline counters exist.
	process(t, "Nothing to do here, just prose.", "anything?")

	resp := getURL(t, testEnv.BaseURL()+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "freitext_pipeline_runs_total") {
		t.Error("pipeline metrics not exposed")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
