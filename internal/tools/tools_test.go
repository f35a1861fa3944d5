package tools_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"dealdesk/internal/dispatch"
	"dealdesk/internal/registry"
	"dealdesk/internal/store"
	"dealdesk/internal/tools"
)

type env struct {
	store      *store.Store
	dispatcher *dispatch.Dispatcher
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	st := store.New()
	st.Now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	reg := registry.New()
	reg.MustRegister(tools.Registry(st)...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &env{store: st, dispatcher: dispatch.New(reg, logger)}
}

func (e *env) call(t *testing.T, name string, args map[string]any) dispatch.Envelope {
	t.Helper()
	return e.dispatcher.Handle(context.Background(), name, args)
}

func (e *env) mustCall(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	envlp := e.call(t, name, args)
	if envlp.IsError {
		t.Fatalf("%s failed: %s", name, text(envlp))
	}
	return text(envlp)
}

func text(e dispatch.Envelope) string {
	if len(e.Content) != 1 {
		return ""
	}
	return e.Content[0].Text
}

func TestRegistryComplete(t *testing.T) {
	e := newTestEnv(t)
	want := []string{
		"update_project_context", "get_project_context", "list_projects",
		"add_document", "add_task", "update_task_status", "add_risk",
		"resolve_issue", "add_deadline", "check_deadlines", "add_note",
		"get_dashboard", "get_project_summary", "search_context",
		"get_recent_activity", "extract_tasks", "analyze_risks",
		"calculate_budget", "generate_clause", "extract_dates",
	}
	got := e.dispatcher.Registry.Describe()
	if len(got) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("operation %d: want %s, got %s", i, name, got[i].Name)
		}
	}
}

func TestDeadlineLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{
		"projectId": "acme", "name": "Acme Deal",
	})
	e.mustCall(t, "add_task", map[string]any{
		"projectId":   "acme",
		"description": "Draft NDA",
		"priority":    "urgent",
		"deadline":    "2025-06-11",
	})
	out := e.mustCall(t, "check_deadlines", map[string]any{"daysAhead": float64(7)})
	if strings.Count(out, "Draft NDA") != 1 {
		t.Fatalf("expected the deadline exactly once, got:\n%s", out)
	}
	if strings.Contains(out, "Overdue") {
		t.Fatalf("tomorrow's deadline reported overdue:\n%s", out)
	}
	if !strings.Contains(out, "Acme Deal") {
		t.Fatalf("deadline should carry the project name:\n%s", out)
	}
}

func TestCheckDeadlinesHonorsConfiguredWindow(t *testing.T) {
	e := newTestEnv(t)
	e.store.SetDefaultDeadlineWindow(1)
	e.mustCall(t, "add_deadline", map[string]any{
		"description": "far out", "date": "2025-06-26",
	})
	out := e.mustCall(t, "check_deadlines", map[string]any{})
	if !strings.Contains(out, "No deadlines in the next 1 days") {
		t.Fatalf("configured window not applied: %q", out)
	}
	if strings.Contains(out, "far out") {
		t.Fatalf("deadline outside the configured window leaked: %q", out)
	}
	out = e.mustCall(t, "check_deadlines", map[string]any{"daysAhead": float64(30)})
	if !strings.Contains(out, "far out") {
		t.Fatalf("explicit window must override the configured one: %q", out)
	}
}

func TestCheckDeadlinesExplicitZeroWindow(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "add_deadline", map[string]any{
		"description": "signing today", "date": "2025-06-10",
	})
	e.mustCall(t, "add_deadline", map[string]any{
		"description": "signing tomorrow", "date": "2025-06-11",
	})
	out := e.mustCall(t, "check_deadlines", map[string]any{"daysAhead": float64(0)})
	if !strings.Contains(out, "signing today") {
		t.Fatalf("today's deadline missing from zero-day window: %q", out)
	}
	if strings.Contains(out, "signing tomorrow") {
		t.Fatalf("zero-day window must not reach tomorrow: %q", out)
	}
}

func TestGetProjectContextAbsenceIsNotAnError(t *testing.T) {
	e := newTestEnv(t)
	envlp := e.call(t, "get_project_context", map[string]any{"projectId": "ghost"})
	if envlp.IsError {
		t.Fatalf("absence must not be an error envelope: %#v", envlp)
	}
	if text(envlp) != "No context found for project: ghost" {
		t.Fatalf("message: %q", text(envlp))
	}
}

func TestMandatoryProjectPropagates(t *testing.T) {
	e := newTestEnv(t)
	envlp := e.call(t, "add_task", map[string]any{
		"projectId": "ghost", "description": "x",
	})
	if !envlp.IsError {
		t.Fatalf("expected error envelope")
	}
	if !strings.HasPrefix(text(envlp), "Error executing add_task:") {
		t.Fatalf("message: %q", text(envlp))
	}
}

func TestValidatorMissingText(t *testing.T) {
	e := newTestEnv(t)
	envlp := e.call(t, "extract_tasks", map[string]any{})
	if !envlp.IsError || text(envlp) != "Missing required arguments: text" {
		t.Fatalf("envelope: %#v", envlp)
	}
}

func TestRiskPromotionSurface(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme"})
	out := e.mustCall(t, "add_risk", map[string]any{
		"projectId": "acme", "description": "counterparty insolvency", "severity": "critical",
	})
	if !strings.Contains(out, "Promoted to active issues") {
		t.Fatalf("promotion not reported: %q", out)
	}
	out = e.mustCall(t, "add_risk", map[string]any{
		"projectId": "acme", "description": "typo in exhibit B", "severity": "low",
	})
	if strings.Contains(out, "Promoted") {
		t.Fatalf("low severity must not promote: %q", out)
	}
	issues := e.store.ActiveIssues()
	if len(issues) != 1 {
		t.Fatalf("expected one active issue, got %d", len(issues))
	}
	resolved := e.mustCall(t, "resolve_issue", map[string]any{"issueId": issues[0].ID})
	if !strings.Contains(resolved, "Issue resolved") {
		t.Fatalf("resolve output: %q", resolved)
	}
}

func TestSeverityEnumRejected(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme"})
	envlp := e.call(t, "add_risk", map[string]any{
		"projectId": "acme", "description": "x", "severity": "catastrophic",
	})
	if !envlp.IsError || !strings.HasPrefix(text(envlp), "Invalid arguments:") {
		t.Fatalf("envelope: %#v", envlp)
	}
}

func TestExtractTasks(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "extract_tasks", map[string]any{
		"text": "Meeting notes.\n- Send the redline to counsel\nTODO: schedule signing call\nWe need to confirm the escrow terms.\nNothing else happened.",
	})
	for _, want := range []string{"Send the redline to counsel", "schedule signing call", "confirm the escrow terms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "Extracted 3 action item(s)") {
		t.Fatalf("count line: %s", out)
	}
}

func TestExtractTasksAttaches(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme"})
	out := e.mustCall(t, "extract_tasks", map[string]any{
		"text":      "- review indemnity cap",
		"projectId": "acme",
	})
	if !strings.Contains(out, "Attached 1 task(s) to acme") {
		t.Fatalf("attach note missing: %s", out)
	}
	p, _ := e.store.GetProject("acme")
	if len(p.Tasks) != 1 || p.Tasks[0].Description != "review indemnity cap" {
		t.Fatalf("task not stored: %#v", p.Tasks)
	}
}

func TestOptionalProjectSwallowed(t *testing.T) {
	e := newTestEnv(t)
	envlp := e.call(t, "extract_tasks", map[string]any{
		"text":      "- review indemnity cap",
		"projectId": "ghost",
	})
	if envlp.IsError {
		t.Fatalf("optional attachment failure must not fail the call: %#v", envlp)
	}
	if !strings.Contains(text(envlp), "not found") {
		t.Fatalf("skip note missing: %q", text(envlp))
	}
	if !strings.Contains(text(envlp), "review indemnity cap") {
		t.Fatalf("primary result lost: %q", text(envlp))
	}
}

func TestAnalyzeRisks(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "analyze_risks", map[string]any{
		"text": "Counsel warns a lawsuit is likely if the delivery delay continues.",
	})
	if !strings.Contains(out, "[critical]") || !strings.Contains(out, `"lawsuit"`) {
		t.Fatalf("critical signal missing:\n%s", out)
	}
	if !strings.Contains(out, "[medium]") || !strings.Contains(out, `"delay"`) {
		t.Fatalf("medium signal missing:\n%s", out)
	}
	out = e.mustCall(t, "analyze_risks", map[string]any{"text": "All quiet."})
	if out != "No risk signals found." {
		t.Fatalf("expected empty report, got %q", out)
	}
}

func TestAnalyzeRisksLongestMatchWins(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "analyze_risks", map[string]any{
		"text": "This is a breach of contract.",
	})
	if strings.Count(out, "signal") != 1 || !strings.Contains(out, "1 risk signal(s)") {
		t.Fatalf("expected a single finding, got:\n%s", out)
	}
	if !strings.Contains(out, `"breach of contract"`) {
		t.Fatalf("longest keyword should win:\n%s", out)
	}
}

func TestCalculateBudget(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "calculate_budget", map[string]any{
		"items": []any{
			map[string]any{"category": "legal", "amount": float64(1200.5)},
			map[string]any{"category": "travel", "amount": float64(300)},
			map[string]any{"category": "legal", "amount": float64(99.5)},
		},
		"currency": "EUR",
	})
	if !strings.Contains(out, "Total: 1600.00 EUR") {
		t.Fatalf("total:\n%s", out)
	}
	if !strings.Contains(out, "legal: 1300.00 EUR") || !strings.Contains(out, "travel: 300.00 EUR") {
		t.Fatalf("breakdown:\n%s", out)
	}
}

func TestCalculateBudgetSnapshots(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme"})
	e.mustCall(t, "calculate_budget", map[string]any{
		"items":     []any{map[string]any{"category": "legal", "amount": float64(500)}},
		"projectId": "acme",
	})
	p, _ := e.store.GetProject("acme")
	if p.Financials["legal"].Amount != 500 {
		t.Fatalf("snapshot missing: %#v", p.Financials)
	}
}

func TestGenerateClause(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "generate_clause", map[string]any{"clauseType": "termination"})
	if !strings.Contains(out, "terminate this agreement") {
		t.Fatalf("clause text: %q", out)
	}
	envlp := e.call(t, "generate_clause", map[string]any{"clauseType": "arbitration"})
	if !envlp.IsError || !strings.HasPrefix(text(envlp), "Invalid arguments:") {
		t.Fatalf("unknown type must fail schema validation: %#v", envlp)
	}
}

func TestExtractDates(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustCall(t, "extract_dates", map[string]any{
		"text": "Signing is set for 2025-07-01.\nThe option expires on March 5, 2026.",
	})
	if !strings.Contains(out, "2025-07-01") || !strings.Contains(out, "2026-03-05") {
		t.Fatalf("dates:\n%s", out)
	}
}

func TestExtractDatesRegistersDeadlines(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme", "name": "Acme Deal"})
	e.mustCall(t, "extract_dates", map[string]any{
		"text":      "Signing is set for 2025-06-15.",
		"projectId": "acme",
	})
	up := e.store.UpcomingDeadlines(30)
	if len(up) != 1 || up[0].Date != "2025-06-15" || up[0].ProjectID != "acme" {
		t.Fatalf("deadline not registered: %#v", up)
	}
}

func TestDashboardAndSummarySurface(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme", "name": "Acme Deal"})
	e.mustCall(t, "add_task", map[string]any{"projectId": "acme", "description": "x"})
	dash := e.mustCall(t, "get_dashboard", nil)
	if !strings.Contains(dash, `"total_projects": 1`) || !strings.Contains(dash, `"pending_tasks": 1`) {
		t.Fatalf("dashboard:\n%s", dash)
	}
	sum := e.mustCall(t, "get_project_summary", map[string]any{"projectId": "acme"})
	if !strings.Contains(sum, `"task_count": 1`) {
		t.Fatalf("summary:\n%s", sum)
	}
}

func TestSearchAndActivitySurface(t *testing.T) {
	e := newTestEnv(t)
	e.mustCall(t, "update_project_context", map[string]any{"projectId": "acme", "name": "Acme Deal"})
	e.mustCall(t, "add_note", map[string]any{"projectId": "acme", "text": "escrow terms agreed"})
	out := e.mustCall(t, "search_context", map[string]any{"query": "escrow"})
	if !strings.Contains(out, "[note]") || !strings.Contains(out, "Acme Deal") {
		t.Fatalf("search:\n%s", out)
	}
	act := e.mustCall(t, "get_recent_activity", map[string]any{"limit": float64(5)})
	if !strings.Contains(act, "Recent activity") {
		t.Fatalf("activity:\n%s", act)
	}
}
