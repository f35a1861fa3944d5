package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dealdesk/internal/domain"
	"dealdesk/internal/registry"
	"dealdesk/internal/store"
)

// Keyword buckets for the risk scan, highest severity first. A term
// is only counted once, at the highest bucket that mentions it.
var riskBuckets = []struct {
	severity string
	keywords []string
}{
	{domain.SeverityCritical, []string{"lawsuit", "litigation", "breach of contract", "penalty", "terminate", "termination for cause"}},
	{domain.SeverityHigh, []string{"breach", "non-compliance", "liability", "overdue", "missed deadline", "indemnif"}},
	{domain.SeverityMedium, []string{"delay", "dependency", "pending approval", "unclear", "dispute", "renegotiat"}},
	{domain.SeverityLow, []string{"minor", "typo", "formatting", "clarification"}},
}

func opAnalyzeRisks(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "analyze_risks",
		Description: "Keyword scan of free text for risk signals, bucketed by severity. With projectId, findings are recorded as risks.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"text":      {Type: "string"},
				"projectId": {Type: "string", Description: "Optional project to record findings under"},
			},
			Required: []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			findings := analyzeRisks(stringArg(args, "text"))
			if len(findings) == 0 {
				return "No risk signals found.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Found %d risk signal(s):\n", len(findings))
			for _, f := range findings {
				fmt.Fprintf(&b, "- [%s] mentions %q\n", f.severity, f.keyword)
			}
			if projectID := stringArg(args, "projectId"); projectID != "" {
				if _, ok := st.GetProject(projectID); !ok {
					fmt.Fprintf(&b, "Project %s not found; findings were not recorded.\n", projectID)
				} else {
					for _, f := range findings {
						st.AddRisk(projectID, domain.Risk{
							Description: fmt.Sprintf("Text mentions %q", f.keyword),
							Severity:    f.severity,
							Category:    "text-scan",
						})
					}
					fmt.Fprintf(&b, "Recorded %d risk(s) for %s.\n", len(findings), projectID)
				}
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

type riskFinding struct {
	severity string
	keyword  string
}

func analyzeRisks(text string) []riskFinding {
	lower := strings.ToLower(text)
	var out []riskFinding
	matched := map[string]bool{}
	for _, bucket := range riskBuckets {
		for _, kw := range bucket.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			// "breach of contract" already counted suppresses "breach"
			already := false
			for prev := range matched {
				if strings.Contains(prev, kw) {
					already = true
					break
				}
			}
			if already {
				continue
			}
			matched[kw] = true
			out = append(out, riskFinding{severity: bucket.severity, keyword: kw})
		}
	}
	return out
}

func opCalculateBudget(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "calculate_budget",
		Description: "Sum budget line items and report a per-category breakdown. With projectId, the breakdown is snapshotted into the project's financials.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"items":     {Type: "array", Items: &registry.Property{Type: "object", Properties: map[string]registry.Property{"category": {Type: "string"}, "amount": {Type: "number"}}}},
				"currency":  {Type: "string"},
				"projectId": {Type: "string", Description: "Optional project to snapshot the breakdown into"},
			},
			Required: []string{"items"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			raw, _ := args["items"].([]any)
			currency := stringArg(args, "currency")
			perCategory := map[string]float64{}
			total := 0.0
			for _, item := range raw {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				amount, ok := floatArg(entry, "amount")
				if !ok {
					continue
				}
				category := stringArg(entry, "category")
				if category == "" {
					category = "uncategorized"
				}
				perCategory[category] += amount
				total += amount
			}
			if len(perCategory) == 0 {
				return "No valid budget items.", nil
			}
			categories := make([]string, 0, len(perCategory))
			for c := range perCategory {
				categories = append(categories, c)
			}
			sort.Strings(categories)

			var b strings.Builder
			fmt.Fprintf(&b, "Total: %s\n", formatAmount(total, currency))
			b.WriteString("Breakdown:\n")
			for _, c := range categories {
				fmt.Fprintf(&b, "- %s: %s\n", c, formatAmount(perCategory[c], currency))
			}
			if projectID := stringArg(args, "projectId"); projectID != "" {
				if _, ok := st.GetProject(projectID); !ok {
					fmt.Fprintf(&b, "Project %s not found; financials were not snapshotted.\n", projectID)
				} else {
					snapshot := make(map[string]domain.BudgetSnapshot, len(perCategory))
					for c, amount := range perCategory {
						snapshot[c] = domain.BudgetSnapshot{Amount: amount, Currency: currency}
					}
					st.UpsertProject(projectID, store.ProjectUpdate{Financials: snapshot})
					fmt.Fprintf(&b, "Snapshotted financials into %s.\n", projectID)
				}
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func formatAmount(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}
