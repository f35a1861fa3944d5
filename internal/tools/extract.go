package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dealdesk/internal/domain"
	"dealdesk/internal/registry"
	"dealdesk/internal/store"
)

func textOperations(st *store.Store) []registry.Operation {
	return []registry.Operation{
		opExtractTasks(st),
		opAnalyzeRisks(st),
		opCalculateBudget(st),
		opGenerateClause(),
		opExtractDates(st),
	}
}

// Action-line patterns. Matching is line-by-line; no language
// understanding, just surface markers.
var actionPrefixes = []string{"- ", "* ", "[ ]", "todo:", "action:", "action item:"}

var actionPhrases = []string{"need to", "needs to", "must ", "should ", "have to"}

func opExtractTasks(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "extract_tasks",
		Description: "Scan free text for action items. With projectId, the items are added as tasks.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"text":      {Type: "string"},
				"projectId": {Type: "string", Description: "Optional project to attach extracted tasks to"},
			},
			Required: []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			found := extractTasks(stringArg(args, "text"))
			if len(found) == 0 {
				return "No action items found.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Extracted %d action item(s):\n", len(found))
			for _, item := range found {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			if projectID := stringArg(args, "projectId"); projectID != "" {
				attached := 0
				for _, item := range found {
					if _, err := st.AddTask(projectID, domain.Task{Description: item}); err != nil {
						fmt.Fprintf(&b, "Project %s not found; items were not attached.\n", projectID)
						attached = -1
						break
					}
					attached++
				}
				if attached > 0 {
					fmt.Fprintf(&b, "Attached %d task(s) to %s.\n", attached, projectID)
				}
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func extractTasks(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		matched := false
		for _, prefix := range actionPrefixes {
			if strings.HasPrefix(lower, prefix) {
				out = append(out, strings.TrimSpace(line[len(prefix):]))
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, phrase := range actionPhrases {
			if strings.Contains(lower, phrase) {
				out = append(out, line)
				break
			}
		}
	}
	return out
}

var (
	isoDateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	// "March 5, 2026" style
	longDateRe = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)
)

func opExtractDates(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "extract_dates",
		Description: "Find dates in free text. With projectId, each date is tracked as a deadline.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"text":      {Type: "string"},
				"projectId": {Type: "string", Description: "Optional project to register deadlines under"},
			},
			Required: []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			text := stringArg(args, "text")
			found := extractDates(text)
			if len(found) == 0 {
				return "No dates found.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Found %d date(s):\n", len(found))
			for _, d := range found {
				fmt.Fprintf(&b, "- %s (%s)\n", d.date, d.context)
			}
			if projectID := stringArg(args, "projectId"); projectID != "" {
				if _, ok := st.GetProject(projectID); !ok {
					fmt.Fprintf(&b, "Project %s not found; deadlines were not registered.\n", projectID)
				} else {
					for _, d := range found {
						st.AddDeadline(domain.Deadline{
							Description: d.context,
							Date:        d.date,
							ProjectID:   projectID,
						})
					}
					fmt.Fprintf(&b, "Registered %d deadline(s) for %s.\n", len(found), projectID)
				}
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

type foundDate struct {
	date    string // normalized YYYY-MM-DD
	context string // the line the date appeared on
}

func extractDates(text string) []foundDate {
	var out []foundDate
	seen := map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, m := range isoDateRe.FindAllString(trimmed, -1) {
			if _, err := time.Parse("2006-01-02", m); err != nil {
				continue
			}
			key := m + "|" + trimmed
			if !seen[key] {
				seen[key] = true
				out = append(out, foundDate{date: m, context: trimmed})
			}
		}
		for _, m := range longDateRe.FindAllString(trimmed, -1) {
			t, err := time.Parse("January 2, 2006", m)
			if err != nil {
				continue
			}
			norm := t.Format("2006-01-02")
			key := norm + "|" + trimmed
			if !seen[key] {
				seen[key] = true
				out = append(out, foundDate{date: norm, context: trimmed})
			}
		}
	}
	return out
}
