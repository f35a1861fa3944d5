package tools

import (
	"context"
	"fmt"
	"strings"

	"dealdesk/internal/domain"
	"dealdesk/internal/registry"
	"dealdesk/internal/store"
)

func contextOperations(st *store.Store) []registry.Operation {
	return []registry.Operation{
		opUpdateProjectContext(st),
		opGetProjectContext(st),
		opListProjects(st),
		opAddDocument(st),
		opAddTask(st),
		opUpdateTaskStatus(st),
		opAddRisk(st),
		opResolveIssue(st),
		opAddDeadline(st),
		opCheckDeadlines(st),
		opAddNote(st),
		opGetDashboard(st),
		opGetProjectSummary(st),
		opSearchContext(st),
		opGetRecentActivity(st),
	}
}

func opUpdateProjectContext(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "update_project_context",
		Description: "Create or update a project's context. Omitted fields are left untouched.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId":    {Type: "string", Description: "Project identifier"},
				"name":         {Type: "string"},
				"description":  {Type: "string"},
				"status":       {Type: "string", Enum: []string{domain.ProjectActive, domain.ProjectPaused, domain.ProjectArchived}},
				"startDate":    {Type: "string", Description: "Timeline start, YYYY-MM-DD"},
				"endDate":      {Type: "string", Description: "Timeline end, YYYY-MM-DD"},
				"stakeholders": {Type: "array", Items: &registry.Property{Type: "object"}},
				"budget":       {Type: "object", Description: "Category to amount or {amount, currency, note}"},
			},
			Required: []string{"projectId"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			upd := store.ProjectUpdate{}
			if v, ok := args["name"].(string); ok {
				upd.Name = &v
			}
			if v, ok := args["description"].(string); ok {
				upd.Description = &v
			}
			if v, ok := args["status"].(string); ok {
				upd.Status = &v
			}
			start, hasStart := args["startDate"].(string)
			end, hasEnd := args["endDate"].(string)
			if hasStart || hasEnd {
				upd.Timeline = &domain.Timeline{StartDate: start, EndDate: end}
			}
			if raw, ok := args["stakeholders"].([]any); ok {
				upd.Stakeholders = parseStakeholders(raw)
			}
			if raw, ok := args["budget"].(map[string]any); ok {
				upd.Financials = parseBudget(raw)
			}
			p := st.UpsertProject(stringArg(args, "projectId"), upd)
			return fmt.Sprintf("Project context updated: %s\n%s", p.ID, asJSON(p)), nil
		},
	}
}

func opGetProjectContext(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "get_project_context",
		Description: "Fetch the full context of one project.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId": {Type: "string"},
			},
			Required: []string{"projectId"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			id := stringArg(args, "projectId")
			p, ok := st.GetProject(id)
			if !ok {
				// absence is an answer, not a failure
				return fmt.Sprintf("No context found for project: %s", id), nil
			}
			return asJSON(p), nil
		},
	}
}

func opListProjects(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "list_projects",
		Description: "List all tracked projects in creation order.",
		Schema:      registry.InputSchema{},
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			projects := st.ListProjects()
			if len(projects) == 0 {
				return "No projects tracked.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Projects (%d):\n", len(projects))
			for _, p := range projects {
				fmt.Fprintf(&b, "- %s [%s] %s (%d tasks, %d risks)\n",
					p.ID, p.Status, displayName(p), len(p.Tasks), len(p.Risks))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func opAddDocument(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "add_document",
		Description: "Attach a document record to a project.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId": {Type: "string"},
				"title":     {Type: "string"},
				"type":      {Type: "string", Description: "Document kind, e.g. contract, memo"},
				"summary":   {Type: "string"},
				"tags":      {Type: "array", Items: &registry.Property{Type: "string"}},
			},
			Required: []string{"projectId", "title"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			projectID := stringArg(args, "projectId")
			p, err := st.AddDocument(projectID, domain.Document{
				Title:   stringArg(args, "title"),
				Type:    stringArg(args, "type"),
				Summary: stringArg(args, "summary"),
				Tags:    stringSliceArg(args, "tags"),
			})
			if err != nil {
				return "", err
			}
			doc := p.Documents[len(p.Documents)-1]
			return fmt.Sprintf("Document added to %s: %s (%s)", projectID, doc.Title, doc.ID), nil
		},
	}
}

func opAddTask(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "add_task",
		Description: "Add a task to a project. A deadline also registers a tracked deadline.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId":   {Type: "string"},
				"description": {Type: "string"},
				"priority":    {Type: "string", Enum: []string{domain.PriorityUrgent, domain.PriorityHigh, domain.PriorityNormal, domain.PriorityLow}},
				"deadline":    {Type: "string", Description: "YYYY-MM-DD"},
				"assignee":    {Type: "string"},
			},
			Required: []string{"projectId", "description"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			projectID := stringArg(args, "projectId")
			task, err := st.AddTask(projectID, domain.Task{
				Description: stringArg(args, "description"),
				Priority:    stringArg(args, "priority"),
				Deadline:    stringArg(args, "deadline"),
				Assignee:    stringArg(args, "assignee"),
			})
			if err != nil {
				return "", err
			}
			out := fmt.Sprintf("Task added to %s: %s (%s)", projectID, task.Description, task.ID)
			if task.Deadline != "" {
				out += fmt.Sprintf("\nDeadline registered for %s.", task.Deadline)
			}
			return out, nil
		},
	}
}

func opUpdateTaskStatus(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "update_task_status",
		Description: "Set a task's status.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId": {Type: "string"},
				"taskId":    {Type: "string"},
				"status":    {Type: "string", Enum: []string{domain.TaskPending, domain.TaskCompleted}},
			},
			Required: []string{"projectId", "taskId", "status"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			task, err := st.UpdateTaskStatus(stringArg(args, "projectId"), stringArg(args, "taskId"), stringArg(args, "status"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Task %s is now %s: %s", task.ID, task.Status, task.Description), nil
		},
	}
}

func opAddRisk(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "add_risk",
		Description: "Record a risk. High and critical risks are promoted to active issues.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId":   {Type: "string"},
				"description": {Type: "string"},
				"severity":    {Type: "string", Enum: []string{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow}},
				"category":    {Type: "string"},
			},
			Required: []string{"projectId", "description", "severity"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			projectID := stringArg(args, "projectId")
			severity := stringArg(args, "severity")
			risk, err := st.AddRisk(projectID, domain.Risk{
				Description: stringArg(args, "description"),
				Severity:    severity,
				Category:    stringArg(args, "category"),
			})
			if err != nil {
				return "", err
			}
			out := fmt.Sprintf("Risk recorded for %s: %s [%s] (%s)", projectID, risk.Description, risk.Severity, risk.ID)
			if severity == domain.SeverityHigh || severity == domain.SeverityCritical {
				out += "\nPromoted to active issues."
			}
			return out, nil
		},
	}
}

func opResolveIssue(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "resolve_issue",
		Description: "Resolve an active issue. The originating risk keeps its own status.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"issueId": {Type: "string"},
			},
			Required: []string{"issueId"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			issue, err := st.ResolveIssue(stringArg(args, "issueId"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Issue resolved: %s (%s)", issue.Description, issue.ID), nil
		},
	}
}

func opAddDeadline(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "add_deadline",
		Description: "Track a deadline, optionally tied to a project.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"description": {Type: "string"},
				"date":        {Type: "string", Description: "YYYY-MM-DD"},
				"projectId":   {Type: "string"},
			},
			Required: []string{"description", "date"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			d := st.AddDeadline(domain.Deadline{
				Description: stringArg(args, "description"),
				Date:        stringArg(args, "date"),
				ProjectID:   stringArg(args, "projectId"),
			})
			return fmt.Sprintf("Deadline tracked: %s on %s (%s)", d.Description, d.Date, d.ID), nil
		},
	}
}

func opCheckDeadlines(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "check_deadlines",
		Description: "List upcoming deadlines within a window, plus anything overdue.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"daysAhead": {Type: "number", Description: "Window in days; 0 means today only. Defaults to the configured window."},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			// an explicit 0 is a today-only window, not "use the default"
			days := intArg(args, "daysAhead", -1)
			if days < 0 {
				days = st.DeadlineWindow()
			}
			upcoming := st.UpcomingDeadlines(days)
			overdue := st.OverdueDeadlines()
			var b strings.Builder
			if len(overdue) > 0 {
				fmt.Fprintf(&b, "Overdue (%d):\n", len(overdue))
				for _, d := range overdue {
					writeDeadline(&b, d)
				}
			}
			if len(upcoming) > 0 {
				fmt.Fprintf(&b, "Upcoming in the next %d days (%d):\n", days, len(upcoming))
				for _, d := range upcoming {
					writeDeadline(&b, d)
				}
			}
			if b.Len() == 0 {
				return fmt.Sprintf("No deadlines in the next %d days and nothing overdue.", days), nil
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func opAddNote(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "add_note",
		Description: "Append a timestamped note to a project.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId": {Type: "string"},
				"text":      {Type: "string"},
			},
			Required: []string{"projectId", "text"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			projectID := stringArg(args, "projectId")
			note, err := st.AddNote(projectID, stringArg(args, "text"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Note added to %s at %s.", projectID, note.Timestamp.Format("2006-01-02 15:04")), nil
		},
	}
}

func opGetDashboard(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "get_dashboard",
		Description: "Cross-project snapshot: counts, deadline pressure, recent activity.",
		Schema:      registry.InputSchema{},
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			return asJSON(st.Dashboard()), nil
		},
	}
}

func opGetProjectSummary(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "get_project_summary",
		Description: "Per-project identity and counts.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"projectId": {Type: "string"},
			},
			Required: []string{"projectId"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			sum, err := st.ProjectSummary(stringArg(args, "projectId"))
			if err != nil {
				return "", err
			}
			return asJSON(sum), nil
		},
	}
}

func opSearchContext(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "search_context",
		Description: "Case-insensitive substring search over project names, documents, tasks and notes.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"query": {Type: "string"},
			},
			Required: []string{"query"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			query := stringArg(args, "query")
			results := st.Search(query)
			if len(results) == 0 {
				return fmt.Sprintf("No matches for %q.", query), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Matches for %q (%d):\n", query, len(results))
			for _, r := range results {
				fmt.Fprintf(&b, "- [%s] %s (%s): %s\n", r.Kind, r.ProjectName, r.ProjectID, r.Excerpt)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func opGetRecentActivity(st *store.Store) registry.Operation {
	return registry.Operation{
		Name:        "get_recent_activity",
		Description: "Newest-first slice of the activity log.",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"limit": {Type: "number", Description: "Max entries, default 10"},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			entries := st.RecentActivity(intArg(args, "limit", 0))
			if len(entries) == 0 {
				return "No recorded activity.", nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Recent activity (%d):\n", len(entries))
			for _, e := range entries {
				fmt.Fprintf(&b, "- %s %s: %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Type, e.Summary)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}

func writeDeadline(b *strings.Builder, d domain.Deadline) {
	owner := ""
	if d.Project != "" {
		owner = " [" + d.Project + "]"
	} else if d.ProjectID != "" {
		owner = " [" + d.ProjectID + "]"
	}
	fmt.Fprintf(b, "- %s: %s%s\n", d.Date, d.Description, owner)
}

func displayName(p domain.Project) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func parseStakeholders(raw []any) []domain.Stakeholder {
	out := make([]domain.Stakeholder, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, domain.Stakeholder{Name: v})
		case map[string]any:
			out = append(out, domain.Stakeholder{
				Name: stringArg(v, "name"),
				Role: stringArg(v, "role"),
			})
		}
	}
	return out
}

func parseBudget(raw map[string]any) map[string]domain.BudgetSnapshot {
	out := make(map[string]domain.BudgetSnapshot, len(raw))
	for category, val := range raw {
		switch v := val.(type) {
		case float64:
			out[category] = domain.BudgetSnapshot{Amount: v}
		case map[string]any:
			amount, _ := floatArg(v, "amount")
			out[category] = domain.BudgetSnapshot{
				Amount:   amount,
				Currency: stringArg(v, "currency"),
				Note:     stringArg(v, "note"),
			}
		}
	}
	return out
}
