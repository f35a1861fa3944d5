// Package store holds all project context in memory. State lives for
// the lifetime of the process; there is no persistence layer.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealdesk/internal/domain"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrIssueNotFound   = errors.New("issue not found")
)

// DefaultActivityCap bounds the activity log; the oldest entries are
// evicted first once the cap is reached.
const DefaultActivityCap = 100

// DefaultDeadlineWindowDays is the upcoming-deadline window used when
// a caller does not specify one.
const DefaultDeadlineWindowDays = 30

// Store is the in-memory context repository. All operations take one
// mutex so that read-modify-write sequences (merge-then-store,
// append-plus-deadline-insert) stay atomic under concurrent dispatch.
type Store struct {
	mu          sync.Mutex
	projects    map[string]*domain.Project
	order       []string
	deadlines   []domain.Deadline
	issues      []domain.ActiveIssue
	activity    []domain.ActivityEntry
	activityCap int
	windowDays  int

	// Now is the clock; tests reassign it.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		projects:    make(map[string]*domain.Project),
		activityCap: DefaultActivityCap,
		windowDays:  DefaultDeadlineWindowDays,
		Now:         time.Now,
	}
}

// SetActivityCap overrides the activity-log bound. Values below 1 are
// ignored.
func (s *Store) SetActivityCap(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityCap = n
	if len(s.activity) > n {
		s.activity = s.activity[len(s.activity)-n:]
	}
}

// SetDefaultDeadlineWindow overrides the fallback upcoming-deadline
// window. Values below 1 are ignored.
func (s *Store) SetDefaultDeadlineWindow(days int) {
	if days < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowDays = days
}

// DeadlineWindow reports the fallback upcoming-deadline window.
func (s *Store) DeadlineWindow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowDays
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NewID returns a fresh unique identifier.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// ProjectUpdate is a typed patch for UpsertProject. Nil scalar fields
// are left alone. Stakeholders replaces the full roster when non-nil;
// Financials merges per category.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	Status       *string
	Timeline     *domain.Timeline
	Stakeholders []domain.Stakeholder
	Financials   map[string]domain.BudgetSnapshot
}

// UpsertProject creates a skeleton project when id is unseen, applies
// the patch, refreshes LastUpdated and appends an activity entry. It
// is the only mutation path for top-level project fields.
func (s *Store) UpsertProject(id string, upd ProjectUpdate) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.projects[id]
	evtType := "project.updated"
	if !ok {
		p = &domain.Project{
			ID:         id,
			Status:     domain.ProjectActive,
			Financials: make(map[string]domain.BudgetSnapshot),
			Created:    now,
		}
		s.projects[id] = p
		s.order = append(s.order, id)
		evtType = "project.created"
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.Timeline != nil {
		p.Timeline = *upd.Timeline
	}
	if upd.Stakeholders != nil {
		p.Stakeholders = append([]domain.Stakeholder(nil), upd.Stakeholders...)
	}
	for category, snap := range upd.Financials {
		if p.Financials == nil {
			p.Financials = make(map[string]domain.BudgetSnapshot)
		}
		p.Financials[category] = snap
	}
	p.LastUpdated = now
	s.appendActivity(evtType, id, fmt.Sprintf("project %s", displayName(p)))
	return cloneProject(p)
}

// GetProject reports absence through the second return value; a
// missing project is an expected outcome, not an error.
func (s *Store) GetProject(id string) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, false
	}
	return cloneProject(p), true
}

// ListProjects returns projects in insertion order of first upsert,
// stable regardless of later updates.
func (s *Store) ListProjects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneProject(s.projects[id]))
	}
	return out
}

// AddDocument appends a document to the project, assigning id and
// AddedAt, and returns the updated aggregate.
func (s *Store) AddDocument(projectID string, doc domain.Document) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.Project{}, fmt.Errorf("add document to %s: %w", projectID, ErrProjectNotFound)
	}
	now := s.now()
	doc.ID = uuid.NewString()
	doc.AddedAt = now
	p.Documents = append(p.Documents, doc)
	p.LastUpdated = now
	s.appendActivity("document.added", projectID, fmt.Sprintf("document %q added to %s", doc.Title, displayName(p)))
	return cloneProject(p), nil
}

// AddTask appends a task, defaulting status to pending. A task with a
// deadline also inserts a Deadline record carrying the project's id
// and name.
func (s *Store) AddTask(projectID string, t domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.Task{}, fmt.Errorf("add task to %s: %w", projectID, ErrProjectNotFound)
	}
	now := s.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	p.Tasks = append(p.Tasks, t)
	p.LastUpdated = now
	if t.Deadline != "" {
		s.deadlines = append(s.deadlines, domain.Deadline{
			ID:          uuid.NewString(),
			Description: t.Description,
			Date:        t.Deadline,
			ProjectID:   projectID,
			Project:     p.Name,
			Status:      domain.DeadlinePending,
		})
	}
	s.appendActivity("task.added", projectID, fmt.Sprintf("task %q added to %s", t.Description, displayName(p)))
	return t, nil
}

// UpdateTaskStatus sets the task's status and UpdatedAt.
func (s *Store) UpdateTaskStatus(projectID, taskID, status string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.Task{}, fmt.Errorf("update task in %s: %w", projectID, ErrProjectNotFound)
	}
	now := s.now()
	for i := range p.Tasks {
		if p.Tasks[i].ID != taskID {
			continue
		}
		p.Tasks[i].Status = status
		p.Tasks[i].UpdatedAt = &now
		p.LastUpdated = now
		s.appendActivity("task.updated", projectID, fmt.Sprintf("task %q -> %s", p.Tasks[i].Description, status))
		return p.Tasks[i], nil
	}
	return domain.Task{}, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
}

// AddRisk appends a risk, defaulting status to active. High and
// critical severities also promote a denormalized copy onto the
// active-issues list.
func (s *Store) AddRisk(projectID string, r domain.Risk) (domain.Risk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.Risk{}, fmt.Errorf("add risk to %s: %w", projectID, ErrProjectNotFound)
	}
	now := s.now()
	r.ID = uuid.NewString()
	r.IdentifiedAt = now
	if r.Status == "" {
		r.Status = domain.RiskActive
	}
	p.Risks = append(p.Risks, r)
	p.LastUpdated = now
	if r.Severity == domain.SeverityHigh || r.Severity == domain.SeverityCritical {
		s.issues = append(s.issues, domain.ActiveIssue{
			ID:           uuid.NewString(),
			RiskID:       r.ID,
			ProjectID:    projectID,
			Description:  r.Description,
			Severity:     r.Severity,
			Status:       domain.RiskActive,
			IdentifiedAt: now,
		})
	}
	s.appendActivity("risk.added", projectID, fmt.Sprintf("%s risk %q added to %s", r.Severity, r.Description, displayName(p)))
	return r, nil
}

// AddDeadline records a flat deadline. No project-existence check is
// made: deadlines are not required to reference a real project.
func (s *Store) AddDeadline(d domain.Deadline) domain.Deadline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = domain.DeadlinePending
	}
	s.deadlines = append(s.deadlines, d)
	return d
}

// UpcomingDeadlines returns deadlines dated within [today, today+days]
// inclusive of both bounds, ascending by date. days == 0 is a
// today-only window; days < 0 falls back to the configured default.
// Unparseable dates never match.
func (s *Store) UpcomingDeadlines(days int) []domain.Deadline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upcomingLocked(days)
}

func (s *Store) upcomingLocked(days int) []domain.Deadline {
	if days < 0 {
		days = s.windowDays
	}
	start := dayStart(s.now())
	end := start.AddDate(0, 0, days)
	var out []domain.Deadline
	for _, d := range s.deadlines {
		when, err := parseDate(d.Date)
		if err != nil {
			continue
		}
		if !when.Before(start) && !when.After(end) {
			out = append(out, d)
		}
	}
	sortByDate(out)
	return out
}

// OverdueDeadlines returns deadlines dated strictly before today whose
// status is not completed, ascending by date.
func (s *Store) OverdueDeadlines() []domain.Deadline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overdueLocked()
}

func (s *Store) overdueLocked() []domain.Deadline {
	start := dayStart(s.now())
	var out []domain.Deadline
	for _, d := range s.deadlines {
		if d.Status == domain.DeadlineCompleted {
			continue
		}
		when, err := parseDate(d.Date)
		if err != nil {
			continue
		}
		if when.Before(start) {
			out = append(out, d)
		}
	}
	sortByDate(out)
	return out
}

// ActiveIssues returns promoted issues still marked active.
func (s *Store) ActiveIssues() []domain.ActiveIssue {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActiveIssue
	for _, issue := range s.issues {
		if issue.Status == domain.RiskActive {
			out = append(out, issue)
		}
	}
	return out
}

// ResolveIssue marks the active issue resolved. The originating risk
// record inside its project is left untouched; the two statuses are
// independent.
func (s *Store) ResolveIssue(issueID string) (domain.ActiveIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.issues {
		if s.issues[i].ID != issueID {
			continue
		}
		now := s.now()
		s.issues[i].Status = domain.RiskResolved
		s.issues[i].ResolvedAt = &now
		s.appendActivity("issue.resolved", s.issues[i].ProjectID, fmt.Sprintf("issue %q resolved", s.issues[i].Description))
		return s.issues[i], nil
	}
	return domain.ActiveIssue{}, fmt.Errorf("issue %s: %w", issueID, ErrIssueNotFound)
}

// RecentActivity returns up to limit entries, newest first. limit <= 0
// falls back to 10.
func (s *Store) RecentActivity(limit int) []domain.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentLocked(limit)
}

func (s *Store) recentLocked(limit int) []domain.ActivityEntry {
	if limit <= 0 {
		limit = 10
	}
	n := len(s.activity)
	if limit > n {
		limit = n
	}
	out := make([]domain.ActivityEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.activity[i])
	}
	return out
}

// Search scans project names, document titles, task descriptions and
// note texts for a case-insensitive substring match. Every matching
// field yields its own result; there is no deduplication.
func (s *Store) Search(query string) []domain.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	var out []domain.SearchResult
	for _, id := range s.order {
		p := s.projects[id]
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, result("project", p, p.Name))
		}
		for _, doc := range p.Documents {
			if strings.Contains(strings.ToLower(doc.Title), needle) {
				out = append(out, result("document", p, doc.Title))
			}
		}
		for _, t := range p.Tasks {
			if strings.Contains(strings.ToLower(t.Description), needle) {
				out = append(out, result("task", p, t.Description))
			}
		}
		for _, n := range p.Notes {
			if strings.Contains(strings.ToLower(n.Text), needle) {
				out = append(out, result("note", p, n.Text))
			}
		}
	}
	return out
}

// AddNote appends an immutable timestamped note.
func (s *Store) AddNote(projectID, text string) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.Note{}, fmt.Errorf("add note to %s: %w", projectID, ErrProjectNotFound)
	}
	now := s.now()
	n := domain.Note{Text: text, Timestamp: now}
	p.Notes = append(p.Notes, n)
	p.LastUpdated = now
	s.appendActivity("note.added", projectID, fmt.Sprintf("note added to %s", displayName(p)))
	return n, nil
}

// Dashboard aggregates cross-project counts, a 7-day deadline outlook
// and the 5 most recent activity entries. The whole snapshot is
// computed under one lock so concurrent mutations cannot land between
// its parts.
func (s *Store) Dashboard() domain.DashboardSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := domain.DashboardSnapshot{
		TotalProjects:     len(s.order),
		UpcomingDeadlines: len(s.upcomingLocked(7)),
		OverdueDeadlines:  len(s.overdueLocked()),
		RecentActivity:    s.recentLocked(5),
	}
	for _, id := range s.order {
		p := s.projects[id]
		if p.Status == domain.ProjectActive || p.Status == "" {
			snap.ActiveProjects++
		}
		snap.TotalTasks += len(p.Tasks)
		for _, t := range p.Tasks {
			switch t.Status {
			case domain.TaskCompleted:
				snap.CompletedTasks++
			default:
				snap.PendingTasks++
			}
		}
		snap.TotalRisks += len(p.Risks)
		for _, r := range p.Risks {
			if r.Status == domain.RiskActive {
				snap.ActiveRisks++
			}
		}
	}
	return snap
}

// ProjectSummary returns identity fields plus per-project statistics.
func (s *Store) ProjectSummary(projectID string) (domain.ProjectSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.ProjectSummary{}, fmt.Errorf("summary of %s: %w", projectID, ErrProjectNotFound)
	}
	sum := domain.ProjectSummary{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Status:           p.Status,
		DocumentCount:    len(p.Documents),
		TaskCount:        len(p.Tasks),
		RiskCount:        len(p.Risks),
		StakeholderCount: len(p.Stakeholders),
		Created:          p.Created,
		LastUpdated:      p.LastUpdated,
	}
	for _, t := range p.Tasks {
		if t.Status != domain.TaskCompleted {
			sum.PendingTaskCount++
		}
	}
	for _, r := range p.Risks {
		if r.Status == domain.RiskActive {
			sum.ActiveRiskCount++
		}
	}
	for _, d := range s.deadlines {
		if d.ProjectID == projectID {
			sum.DeadlineCount++
		}
	}
	return sum, nil
}

func (s *Store) appendActivity(evtType, projectID, summary string) {
	s.activity = append(s.activity, domain.ActivityEntry{
		Type:      evtType,
		ProjectID: projectID,
		Summary:   summary,
		Timestamp: s.now(),
	})
	if len(s.activity) > s.activityCap {
		s.activity = s.activity[len(s.activity)-s.activityCap:]
	}
}

func displayName(p *domain.Project) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

const excerptRunes = 80

func result(kind string, p *domain.Project, field string) domain.SearchResult {
	return domain.SearchResult{
		Kind:        kind,
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Excerpt:     excerpt(field),
	}
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "…"
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return dayStart(t), nil
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortByDate(ds []domain.Deadline) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, _ := parseDate(ds[i].Date)
		b, _ := parseDate(ds[j].Date)
		return a.Before(b)
	})
}

func cloneProject(p *domain.Project) domain.Project {
	out := *p
	out.Stakeholders = append([]domain.Stakeholder(nil), p.Stakeholders...)
	out.Documents = append([]domain.Document(nil), p.Documents...)
	out.Tasks = append([]domain.Task(nil), p.Tasks...)
	out.Risks = append([]domain.Risk(nil), p.Risks...)
	out.Notes = append([]domain.Note(nil), p.Notes...)
	if p.Financials != nil {
		out.Financials = make(map[string]domain.BudgetSnapshot, len(p.Financials))
		for k, v := range p.Financials {
			out.Financials[k] = v
		}
	}
	return out
}
