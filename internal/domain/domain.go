package domain

import "time"

// Project statuses.
const (
	ProjectActive   = "active"
	ProjectPaused   = "paused"
	ProjectArchived = "archived"
)

// Task priorities.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// Risk severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Risk / active-issue statuses.
const (
	RiskActive   = "active"
	RiskResolved = "resolved"
)

// Deadline statuses.
const (
	DeadlinePending   = "pending"
	DeadlineCompleted = "completed"
)

type Stakeholder struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type Timeline struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// BudgetSnapshot is the per-category financial entry of a project.
type BudgetSnapshot struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
	Note     string  `json:"note,omitempty"`
}

type Document struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Type    string    `json:"type,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty" enum:"urgent,high,normal,low"`
	Deadline    string     `json:"deadline,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	Status      string     `json:"status" enum:"pending,completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Risk struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Severity     string     `json:"severity" enum:"critical,high,medium,low"`
	Category     string     `json:"category,omitempty"`
	Status       string     `json:"status" enum:"active,resolved"`
	IdentifiedAt time.Time  `json:"identified_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

type Note struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Project is the aggregate grouping everything known about one piece
// of work. Child records are owned exclusively by their project.
type Project struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name,omitempty"`
	Description  string                    `json:"description,omitempty"`
	Status       string                    `json:"status" enum:"active,paused,archived"`
	Stakeholders []Stakeholder             `json:"stakeholders,omitempty"`
	Timeline     Timeline                  `json:"timeline"`
	Financials   map[string]BudgetSnapshot `json:"financials,omitempty"`
	Documents    []Document                `json:"documents,omitempty"`
	Tasks        []Task                    `json:"tasks,omitempty"`
	Risks        []Risk                    `json:"risks,omitempty"`
	Notes        []Note                    `json:"notes,omitempty"`
	Created      time.Time                 `json:"created"`
	LastUpdated  time.Time                 `json:"last_updated"`
}

// Deadline is a flat record independent of the project aggregate. The
// project fields are a denormalized copy, not a reference, and may
// name a project that does not exist.
type Deadline struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	ProjectID   string `json:"project_id,omitempty"`
	Project     string `json:"project,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ActiveIssue is a denormalized copy of a high/critical risk. Its
// status is independent of the source risk's status.
type ActiveIssue struct {
	ID           string     `json:"id"`
	RiskID       string     `json:"risk_id"`
	ProjectID    string     `json:"project_id"`
	Description  string     `json:"description"`
	Severity     string     `json:"severity"`
	Status       string     `json:"status" enum:"active,resolved"`
	IdentifiedAt time.Time  `json:"identified_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

type ActivityEntry struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id,omitempty"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchResult tags one field match with its source kind and owner.
type SearchResult struct {
	Kind        string `json:"kind" enum:"project,document,task,note"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Excerpt     string `json:"excerpt"`
}

type DashboardSnapshot struct {
	TotalProjects     int             `json:"total_projects"`
	ActiveProjects    int             `json:"active_projects"`
	TotalTasks        int             `json:"total_tasks"`
	PendingTasks      int             `json:"pending_tasks"`
	CompletedTasks    int             `json:"completed_tasks"`
	TotalRisks        int             `json:"total_risks"`
	ActiveRisks       int             `json:"active_risks"`
	UpcomingDeadlines int             `json:"upcoming_deadlines"`
	OverdueDeadlines  int             `json:"overdue_deadlines"`
	RecentActivity    []ActivityEntry `json:"recent_activity"`
}

type ProjectSummary struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	Description      string    `json:"description,omitempty"`
	Status           string    `json:"status"`
	DocumentCount    int       `json:"document_count"`
	TaskCount        int       `json:"task_count"`
	PendingTaskCount int       `json:"pending_task_count"`
	RiskCount        int       `json:"risk_count"`
	ActiveRiskCount  int       `json:"active_risk_count"`
	StakeholderCount int       `json:"stakeholder_count"`
	DeadlineCount    int       `json:"deadline_count"`
	Created          time.Time `json:"created"`
	LastUpdated      time.Time `json:"last_updated"`
}
