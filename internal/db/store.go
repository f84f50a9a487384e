package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/persona"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Project is a founder's project row.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Goal        string    `json:"goal,omitempty"`
	Level       int       `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store provides serialized access to the SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the raw handle for maintenance queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// CreateProject inserts a new project at level 1 and seeds its memory.
func (s *Store) CreateProject(ctx context.Context, name, description, goal string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Goal:        goal,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, goal, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Goal, p.Level, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if err := s.SaveMemory(ctx, p.ID, journey.NewProjectMemory()); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject loads one project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, goal, level, created_at, updated_at
		 FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Goal, &p.Level, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, goal, level, created_at, updated_at
		 FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Goal, &p.Level, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProjectLevel sets the project's current level.
func (s *Store) UpdateProjectLevel(ctx context.Context, id string, level int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET level = ?, updated_at = ? WHERE id = ?`,
		level, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update project level: %w", err)
	}
	return requireRow(res)
}

// SaveMemory stores the full memory document for a project. Last write
// wins; callers serialize turns per project.
func (s *Store) SaveMemory(ctx context.Context, projectID string, mem journey.ProjectMemory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO project_memory (project_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		projectID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// GetMemory loads a project's memory document. A project without a stored
// document gets a fresh empty memory.
func (s *Store) GetMemory(ctx context.Context, projectID string) (journey.ProjectMemory, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM project_memory WHERE project_id = ?`, projectID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return journey.NewProjectMemory(), nil
	}
	if err != nil {
		return journey.ProjectMemory{}, fmt.Errorf("failed to load memory: %w", err)
	}
	var mem journey.ProjectMemory
	if err := json.Unmarshal([]byte(data), &mem); err != nil {
		return journey.ProjectMemory{}, fmt.Errorf("failed to decode memory: %w", err)
	}
	if mem.HelperInsights == nil {
		mem.HelperInsights = journey.NewProjectMemory().HelperInsights
	}
	return mem, nil
}

// AppendMessage persists one chat message for a helper conversation.
func (s *Store) AppendMessage(ctx context.Context, projectID, helper string, msg journey.Message) error {
	at := msg.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (project_id, helper, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		projectID, helper, msg.Role, msg.Content, at)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// RecentMessages returns the last n messages of one helper conversation in
// chronological order.
func (s *Store) RecentMessages(ctx context.Context, projectID, helper string, n int) ([]journey.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages
		 WHERE project_id = ? AND helper = ?
		 ORDER BY id DESC LIMIT ?`,
		projectID, helper, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var out []journey.Message
	for rows.Next() {
		var m journey.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Newest-first from the query; callers want chronological.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// HelperConversations returns the recent tail of every other helper's
// conversation, ordered by most recent activity first.
func (s *Store) HelperConversations(ctx context.Context, projectID, excludeHelper string, perHelper int) ([]journey.HelperConversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT helper FROM chat_messages
		 WHERE project_id = ? AND helper != ?
		 GROUP BY helper ORDER BY MAX(id) DESC`,
		projectID, excludeHelper)
	if err != nil {
		return nil, fmt.Errorf("failed to list helper conversations: %w", err)
	}
	var helpers []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return nil, err
		}
		helpers = append(helpers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]journey.HelperConversation, 0, len(helpers))
	for _, h := range helpers {
		helper, err := persona.Parse(h)
		if err != nil {
			continue
		}
		msgs, err := s.RecentMessages(ctx, projectID, h, perHelper)
		if err != nil {
			return nil, err
		}
		out = append(out, journey.HelperConversation{Helper: helper, RecentMessages: msgs})
	}
	return out, nil
}

// UpsertTask inserts or replaces a task definition.
func (s *Store) UpsertTask(ctx context.Context, projectID string, t journey.Task) error {
	now := time.Now().UTC()
	status := t.Status
	if status == "" {
		status = journey.TaskTodo
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, required, status, xp_reward, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   required = excluded.required,
		   status = excluded.status,
		   xp_reward = excluded.xp_reward,
		   updated_at = excluded.updated_at`,
		t.ID, projectID, t.Title, t.Description, t.Required, status, t.XPReward, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

// ListTasks returns all tasks for a project in insertion order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]journey.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, required, status, xp_reward
		 FROM tasks WHERE project_id = ? ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []journey.Task
	for rows.Next() {
		var t journey.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Required, &t.Status, &t.XPReward); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTaskStatus moves a task between todo, in_progress and done.
func (s *Store) UpdateTaskStatus(ctx context.Context, projectID, taskID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE project_id = ? AND id = ?`,
		status, time.Now().UTC(), projectID, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return requireRow(res)
}

// CompleteTask marks a task done and records it as a milestone at the
// given level.
func (s *Store) CompleteTask(ctx context.Context, projectID, taskID string, level int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRowContext(ctx,
		`SELECT title FROM tasks WHERE project_id = ? AND id = ?`, projectID, taskID).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE project_id = ? AND id = ?`,
		journey.TaskDone, now, projectID, taskID); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO completed_tasks (id, project_id, title, level, completed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, id) DO UPDATE SET level = excluded.level, completed_at = excluded.completed_at`,
		taskID, projectID, title, level, now); err != nil {
		return fmt.Errorf("failed to record milestone: %w", err)
	}
	return tx.Commit()
}

// CompletedTasks returns the project's completed milestones.
func (s *Store) CompletedTasks(ctx context.Context, projectID string) ([]journey.CompletedTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, level FROM completed_tasks
		 WHERE project_id = ? ORDER BY completed_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	defer rows.Close()

	var out []journey.CompletedTask
	for rows.Next() {
		var ct journey.CompletedTask
		if err := rows.Scan(&ct.ID, &ct.Title, &ct.Level); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// PruneMessages deletes chat messages older than the cutoff. Memory and
// milestones are never pruned.
func (s *Store) PruneMessages(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
