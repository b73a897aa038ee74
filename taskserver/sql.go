package taskserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/task"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name     string
	schema   string
	rebind   func(q string) string
	isUnique func(err error) bool
}

// SQLStore is a Store backed by database/sql. It is built by NewSQLiteStore
// or NewPostgresStore.
type SQLStore struct {
	db    *sql.DB
	d     dialect
	clock clock.Clock
}

// StoreOption configures an SQLStore.
type StoreOption func(*SQLStore)

// WithClock sets the clock used to stamp new tasks.
func WithClock(c clock.Clock) StoreOption {
	return func(s *SQLStore) { s.clock = c }
}

func newSQLStore(db *sql.DB, d dialect, opts ...StoreOption) (*SQLStore, error) {
	s := &SQLStore{db: db, d: d, clock: clock.Real()}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run %s schema migrations: %w", d.name, err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const selectColumns = `SELECT id, descripcion, completada, prioridad, fecha_creacion FROM tasks`

const priorityWeight = `CASE prioridad WHEN 'Baja' THEN 1 WHEN 'Media' THEN 2 WHEN 'Alta' THEN 3 ELSE 0 END`

var sortColumns = map[string]string{
	"fecha":       "fecha_creacion",
	"prioridad":   priorityWeight,
	"descripcion": "descripcion_norm",
	"completada":  "completada",
	"id":          "id",
}

// ListOrder builds the ORDER BY clause for a sort key and order. Unknown keys
// fall back to newest first; ties are broken by creation time descending and
// then id ascending.
func ListOrder(sortKey, order string) string {
	const tieBreak = "fecha_creacion DESC, id ASC"
	col, ok := sortColumns[strings.ToLower(strings.TrimSpace(sortKey))]
	if !ok {
		return tieBreak
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(order), "asc") {
		dir = "ASC"
	}
	return col + " " + dir + ", " + tieBreak
}

func (s *SQLStore) List(ctx context.Context, sortKey, order string) ([]task.Task, error) {
	q := selectColumns + " ORDER BY " + ListOrder(sortKey, order)
	rows, err := s.db.QueryContext(ctx, s.d.rebind(q))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLStore) Get(ctx context.Context, id int64) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind(selectColumns+" WHERE id = ?"), id)
	return scanTask(row)
}

func (s *SQLStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if !t.Priority.Valid() {
		t.Priority = task.DefaultPriority
	}
	if t.CreatedTime().IsZero() {
		t.CreatedAt = task.NewTimestamp(s.clock.Now())
	}
	const q = `
		INSERT INTO tasks (descripcion, descripcion_norm, completada, prioridad, fecha_creacion)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, s.d.rebind(q),
		t.Description,
		task.NormalizeDescription(t.Description),
		t.Completed,
		string(t.Priority),
		formatTime(t.CreatedTime()),
	).Scan(&t.ID)
	if err != nil {
		if s.d.isUnique(err) {
			return task.Task{}, fmt.Errorf("create task %q: %w", t.Description, ErrDuplicate)
		}
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	return s.Get(ctx, t.ID)
}

func (s *SQLStore) Update(ctx context.Context, id int64, patch Patch) (task.Task, error) {
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if patch.Description != nil {
		sets = append(sets, "descripcion = ?", "descripcion_norm = ?")
		args = append(args, *patch.Description, task.NormalizeDescription(*patch.Description))
	}
	if patch.Completed != nil {
		sets = append(sets, "completada = ?")
		args = append(args, *patch.Completed)
	}
	if patch.Priority != nil {
		sets = append(sets, "prioridad = ?")
		args = append(args, string(*patch.Priority))
	}
	args = append(args, id)

	q := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, s.d.rebind(q), args...)
	if err != nil {
		if s.d.isUnique(err) {
			return task.Task{}, fmt.Errorf("update task %d: %w", id, ErrDuplicate)
		}
		return task.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return task.Task{}, fmt.Errorf("update task rows affected: %w", err)
	}
	if n == 0 {
		return task.Task{}, fmt.Errorf("update task %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.d.rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) BatchDelete(ctx context.Context, ids []int64) (int, error) {
	return s.batch(ctx, "delete tasks", "DELETE FROM tasks", nil, ids)
}

func (s *SQLStore) BatchComplete(ctx context.Context, ids []int64, completed bool) (int, error) {
	return s.batch(ctx, "complete tasks", "UPDATE tasks SET completada = ?", []any{completed}, ids)
}

func (s *SQLStore) BatchPriority(ctx context.Context, ids []int64, priority task.Priority) (int, error) {
	return s.batch(ctx, "prioritize tasks", "UPDATE tasks SET prioridad = ?", []any{string(priority)}, ids)
}

// batch runs stmt restricted to ids with an IN clause.
func (s *SQLStore) batch(ctx context.Context, op, stmt string, args []any, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := fmt.Sprintf("%s WHERE id IN (%s)", stmt, strings.Join(placeholders, ", "))

	result, err := s.db.ExecContext(ctx, s.d.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return int(n), nil
}

// scanTask scans a single row into a task.Task.
func scanTask(row *sql.Row) (task.Task, error) {
	var (
		t         task.Task
		priority  string
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Description, &t.Completed, &priority, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, ErrNotFound
		}
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Priority = task.Priority(priority)
	t.CreatedAt = task.NewTimestamp(parseTime(createdAt))
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]task.Task, error) {
	tasks := []task.Task{}
	for rows.Next() {
		var (
			t         task.Task
			priority  string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Completed, &priority, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = task.Priority(priority)
		t.CreatedAt = task.NewTimestamp(parseTime(createdAt))
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// timeLayout is fixed-width so stored values sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// questionMarks leaves ? placeholders as they are.
func questionMarks(q string) string { return q }

// dollarPlaceholders rewrites ? placeholders as $1, $2, ...
func dollarPlaceholders(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
