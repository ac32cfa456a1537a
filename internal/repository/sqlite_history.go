package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/db"
)

// SQLiteHistoryRepo implements HistoryRepo using a SQLite database.
type SQLiteHistoryRepo struct {
	db db.DBTX
}

// NewSQLiteHistoryRepo creates a new SQLiteHistoryRepo.
func NewSQLiteHistoryRepo(conn db.DBTX) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: conn}
}

func (r *SQLiteHistoryRepo) Append(ctx context.Context, th Thread, msgs ...chat.Message) ([]chat.Message, error) {
	var seq int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM chat_messages WHERE notebook_path = ? AND cell_id = ?`,
		th.NotebookPath, th.CellID,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("reading thread position: %w", err)
	}

	query := `INSERT INTO chat_messages (id, notebook_path, cell_id, seq, role, content, hidden, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stored := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = nowUTC()
		}
		content, err := encodeParts(m.Content)
		if err != nil {
			return nil, err
		}
		seq++
		_, err = r.db.ExecContext(ctx, query,
			m.ID,
			th.NotebookPath,
			th.CellID,
			seq,
			string(m.Role),
			content,
			boolToInt(m.Hidden),
			m.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting chat message: %w", err)
		}
		stored = append(stored, m)
	}
	return stored, nil
}

func (r *SQLiteHistoryRepo) List(ctx context.Context, th Thread) ([]chat.Message, error) {
	query := `SELECT id, role, content, hidden, created_at
		FROM chat_messages WHERE notebook_path = ? AND cell_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, th.NotebookPath, th.CellID)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteHistoryRepo) ListThreads(ctx context.Context, notebookPath string) ([]ThreadSummary, error) {
	query := `SELECT cell_id, COUNT(*), SUM(CASE WHEN hidden = 0 THEN 1 ELSE 0 END)
		FROM chat_messages WHERE notebook_path = ?
		GROUP BY cell_id ORDER BY MIN(created_at), cell_id`
	rows, err := r.db.QueryContext(ctx, query, notebookPath)
	if err != nil {
		return nil, fmt.Errorf("listing chat threads: %w", err)
	}
	defer rows.Close()

	var out []ThreadSummary
	for rows.Next() {
		s := ThreadSummary{Thread: Thread{NotebookPath: notebookPath}}
		if err := rows.Scan(&s.CellID, &s.Messages, &s.Visible); err != nil {
			return nil, fmt.Errorf("scanning chat thread: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteHistoryRepo) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("deleting chat messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("chat message: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteHistoryRepo) Clear(ctx context.Context, th Thread) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE notebook_path = ? AND cell_id = ?`,
		th.NotebookPath, th.CellID)
	if err != nil {
		return 0, fmt.Errorf("clearing chat thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking cleared rows: %w", err)
	}
	return int(n), nil
}

func scanMessage(rows *sql.Rows) (chat.Message, error) {
	var (
		m         chat.Message
		role      string
		content   string
		hidden    int
		createdAt sql.NullString
	)
	if err := rows.Scan(&m.ID, &role, &content, &hidden, &createdAt); err != nil {
		return chat.Message{}, fmt.Errorf("scanning chat message: %w", err)
	}
	parts, err := decodeParts(content)
	if err != nil {
		return chat.Message{}, err
	}
	m.Role = chat.Role(role)
	m.Content = parts
	m.Hidden = intToBool(hidden)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}
