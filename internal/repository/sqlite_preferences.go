package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/jupytutor/internal/db"
)

// DefaultPreferences returns the settings used for notebooks with no
// stored row.
func DefaultPreferences(notebookPath string) Preferences {
	return Preferences{NotebookPath: notebookPath, ProactiveEnabled: true}
}

// SQLitePreferenceRepo implements PreferenceRepo using a SQLite database.
type SQLitePreferenceRepo struct {
	db db.DBTX
}

// NewSQLitePreferenceRepo creates a new SQLitePreferenceRepo.
func NewSQLitePreferenceRepo(conn db.DBTX) *SQLitePreferenceRepo {
	return &SQLitePreferenceRepo{db: conn}
}

func (r *SQLitePreferenceRepo) Get(ctx context.Context, notebookPath string) (Preferences, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT proactive_enabled FROM notebook_preferences WHERE notebook_path = ?`, notebookPath)

	var proactive int
	if err := row.Scan(&proactive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultPreferences(notebookPath), nil
		}
		return Preferences{}, fmt.Errorf("scanning notebook preferences: %w", err)
	}
	return Preferences{NotebookPath: notebookPath, ProactiveEnabled: intToBool(proactive)}, nil
}

func (r *SQLitePreferenceRepo) Upsert(ctx context.Context, p Preferences) error {
	query := `INSERT INTO notebook_preferences (notebook_path, proactive_enabled, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(notebook_path) DO UPDATE SET
			proactive_enabled = excluded.proactive_enabled,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.NotebookPath,
		boolToInt(p.ProactiveEnabled),
		nowUTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting notebook preferences: %w", err)
	}
	return nil
}
