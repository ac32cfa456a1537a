package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillCellIDs(db); err != nil {
		return fmt.Errorf("backfilling chat message cell ids: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id            TEXT PRIMARY KEY,
		notebook_path TEXT NOT NULL,
		seq           INTEGER NOT NULL,
		role          TEXT NOT NULL CHECK(role IN ('system','user','assistant')),
		content       TEXT NOT NULL,
		hidden        INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	)`,

	// Histories were per notebook before chats were scoped to a cell.
	`ALTER TABLE chat_messages ADD COLUMN cell_id TEXT NOT NULL DEFAULT ''`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_messages_thread
		ON chat_messages(notebook_path, cell_id, seq)`,

	`CREATE TABLE IF NOT EXISTS notebook_preferences (
		notebook_path     TEXT PRIMARY KEY,
		proactive_enabled INTEGER NOT NULL DEFAULT 1,
		updated_at        TEXT NOT NULL
	)`,
}

// migrateBackfillCellIDs moves pre-cell histories into a single legacy
// thread so they stay readable.
func migrateBackfillCellIDs(db *sql.DB) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_messages SET cell_id = ? WHERE cell_id = ''`, LegacyCellID); err != nil {
		return fmt.Errorf("updating legacy rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	committed = true
	return nil
}

// LegacyCellID keys chat messages stored before histories were per cell.
const LegacyCellID = "_notebook"
