package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/jupytutor/internal/chat"
)

// timeLayout keeps sub-second precision so messages written in the same
// second still sort by creation time.
const timeLayout = time.RFC3339Nano

// parseTime parses a stored timestamp, returning the zero time when the
// value is NULL or malformed.
func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// nowUTC returns the current UTC time.
func nowUTC() time.Time {
	return time.Now().UTC()
}

func encodeParts(parts []chat.Part) (string, error) {
	if parts == nil {
		parts = []chat.Part{}
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("encoding message content: %w", err)
	}
	return string(b), nil
}

func decodeParts(s string) ([]chat.Part, error) {
	var parts []chat.Part
	if err := json.Unmarshal([]byte(s), &parts); err != nil {
		return nil, fmt.Errorf("decoding message content: %w", err)
	}
	return parts, nil
}
