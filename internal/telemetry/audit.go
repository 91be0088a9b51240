package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Exchange is one completion call as sent and answered
type Exchange struct {
	ID        int64
	SessionID string
	Timestamp time.Time
	Model     string
	Request   interface{} // marshalled to JSON on insert
	Reply     string
	Err       error
	Duration  time.Duration
}

// AuditRecord is an Exchange as read back from the database
type AuditRecord struct {
	ID          int64
	SessionID   string
	Timestamp   time.Time
	Model       string
	RequestJSON string
	Reply       string
	Error       string
	DurationMS  int64
}

// AuditLog stores every completion call in SQLite. A nil *AuditLog discards records.
type AuditLog struct {
	db *sql.DB
}

// OpenAuditLog opens (creating if needed) the audit database at path
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// web requests record concurrently; sqlite allows one writer
	db.SetMaxOpenConns(1)

	createExchangesTable := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		model TEXT NOT NULL,
		request_json TEXT NOT NULL,
		reply TEXT,
		error TEXT,
		duration_ms INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id);`

	if _, err := db.Exec(createExchangesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create exchanges table: %w", err)
	}

	return &AuditLog{db: db}, nil
}

// Record inserts one exchange
func (a *AuditLog) Record(ctx context.Context, ex Exchange) error {
	if a == nil {
		return nil
	}

	requestJSON, err := json.Marshal(ex.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	errText := ""
	if ex.Err != nil {
		errText = ex.Err.Error()
	}
	ts := ex.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = a.db.ExecContext(ctx,
		"INSERT INTO exchanges (session_id, timestamp, model, request_json, reply, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ex.SessionID, ts.UTC(), ex.Model, string(requestJSON), ex.Reply, errText, ex.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}
	return nil
}

// BySession returns a session's exchanges in insertion order
func (a *AuditLog) BySession(ctx context.Context, sessionID string) ([]AuditRecord, error) {
	if a == nil {
		return nil, nil
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT id, session_id, timestamp, model, request_json, reply, error, duration_ms FROM exchanges WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchanges: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Timestamp, &rec.Model, &rec.RequestJSON, &rec.Reply, &rec.Error, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchanges: %w", err)
	}
	return records, nil
}

// Ping reports whether the database is reachable
func (a *AuditLog) Ping(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.db.PingContext(ctx)
}

// Close closes the database
func (a *AuditLog) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}
