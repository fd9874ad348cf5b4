package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types recorded by the CLI.
const (
	TypeConvert         = "convert"
	TypeMerge           = "merge"
	TypeSnapshotSave    = "snapshot.save"
	TypeSnapshotRestore = "snapshot.restore"
	TypeSnapshotDelete  = "snapshot.delete"
)

type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Payload string `json:"payload_json"`
}

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append inserts an event inside tx.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, subject string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,subject,payload_json) VALUES (?,?,?,?)`,
		ts, evtType, nullable(subject), string(data))
	return err
}

// Record appends a single event in its own transaction.
func (w Writer) Record(ctx context.Context, evtType, subject string, payload EventPayload) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := w.Append(ctx, tx, evtType, subject, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
