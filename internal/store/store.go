// Package store keeps snapshots of resource sets in the workspace database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"langcodec/internal/domain"
	"langcodec/internal/events"
)

type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

type Snapshot struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	CreatedAt string   `json:"created_at"`
	Languages []string `json:"languages"`
	Entries   int      `json:"entries"`
}

func (s Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s Store) events() events.Writer {
	return events.Writer{DB: s.DB, Now: s.Now}
}

// SaveSnapshot stores resources in order under a new id and records a
// snapshot.save event in the same transaction.
func (s Store) SaveSnapshot(ctx context.Context, label string, resources []domain.Resource) (Snapshot, error) {
	snap := Snapshot{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Languages: []string{},
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots(id,label,created_at) VALUES (?,?,?)`,
		snap.ID, snap.Label, snap.CreatedAt); err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	for i, r := range resources {
		custom, err := marshalMap(r.Metadata.Custom)
		if err != nil {
			return Snapshot{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO resources(snapshot_id,position,language,domain,custom_json) VALUES (?,?,?,?,?)`,
			snap.ID, i, r.Metadata.Language, r.Metadata.Domain, custom); err != nil {
			return Snapshot{}, fmt.Errorf("insert resource %d: %w", i, err)
		}
		for j, e := range r.Entries {
			if err := insertEntry(ctx, tx, snap.ID, i, j, e); err != nil {
				return Snapshot{}, fmt.Errorf("insert entry %q: %w", e.ID, err)
			}
		}
		snap.Languages = append(snap.Languages, r.Metadata.Language)
		snap.Entries += len(r.Entries)
	}
	if err := s.events().Append(ctx, tx, events.TypeSnapshotSave, snap.ID, events.EventPayload{
		"label":     label,
		"languages": snap.Languages,
		"entries":   snap.Entries,
	}); err != nil {
		return Snapshot{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, snapshotID string, resPos, pos int, e domain.Entry) error {
	custom, err := marshalMap(e.Custom)
	if err != nil {
		return err
	}
	var kind string
	var value, plural any
	switch e.Value.Kind {
	case domain.TranslationSingular:
		kind, value = "singular", e.Value.Text
	case domain.TranslationPlural:
		kind = "plural"
		p := domain.Plural{}
		if e.Value.Plural != nil {
			p = *e.Value.Plural
		}
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		plural = string(b)
	default:
		kind = "empty"
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO entries(snapshot_id,resource_position,position,key,kind,value,plural_json,comment,status,custom_json) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		snapshotID, resPos, pos, e.ID, kind, value, plural, nullable(e.Comment), string(e.Status), custom)
	return err
}

const snapshotSelect = `SELECT s.id,s.label,s.created_at,
  COALESCE((SELECT group_concat(language, char(31)) FROM (SELECT language FROM resources r WHERE r.snapshot_id=s.id ORDER BY position)),''),
  (SELECT COUNT(*) FROM entries e WHERE e.snapshot_id=s.id)
FROM snapshots s`

func scanSnapshot(scan func(...any) error) (Snapshot, error) {
	var snap Snapshot
	var langs string
	if err := scan(&snap.ID, &snap.Label, &snap.CreatedAt, &langs, &snap.Entries); err != nil {
		return snap, err
	}
	snap.Languages = []string{}
	if langs != "" {
		snap.Languages = strings.Split(langs, "\x1f")
	}
	return snap, nil
}

// ListSnapshots returns snapshots newest first.
func (s Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx, snapshotSelect+` ORDER BY s.created_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, snap)
	}
	return res, rows.Err()
}

func (s Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	snap, err := scanSnapshot(s.DB.QueryRowContext(ctx, snapshotSelect+` WHERE s.id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return snap, ErrNotFound
	}
	return snap, err
}

// LoadSnapshot rebuilds the resources of a snapshot in their saved order.
func (s Store) LoadSnapshot(ctx context.Context, id string) ([]domain.Resource, error) {
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return nil, err
	}
	resources, err := s.loadResources(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT resource_position,key,kind,COALESCE(value,''),COALESCE(plural_json,''),COALESCE(comment,''),status,COALESCE(custom_json,'')
FROM entries WHERE snapshot_id=? ORDER BY resource_position, position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var resPos int
		var e domain.Entry
		var kind, value, plural, status, customPayload string
		if err := rows.Scan(&resPos, &e.ID, &kind, &value, &plural, &e.Comment, &status, &customPayload); err != nil {
			return nil, err
		}
		if resPos < 0 || resPos >= len(resources) {
			return nil, fmt.Errorf("entry %q references missing resource %d", e.ID, resPos)
		}
		switch kind {
		case "singular":
			e.Value = domain.Singular(value)
		case "plural":
			var p domain.Plural
			if err := json.Unmarshal([]byte(plural), &p); err != nil {
				return nil, fmt.Errorf("decode plural %q: %w", e.ID, err)
			}
			e.Value = domain.PluralOf(p)
		default:
			e.Value = domain.Empty()
		}
		e.Status = domain.EntryStatus(status)
		if e.Custom, err = unmarshalMap(customPayload); err != nil {
			return nil, err
		}
		resources[resPos].Entries = append(resources[resPos].Entries, e)
	}
	return resources, rows.Err()
}

func (s Store) loadResources(ctx context.Context, id string) ([]domain.Resource, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT language,domain,COALESCE(custom_json,'') FROM resources WHERE snapshot_id=? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Resource
	for rows.Next() {
		var r domain.Resource
		var customPayload string
		if err := rows.Scan(&r.Metadata.Language, &r.Metadata.Domain, &customPayload); err != nil {
			return nil, err
		}
		if r.Metadata.Custom, err = unmarshalMap(customPayload); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// DeleteSnapshot removes a snapshot with its resources and entries.
func (s Store) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := s.events().Append(ctx, tx, events.TypeSnapshotDelete, id, nil); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return tx.Commit()
}

// LatestEvents returns up to limit events newest first, optionally filtered by type.
func (s Store) LatestEvents(ctx context.Context, limit int, evtType string) ([]events.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(subject,''),payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []events.Event
	for rows.Next() {
		var e events.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.Subject, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func marshalMap(m map[string]string) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalMap(payload string) (map[string]string, error) {
	if payload == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode custom metadata: %w", err)
	}
	return m, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
