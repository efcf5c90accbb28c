package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// Event types recorded by the portal.
const (
	TypeRoleChanged      = "RoleChanged"
	TypeGradeApplied     = "GradeApplied"
	TypeGradeReturned    = "GradeReturned"
	TypeAIGradeRequested = "AIGradeRequested"
	TypeImpersonation    = "ImpersonationStarted"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: submissionID or userID
	Actor     string
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, actor, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Type, e.Key, e.Actor, e.DataJSON, time.Now().Unix())
	return err
}

// Record appends best-effort: audit failures are logged, never surfaced.
func (r *EventRepo) Record(ctx context.Context, typ, key, actor string, data interface{}) {
	buf, err := json.Marshal(data)
	if err != nil {
		buf = []byte("{}")
	}
	if err := r.Append(ctx, Event{Type: typ, Key: key, Actor: actor, DataJSON: string(buf)}); err != nil {
		log.Printf("audit append failed (%s %s): %v", typ, key, err)
	}
}
