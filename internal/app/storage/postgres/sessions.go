package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/todo_service/internal/app/domain/session"
	"github.com/R3E-Network/todo_service/internal/app/storage"
)

// SessionStore keeps sessions as JSONB documents in the sessions table.
// Bulk logout matches on the email embedded in the document, so the JSON
// shape of session.Record is part of the storage contract.
type SessionStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)
var _ storage.SessionPurger = (*SessionStore)(nil)
var _ storage.Pinger = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore using the provided database handle.
func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Ping checks the database connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SessionStore) SaveSession(ctx context.Context, rec session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("sessions").
		Columns("id", "data", "expires_at").
		Values(rec.ID, data, rec.ExpiresAt.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (session.Record, error) {
	query, args, err := psql.Select("data").
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Gt{"expires_at": s.now().UTC()}).
		ToSql()
	if err != nil {
		return session.Record{}, err
	}

	var raw []byte
	if err := s.db.GetContext(ctx, &raw, query, args...); err != nil {
		return session.Record{}, notFound(err)
	}

	var rec session.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.Record{}, err
	}
	return rec, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	query, args, err := psql.Delete("sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SessionStore) DeleteSessionsByEmail(ctx context.Context, email string) (int64, error) {
	query, args, err := psql.Delete("sessions").
		Where(squirrel.Expr("data->'user'->>'email' = ?", email)).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SessionStore) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql.Delete("sessions").
		Where(squirrel.LtOrEq{"expires_at": now.UTC()}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SessionStore) exec(ctx context.Context, query string, args []interface{}) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
