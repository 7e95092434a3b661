// Package outbox reads the events that order transactions append and relays them to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Record struct {
	ID        int64           `db:"id" json:"id"`
	EventID   string          `db:"event_id" json:"event_id"`
	Topic     string          `db:"topic" json:"topic"`
	Key       string          `db:"key" json:"key"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	SentAt    *time.Time      `db:"sent_at" json:"sent_at"`
}

type Repo interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

// PgRepo reads the outbox through a pgx pool.
type PgRepo struct {
	Pool *pgxpool.Pool
}

func (r PgRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.Pool.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

func (r PgRepo) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.Pool.Query(ctx, `SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SQLRepo reads the outbox through database/sql; it serves the SQLite deployment.
type SQLRepo struct {
	DB *sqlx.DB
}

func (r SQLRepo) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	// payload comes back as TEXT on SQLite, which database/sql will not put into a RawMessage.
	var rows []struct {
		Record
		Payload string `db:"payload"`
	}
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(`SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := row.Record
		rec.Payload = json.RawMessage(row.Payload)
		out = append(out, rec)
	}
	return out, nil
}

func (r SQLRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE outbox SET sent_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}
