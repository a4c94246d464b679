// internal/booking/postgres.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultQueryTimeout bounds every round trip to the database. An operation
// that exceeds it fails with ErrStorageTimeout instead of hanging.
const defaultQueryTimeout = 5 * time.Second

// PostgresStore is the durable reservation store. Admission runs inside a
// transaction that first takes a per-item advisory lock, so concurrent inserts
// for the same item are serialized while unrelated items proceed in parallel.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
	tracer  trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		timeout: defaultQueryTimeout,
		tracer:  otel.Tracer("bookly/booking/store"),
	}
}

// WithTimeout overrides the per-operation storage timeout.
func (s *PostgresStore) WithTimeout(d time.Duration) *PostgresStore {
	if d > 0 {
		s.timeout = d
	}
	return s
}

func (s *PostgresStore) Insert(ctx context.Context, r *Reservation) error {
	ctx, span := s.tracer.Start(ctx, "booking.store.insert",
		trace.WithAttributes(
			attribute.String("item.id", r.ItemID.String()),
			attribute.String("reservation.id", r.ID.String()),
		),
	)
	defer span.End()

	if !r.Span().Valid() {
		return ErrInvalidInterval
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	// Serialize admission per item. The lock is released on commit/rollback.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, r.ItemID); err != nil {
		return storageErr("acquire item lock", err)
	}

	var conflicts int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM reservations
		WHERE item_id = $1 AND starts_at < $3 AND ends_at > $2
	`, r.ItemID, r.StartsAt, r.EndsAt).Scan(&conflicts)
	if err != nil {
		return storageErr("check overlap", err)
	}
	if conflicts > 0 {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return ErrConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (id, item_id, member_id, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.ItemID, r.MemberID, r.StartsAt, r.EndsAt, r.CreatedAt)
	if err != nil {
		// 23514 is the CHECK (starts_at < ends_at) constraint at the schema boundary.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" {
			return ErrInvalidInterval
		}
		return storageErr("insert reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}

	span.SetAttributes(attribute.Bool("admission.success", true))
	return nil
}

func (s *PostgresStore) ListForItem(ctx context.Context, itemID uuid.UUID) ([]Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "booking.store.list",
		trace.WithAttributes(attribute.String("item.id", itemID.String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, member_id, starts_at, ends_at, created_at
		FROM reservations
		WHERE item_id = $1
		ORDER BY starts_at ASC
	`, itemID)
	if err != nil {
		return nil, storageErr("query reservations", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.ItemID, &r.MemberID, &r.StartsAt, &r.EndsAt, &r.CreatedAt); err != nil {
			return nil, storageErr("scan reservation", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate reservations", err)
	}

	span.SetAttributes(attribute.Int("reservations.count", len(out)))
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var r Reservation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, member_id, starts_at, ends_at, created_at
		FROM reservations
		WHERE id = $1
	`, id).Scan(&r.ID, &r.ItemID, &r.MemberID, &r.StartsAt, &r.EndsAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, storageErr("get reservation", err)
	}
	return &r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete reservation", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete reservation", err)
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrStorageTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
