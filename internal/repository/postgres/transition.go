package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"bookingwatch/internal/domain"
)

// TransitionRepository is a PostgreSQL implementation of
// repository.TransitionRepository.
//
// Expected schema:
//
//	CREATE TABLE booking_transitions (
//	    id             TEXT PRIMARY KEY,
//	    session_id     TEXT NOT NULL,
//	    booking_id     TEXT NOT NULL,
//	    from_status    TEXT,
//	    to_status      TEXT NOT NULL,
//	    payment_status TEXT,
//	    observed_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX booking_transitions_booking_idx ON booking_transitions (booking_id, observed_at);
type TransitionRepository struct {
	q Querier
}

// NewTransitionRepository creates a new PostgreSQL transition repository.
func NewTransitionRepository(db *sql.DB) *TransitionRepository {
	return &TransitionRepository{q: db}
}

// Record persists one observed transition.
func (r *TransitionRepository) Record(ctx context.Context, t *domain.Transition) error {
	query := `
		INSERT INTO booking_transitions (id, session_id, booking_id, from_status, to_status, payment_status, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id := t.ID
	if id == "" {
		id = uuid.New().String()
	}

	var fromStatus sql.NullString
	if t.From != "" {
		fromStatus = sql.NullString{String: string(t.From), Valid: true}
	}

	var paymentStatus sql.NullString
	if t.PaymentStatus != "" {
		paymentStatus = sql.NullString{String: string(t.PaymentStatus), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		id,
		t.SessionID,
		t.BookingID,
		fromStatus,
		string(t.To),
		paymentStatus,
		t.ObservedAt,
	)

	return err
}

// ListByBooking retrieves a booking's transitions, oldest first.
func (r *TransitionRepository) ListByBooking(ctx context.Context, bookingID string) ([]*domain.Transition, error) {
	query := `
		SELECT id, session_id, booking_id, from_status, to_status, payment_status, observed_at
		FROM booking_transitions
		WHERE booking_id = $1
		ORDER BY observed_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*domain.Transition
	for rows.Next() {
		var t domain.Transition
		var fromStatus, paymentStatus sql.NullString

		if err := rows.Scan(&t.ID, &t.SessionID, &t.BookingID, &fromStatus, &t.To, &paymentStatus, &t.ObservedAt); err != nil {
			return nil, err
		}
		if fromStatus.Valid {
			t.From = domain.BookingStatus(fromStatus.String)
		}
		if paymentStatus.Valid {
			t.PaymentStatus = domain.PaymentStatus(paymentStatus.String)
		}
		transitions = append(transitions, &t)
	}

	return transitions, rows.Err()
}
