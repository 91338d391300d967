package bookingrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	booking_id     TEXT PRIMARY KEY,
	created_at     TIMESTAMPTZ NOT NULL,
	technician_id  TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	payload        JSONB NOT NULL
)`

// PostgresRepository implements appliance.BookingRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the bookings table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "create bookings table", err)
	}
	return nil
}

// Save inserts the booking. A booking ID is only ever written once.
func (r *PostgresRepository) Save(ctx context.Context, booking appliance.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "encode booking", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO bookings (booking_id, created_at, technician_id, payment_status, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, booking.BookingID, booking.Timestamp.Time, booking.TechnicianID, string(booking.PaymentStatus), payload)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "insert booking", err)
	}
	return nil
}

// All returns bookings in creation order.
func (r *PostgresRepository) All(ctx context.Context) ([]appliance.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payload
		FROM bookings
		ORDER BY created_at, booking_id
	`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "list bookings", err)
	}
	defer rows.Close()
	out := []appliance.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "list bookings", err)
	}
	return out, nil
}

func (r *PostgresRepository) ByID(ctx context.Context, id string) (appliance.Booking, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT payload
		FROM bookings
		WHERE booking_id = $1
	`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return appliance.Booking{}, false, nil
	}
	if err != nil {
		return appliance.Booking{}, false, err
	}
	return booking, true, nil
}

func scanBooking(row pgx.Row) (appliance.Booking, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return appliance.Booking{}, err
		}
		return appliance.Booking{}, apperrors.Wrap(apperrors.CodeStorage, "scan booking", err)
	}
	var booking appliance.Booking
	if err := json.Unmarshal(payload, &booking); err != nil {
		return appliance.Booking{}, apperrors.Wrap(apperrors.CodeRepositoryDecode, "decode booking", err)
	}
	return booking, nil
}

var _ appliance.BookingRepository = (*PostgresRepository)(nil)
