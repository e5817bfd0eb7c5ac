//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// BookingState is the persisted lifecycle of one booking row.
type BookingState struct {
	Status          string
	CalendarEventID *string
	ConfirmedVia    *string
	LastError       *string
}

func LoadBookingState(t *testing.T, db DBLike, id uuid.UUID) BookingState {
	t.Helper()

	var s BookingState
	err := db.QueryRow(context.Background(),
		"SELECT status, calendar_event_id, confirmed_via, last_error FROM bookings WHERE id = $1", id).
		Scan(&s.Status, &s.CalendarEventID, &s.ConfirmedVia, &s.LastError)
	require.NoError(t, err)
	return s
}

func CountJobs(t *testing.T, db DBLike, topic string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM notification_jobs WHERE topic = $1", topic).Scan(&n)
	require.NoError(t, err)
	return n
}

// AgeBooking moves created_at into the past so expiry picks the booking up.
func AgeBooking(t *testing.T, db DBLike, id uuid.UUID, age time.Duration) {
	t.Helper()

	tag, err := db.Exec(context.Background(),
		"UPDATE bookings SET created_at = created_at - $2::interval WHERE id = $1", id, fmt.Sprintf("%d seconds", int(age.Seconds())))
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
