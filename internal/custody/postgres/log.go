package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	checkoutDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/checkout"
	"github.com/umoc-outing-club/gear-locker/internal/custody"
)

// LogReader serves read-only queries over the transaction log.
type LogReader struct {
	db *sqlx.DB
}

func NewLogReader(db *sqlx.DB) *LogReader {
	return &LogReader{db: db}
}

func (r *LogReader) ListRecords(ctx context.Context, q custody.LogQuery) ([]*checkoutDatamodel.CheckOut, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.GearTag != "" {
		where = append(where, "gear_tag = ?")
		args = append(args, q.GearTag)
	}
	if q.BorrowerID != "" {
		where = append(where, "user_spire_id = ?")
		args = append(args, q.BorrowerID)
	}

	query := `SELECT id, date, gear_tag, user_spire_id, lead_spire_id, direction, created_at FROM check_outs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	records := make([]*checkoutDatamodel.CheckOut, 0)
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return records, nil
}
