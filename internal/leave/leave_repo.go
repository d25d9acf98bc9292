package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	leaveerrors "github.com/Jenkinson16/leaveease-api/internal/leave/errors"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
	FindAll(ctx context.Context) ([]Record, error)
	UpdateDecision(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error
	ExistsOverlap(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error)
	LockUser(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

type dbExec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) conn() dbExec {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const recordColumns = `
	lr.id,
	u.username,
	lr.leave_type,
	lr.start_date,
	lr.end_date,
	lr.reason,
	lr.status,
	au.username,
	lr.created_at
`

const recordJoins = `
FROM leave_requests lr
JOIN users u ON u.id = lr.user_id
LEFT JOIN users au ON au.id = lr.approved_by_id
`

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, user_id, leave_type, start_date, end_date, reason, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
`
	_, err := r.conn().ExecContext(
		ctx, query,
		l.ID, l.UserID, l.LeaveType, l.StartDate, l.EndDate, l.Reason, l.Status,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := `SELECT` + recordColumns + recordJoins + `WHERE lr.id = $1`

	rec, err := scanRecord(r.conn().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return rec, nil
}

// FindByIDForUpdate locks the row for the lifetime of the surrounding
// transaction so concurrent decisions serialize on it.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	query := `
SELECT id, user_id, leave_type, start_date, end_date, reason, status, approved_by_id, created_at, updated_at
FROM leave_requests
WHERE id = $1
FOR UPDATE
`
	var l LeaveRequest
	err := r.conn().QueryRowContext(ctx, query, id).Scan(
		&l.ID,
		&l.UserID,
		&l.LeaveType,
		&l.StartDate,
		&l.EndDate,
		&l.Reason,
		&l.Status,
		&l.ApprovedByID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	query := `SELECT` + recordColumns + recordJoins + `WHERE lr.user_id = $1 ORDER BY lr.created_at DESC`

	rows, err := r.conn().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *repository) FindAll(ctx context.Context) ([]Record, error) {
	query := `SELECT` + recordColumns + recordJoins + `ORDER BY lr.created_at ASC`

	rows, err := r.conn().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *repository) UpdateDecision(ctx context.Context, id uuid.UUID, status string, approvedByID uuid.UUID) error {
	query := `
UPDATE leave_requests
SET status = $2, approved_by_id = $3, updated_at = NOW()
WHERE id = $1
`
	res, err := r.conn().ExecContext(ctx, query, id, status, approvedByID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leaveerrors.ErrLeaveNotFound
	}
	return nil
}

// ExistsOverlap runs the inclusive interval test: an existing request
// conflicts when existing.start <= candidate.end AND
// existing.end >= candidate.start. Ranges touching at a boundary date
// count as overlapping.
func (r *repository) ExistsOverlap(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time, statuses []string) (bool, error) {
	placeholders := make([]string, len(statuses))
	args := []any{userID, startDate, endDate}
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, s)
	}

	query := fmt.Sprintf(`
SELECT EXISTS (
	SELECT 1 FROM leave_requests
	WHERE user_id = $1
	  AND status IN (%s)
	  AND start_date <= $3
	  AND end_date >= $2
)
`, strings.Join(placeholders, ", "))

	var exists bool
	err := r.conn().QueryRowContext(ctx, query, args...).Scan(&exists)
	return exists, err
}

// LockUser takes a transaction-scoped advisory lock keyed by the owner,
// serializing concurrent creates for the same user so the overlap check
// and the insert are observed atomically.
func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.conn().ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.LeaveType,
		&rec.StartDate,
		&rec.EndDate,
		&rec.Reason,
		&rec.Status,
		&rec.ApprovedByUsername,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
