package leave

import (
	"time"

	"github.com/google/uuid"

	leaveerrors "github.com/Jenkinson16/leaveease-api/internal/leave/errors"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// LeaveRequest is the persisted aggregate. Owner and approver are plain
// foreign-key identifiers; usernames are resolved by the repository with
// explicit joins, never through lazy relations.
type LeaveRequest struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_requests_user_dates"`
	LeaveType    string     `gorm:"type:varchar(20);not null"`
	StartDate    time.Time  `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	EndDate      time.Time  `gorm:"type:date;not null;index:idx_leave_requests_user_dates"`
	Reason       string     `gorm:"type:text;not null;default:''"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ApprovedByID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// NewLeaveRequest builds a pending request. The start date must be
// strictly before the end date; equal or inverted ranges are rejected
// here so an invalid range can never reach the store.
func NewLeaveRequest(userID uuid.UUID, leaveType string, startDate, endDate time.Time, reason string) (*LeaveRequest, error) {
	if !startDate.Before(endDate) {
		return nil, leaveerrors.ErrInvalidDateRange
	}
	return &LeaveRequest{
		ID:        uuid.New(),
		UserID:    userID,
		LeaveType: leaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    reason,
		Status:    StatusPending,
	}, nil
}

// Record is a leave request with its display identifiers resolved.
type Record struct {
	ID                 uuid.UUID
	Username           string
	LeaveType          string
	StartDate          time.Time
	EndDate            time.Time
	Reason             string
	Status             string
	ApprovedByUsername *string
	CreatedAt          time.Time
}
