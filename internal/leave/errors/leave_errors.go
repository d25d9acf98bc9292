package leaveerrors

import (
	"fmt"
	"net/http"

	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
)

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be strictly before end_date",
		http.StatusBadRequest,
	)

	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"An approved or pending leave already overlaps this date range",
		http.StatusConflict,
	)

	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave request not found",
		http.StatusNotFound,
	)

	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid leave request id",
		http.StatusBadRequest,
	)
)

// InvalidTransition reports a decision attempted on a request that has
// already left PENDING. The current status is part of the message so the
// caller can explain the failure.
func InvalidTransition(currentStatus string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Only PENDING leave requests can be decided, current status: %s", currentStatus),
		http.StatusBadRequest,
	)
}
