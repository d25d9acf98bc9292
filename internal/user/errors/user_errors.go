package usererrors

import (
	"net/http"

	"github.com/Jenkinson16/leaveease-api/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrUserAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"A user with the same username or email already exists",
		http.StatusConflict,
	)

	ErrUsernameTaken = apperror.New(
		apperror.CodeConflict,
		"Username already taken",
		http.StatusConflict,
	)

	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		"Email already registered",
		http.StatusConflict,
	)
)
