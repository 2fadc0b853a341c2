package service

import (
	"errors"
	"fmt"
)

// Базовая таксономия ошибок; хендлеры вычисляют HTTP-статус через errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Уточнённые ошибки; каждая заворачивает базовую.
var (
	ErrResearcherIDTaken  = fmt.Errorf("%w: researcher id already exists", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrAlreadyMember      = fmt.Errorf("%w: user is already a member", ErrConflict)
	ErrOwnerNotRemovable  = fmt.Errorf("%w: cannot remove the group owner", ErrValidation)
)
