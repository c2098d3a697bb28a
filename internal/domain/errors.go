package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// El texto de cada error es el mensaje corto que se muestra al usuario.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientQuantity = errors.New("cannot check out more than available")
	ErrNoOpRejected         = errors.New("select a new status to update")
	ErrNotFound             = errors.New("part not found")
	ErrDuplicate            = errors.New("part with this id already exists")
	ErrStoreUnavailable     = errors.New("part store unavailable")
	ErrConflict             = errors.New("part was modified concurrently, retry")
	ErrQuantityMismatch     = errors.New("new quantity does not match the current stock")
)

// Variantes de ErrInvalidInput: errors.Is(err, ErrInvalidInput) es verdadero para todas.
var (
	ErrInvalidAmount        = fmt.Errorf("%w: enter a valid positive number", ErrInvalidInput)
	ErrMissingRequiredField = fmt.Errorf("%w: id, name and quantity are required", ErrInvalidInput)
	ErrUnknownStatus        = fmt.Errorf("%w: unknown part status", ErrInvalidInput)
	ErrUnknownChangeType    = fmt.Errorf("%w: type must be check-in or check-out", ErrInvalidInput)
	ErrIDMismatch           = fmt.Errorf("%w: part id in body does not match request id", ErrInvalidInput)
	ErrMissingID            = fmt.Errorf("%w: please pass a part id", ErrInvalidInput)
	ErrQuantityViaMovements = fmt.Errorf("%w: quantity changes only through check-in/check-out", ErrInvalidInput)
)
