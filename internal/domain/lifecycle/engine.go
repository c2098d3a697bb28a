// Package lifecycle contiene las reglas de transformación de una pieza: entradas, salidas,
// cambios de estado y alta con historial inicial. No tiene acceso al almacenamiento: recibe
// la instantánea actual y devuelve la siguiente, o un error sin haber modificado nada.
package lifecycle

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

// Clock devuelve el instante de aplicación de una mutación.
type Clock func() time.Time

// Engine servicio de dominio sin estado; seguro para uso concurrente.
type Engine struct {
	now Clock
}

// NewEngine construye el motor. Si clock es nil usa la hora UTC del sistema.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{now: clock}
}

// Now instante actual según el reloj del motor.
func (e *Engine) Now() time.Time { return e.now() }

// PartFields atributos de alta de una pieza. Status vacío equivale a Received.
type PartFields struct {
	ID            string
	Name          string
	Location      string
	SerialNumber  string
	ProjectName   string
	ProjectNumber string
	Description   string
	Status        entity.PartStatus
}

// ParseChangeAmount interpreta la cantidad tal como llega de un formulario.
// Debe ser un entero en base 10 estrictamente positivo.
func ParseChangeAmount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return n, nil
}

// ParseChangeType convierte el texto en un tipo de movimiento de cantidad (check-in o check-out).
func ParseChangeType(raw string) (entity.HistoryType, error) {
	switch t := entity.HistoryType(strings.TrimSpace(raw)); t {
	case entity.HistoryCheckIn, entity.HistoryCheckOut:
		return t, nil
	}
	return "", domain.ErrUnknownChangeType
}

// ApplyQuantityChange valida y aplica una entrada o salida.
// Orden de validación: cantidad positiva, tipo reconocido, stock suficiente para la salida.
// Una entrada que desbordaría int se rechaza como cantidad inválida.
func (e *Engine) ApplyQuantityChange(part entity.Part, changeType entity.HistoryType, changeAmount int, actingUser string) (entity.Part, error) {
	if changeAmount <= 0 {
		return entity.Part{}, domain.ErrInvalidAmount
	}
	var newQty int
	switch changeType {
	case entity.HistoryCheckIn:
		if changeAmount > math.MaxInt-part.Quantity {
			return entity.Part{}, domain.ErrInvalidAmount
		}
		newQty = part.Quantity + changeAmount
	case entity.HistoryCheckOut:
		if changeAmount > part.Quantity {
			return entity.Part{}, domain.ErrInsufficientQuantity
		}
		newQty = part.Quantity - changeAmount
	default:
		return entity.Part{}, domain.ErrUnknownChangeType
	}

	now := e.now()
	next := part.Clone()
	next.Quantity = newQty
	next.UpdatedAt = now
	next.History = append(next.History, entity.HistoryEntry{
		Type:      changeType,
		Change:    changeAmount,
		Timestamp: now,
		User:      userOrAnonymous(actingUser),
	})
	return next, nil
}

// ApplyStatusChange cambia el estado de la pieza. Repetir el estado actual es un no-op y se rechaza.
func (e *Engine) ApplyStatusChange(part entity.Part, newStatus entity.PartStatus, actingUser string) (entity.Part, error) {
	if newStatus == "" || newStatus == part.Status {
		return entity.Part{}, domain.ErrNoOpRejected
	}
	if !newStatus.Valid() {
		return entity.Part{}, domain.ErrUnknownStatus
	}

	now := e.now()
	next := part.Clone()
	next.Status = newStatus
	next.UpdatedAt = now
	next.History = append(next.History, entity.HistoryEntry{
		Type:      entity.HistoryStatusUpdate,
		OldStatus: part.Status,
		NewStatus: newStatus,
		Timestamp: now,
		User:      userOrAnonymous(actingUser),
	})
	return next, nil
}

// CreatePart construye una pieza nueva con un único registro initial-add.
// La detección de IDs duplicados corresponde al llamador, que sí tiene acceso al store.
func (e *Engine) CreatePart(fields PartFields, initialQuantity *int, actingUser string) (entity.Part, error) {
	if strings.TrimSpace(fields.ID) == "" || strings.TrimSpace(fields.Name) == "" || initialQuantity == nil {
		return entity.Part{}, domain.ErrMissingRequiredField
	}
	if *initialQuantity < 0 {
		return entity.Part{}, domain.ErrInvalidAmount
	}
	status := fields.Status
	if status == "" {
		status = entity.StatusReceived
	}
	if !status.Valid() {
		return entity.Part{}, domain.ErrUnknownStatus
	}

	now := e.now()
	return entity.Part{
		ID:            fields.ID,
		Name:          fields.Name,
		Location:      fields.Location,
		SerialNumber:  fields.SerialNumber,
		ProjectName:   fields.ProjectName,
		ProjectNumber: fields.ProjectNumber,
		Description:   fields.Description,
		Quantity:      *initialQuantity,
		Status:        status,
		History: []entity.HistoryEntry{{
			Type:      entity.HistoryInitialAdd,
			Change:    *initialQuantity,
			Timestamp: now,
			User:      userOrAnonymous(actingUser),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func userOrAnonymous(u string) string {
	if strings.TrimSpace(u) == "" {
		return entity.AnonymousUser
	}
	return u
}
