package entity

import "time"

// HistoryType tipo de registro de auditoría.
type HistoryType string

// Tipos de registro en el historial de una pieza.
const (
	HistoryInitialAdd   HistoryType = "initial-add"   // alta con cantidad inicial
	HistoryCheckIn      HistoryType = "check-in"      // entrada
	HistoryCheckOut     HistoryType = "check-out"     // salida
	HistoryStatusUpdate HistoryType = "status-update" // cambio de estado
)

// AnonymousUser usuario registrado cuando no se conoce quién hizo el cambio.
const AnonymousUser = "Anonymous"

// HistoryEntry registro inmutable de una mutación de cantidad o estado.
// Change aplica a initial-add/check-in/check-out; OldStatus/NewStatus solo a status-update.
type HistoryEntry struct {
	Type      HistoryType
	Change    int
	OldStatus PartStatus
	NewStatus PartStatus
	Timestamp time.Time
	User      string
}

// AffectsQuantity indica si el registro corresponde a un cambio de cantidad.
func (h HistoryEntry) AffectsQuantity() bool {
	return h.Type != HistoryStatusUpdate
}
