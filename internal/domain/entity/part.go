package entity

import "time"

// PartStatus estado de una pieza. No hay grafo de transiciones: cualquier estado puede pasar a cualquier otro.
type PartStatus string

// Estados válidos de una pieza.
const (
	StatusReceived  PartStatus = "Received"
	StatusInWork    PartStatus = "In Work"
	StatusCompleted PartStatus = "Completed"
	StatusSentOut   PartStatus = "Sent Out"
)

// PartStatuses lista los estados en el orden en que se muestran en el formulario.
var PartStatuses = []PartStatus{StatusReceived, StatusInWork, StatusCompleted, StatusSentOut}

// Valid indica si el estado es uno de los cuatro reconocidos.
func (s PartStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusInWork, StatusCompleted, StatusSentOut:
		return true
	}
	return false
}

// Part representa una pieza de inventario rastreable (documento indexado por ID).
// Quantity nunca es negativa; History solo crece.
type Part struct {
	ID            string // clave primaria, inmutable
	Name          string
	Location      string
	SerialNumber  string
	ProjectName   string
	ProjectNumber string
	Description   string
	Quantity      int
	Status        PartStatus
	History       []HistoryEntry
	Version       int64 // token de concurrencia optimista, lo incrementa el store en cada Replace
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone devuelve una copia independiente (History no comparte el arreglo subyacente).
func (p Part) Clone() Part {
	out := p
	if p.History != nil {
		out.History = make([]HistoryEntry, len(p.History))
		copy(out.History, p.History)
	}
	return out
}
