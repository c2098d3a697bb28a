package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

// CreatePartRequest alta de una pieza. Quantity es obligatoria (puede ser 0).
type CreatePartRequest struct {
	ID            string `json:"id" validate:"max=128"`
	Name          string `json:"name" validate:"max=200"`
	Location      string `json:"location" validate:"max=200"`
	SerialNumber  string `json:"serialNumber" validate:"max=128"`
	ProjectName   string `json:"projectName" validate:"max=200"`
	ProjectNumber string `json:"projectNumber" validate:"max=64"`
	Description   string `json:"description" validate:"max=2000"`
	Quantity      *int   `json:"quantity"`
	Status        string `json:"status" validate:"omitempty,part_status"`
	UserID        string `json:"userId" validate:"max=128"`
}

// UpdatePartRequest reemplazo completo de los atributos descriptivos.
// El historial enviado por el cliente se ignora; Quantity debe coincidir con la almacenada
// y un Status distinto se registra como status-update. Version, si se envía, debe ser la vigente.
type UpdatePartRequest struct {
	ID            string `json:"id" validate:"max=128"`
	Name          string `json:"name" validate:"required,max=200"`
	Location      string `json:"location" validate:"max=200"`
	SerialNumber  string `json:"serialNumber" validate:"max=128"`
	ProjectName   string `json:"projectName" validate:"max=200"`
	ProjectNumber string `json:"projectNumber" validate:"max=64"`
	Description   string `json:"description" validate:"max=2000"`
	Quantity      *int   `json:"quantity"`
	Status        string `json:"status" validate:"omitempty,part_status"`
	Version       *int64 `json:"version"`
	UserID        string `json:"userId" validate:"max=128"`
}

// CheckInOutRequest entrada o salida de unidades.
// NewQuantity es la cantidad resultante que calculó el cliente; si no coincide, su vista está desactualizada.
type CheckInOutRequest struct {
	PartID      string     `json:"partId" validate:"max=128"`
	Type        string     `json:"type" validate:"omitempty,change_type"`
	Change      AmountText `json:"change"`
	NewQuantity *int       `json:"newQuantity"`
	UserID      string     `json:"userId" validate:"max=128"`
}

// UpdateStatusRequest cambio de estado.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"omitempty,part_status"`
	UserID string `json:"userId" validate:"max=128"`
}

// AmountText cantidad tal como la envía el formulario: número JSON o texto ("3").
// La interpretación estricta la hace lifecycle.ParseChangeAmount.
type AmountText string

// UnmarshalJSON acepta número, texto o null.
func (a *AmountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	*a = AmountText(b)
	return nil
}

// PartResponse salida de una pieza (mismos nombres de campo que el front-end).
type PartResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Location      string                 `json:"location"`
	SerialNumber  string                 `json:"serialNumber"`
	ProjectName   string                 `json:"projectName"`
	ProjectNumber string                 `json:"projectNumber"`
	Description   string                 `json:"description"`
	Quantity      int                    `json:"quantity"`
	Status        string                 `json:"status"`
	History       []HistoryEntryResponse `json:"history"`
	Version       int64                  `json:"version"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// HistoryEntryResponse registro de historial. Change se omite en status-update.
type HistoryEntryResponse struct {
	Type      string    `json:"type"`
	Change    *int      `json:"change,omitempty"`
	OldStatus string    `json:"oldStatus,omitempty"`
	NewStatus string    `json:"newStatus,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
}

// ToPartResponse convierte la entidad en la respuesta HTTP.
func ToPartResponse(p *entity.Part) *PartResponse {
	out := &PartResponse{
		ID:            p.ID,
		Name:          p.Name,
		Location:      p.Location,
		SerialNumber:  p.SerialNumber,
		ProjectName:   p.ProjectName,
		ProjectNumber: p.ProjectNumber,
		Description:   p.Description,
		Quantity:      p.Quantity,
		Status:        string(p.Status),
		History:       make([]HistoryEntryResponse, 0, len(p.History)),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, h := range p.History {
		entry := HistoryEntryResponse{
			Type:      string(h.Type),
			OldStatus: string(h.OldStatus),
			NewStatus: string(h.NewStatus),
			Timestamp: h.Timestamp,
			User:      h.User,
		}
		if h.AffectsQuantity() {
			change := h.Change
			entry.Change = &change
		}
		out.History = append(out.History, entry)
	}
	return out
}
