// Package partdoc define la forma JSON con la que se persiste una pieza en los almacenes de
// documentos (mismos nombres de campo que usa el front-end).
package partdoc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

// Document documento persistido de una pieza.
type Document struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Location      string         `json:"location"`
	SerialNumber  string         `json:"serialNumber"`
	ProjectName   string         `json:"projectName"`
	ProjectNumber string         `json:"projectNumber"`
	Description   string         `json:"description"`
	Quantity      int            `json:"quantity"`
	Status        string         `json:"status"`
	History       []HistoryEntry `json:"history"`
	Version       int64          `json:"version"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// HistoryEntry registro de historial persistido. Change es nil en status-update.
type HistoryEntry struct {
	Type      string    `json:"type"`
	Change    *int      `json:"change,omitempty"`
	OldStatus string    `json:"oldStatus,omitempty"`
	NewStatus string    `json:"newStatus,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
}

// FromEntity convierte la entidad en documento.
func FromEntity(p *entity.Part) Document {
	doc := Document{
		ID:            p.ID,
		Name:          p.Name,
		Location:      p.Location,
		SerialNumber:  p.SerialNumber,
		ProjectName:   p.ProjectName,
		ProjectNumber: p.ProjectNumber,
		Description:   p.Description,
		Quantity:      p.Quantity,
		Status:        string(p.Status),
		History:       make([]HistoryEntry, 0, len(p.History)),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, h := range p.History {
		entry := HistoryEntry{
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
		doc.History = append(doc.History, entry)
	}
	return doc
}

// ToEntity convierte el documento en entidad.
func (d Document) ToEntity() *entity.Part {
	p := &entity.Part{
		ID:            d.ID,
		Name:          d.Name,
		Location:      d.Location,
		SerialNumber:  d.SerialNumber,
		ProjectName:   d.ProjectName,
		ProjectNumber: d.ProjectNumber,
		Description:   d.Description,
		Quantity:      d.Quantity,
		Status:        entity.PartStatus(d.Status),
		History:       make([]entity.HistoryEntry, 0, len(d.History)),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, h := range d.History {
		entry := entity.HistoryEntry{
			Type:      entity.HistoryType(h.Type),
			OldStatus: entity.PartStatus(h.OldStatus),
			NewStatus: entity.PartStatus(h.NewStatus),
			Timestamp: h.Timestamp,
			User:      h.User,
		}
		if h.Change != nil {
			entry.Change = *h.Change
		}
		p.History = append(p.History, entry)
	}
	return p
}

// Marshal serializa la pieza como documento JSON.
func Marshal(p *entity.Part) ([]byte, error) {
	b, err := json.Marshal(FromEntity(p))
	if err != nil {
		return nil, fmt.Errorf("marshal part document: %w", err)
	}
	return b, nil
}

// Unmarshal decodifica un documento JSON en entidad.
func Unmarshal(data []byte) (*entity.Part, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal part document: %w", err)
	}
	return doc.ToEntity(), nil
}
