package part

import (
	"context"

	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

// LabelRenderer genera la etiqueta imprimible (PDF) de una pieza.
type LabelRenderer interface {
	RenderLabel(ctx context.Context, part *entity.Part) ([]byte, error)
}

// MutationRecorder recibe el resultado de cada mutación (métricas).
type MutationRecorder interface {
	RecordMutation(operation, result string)
	RecordConflict(operation string)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, string) {}
func (nopRecorder) RecordConflict(string)         {}
