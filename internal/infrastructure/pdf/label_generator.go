// Package pdf genera la etiqueta imprimible de una pieza con Maroto v2.
//
// Layout (100 x 60 mm):
//
//	┌──────────────────────────────────────┐
//	│  ID de la pieza (grande)             │
//	│  ──────────────────────────────────  │
//	│  ┌────────┐  Nombre                  │
//	│  │   QR   │  S/N                     │
//	│  │        │  Proyecto + número       │
//	│  └────────┘  Ubicación               │
//	└──────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"net/url"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// LabelGenerator etiqueta con QR que apunta a la ficha de la pieza en el front-end.
type LabelGenerator struct {
	baseURL string
}

// NewLabelGenerator baseURL sin barra final, p. ej. https://tracker.example.com.
func NewLabelGenerator(baseURL string) *LabelGenerator {
	return &LabelGenerator{baseURL: baseURL}
}

// PartURL URL codificada en el QR.
func (g *LabelGenerator) PartURL(id string) string {
	return g.baseURL + "/part/" + url.PathEscape(id)
}

// RenderLabel genera el PDF y devuelve sus bytes.
func (g *LabelGenerator) RenderLabel(_ context.Context, part *entity.Part) ([]byte, error) {
	cfg := config.NewBuilder().
		WithDimensions(100, 60).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(2).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Part "+part.ID, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(part))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(bodyRow(part, g.PartURL(part.ID)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar etiqueta: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(part *entity.Part) core.Row {
	return row.New(9).Add(
		col.New(12).Add(
			text.New(part.ID, props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary}),
		),
	)
}

// bodyRow: QR (izq) y datos de la pieza (der).
func bodyRow(part *entity.Part, qrData string) core.Row {
	project := part.ProjectName
	if part.ProjectNumber != "" {
		project = fmt.Sprintf("%s (%s)", nonEmpty(part.ProjectName, "-"), part.ProjectNumber)
	}
	return row.New(38).Add(
		col.New(5).Add(code.NewQr(qrData, props.Rect{Percent: 95, Center: true})),
		col.New(7).Add(
			text.New(nonEmpty(part.Name, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 2, Left: 2}),
			text.New("S/N: "+nonEmpty(part.SerialNumber, "-"), props.Text{Size: 8, Top: 10, Left: 2}),
			text.New("Project: "+nonEmpty(project, "-"), props.Text{Size: 8, Top: 16, Left: 2}),
			text.New("Location: "+nonEmpty(part.Location, "-"), props.Text{Size: 8, Top: 22, Left: 2, Color: colorGray}),
			text.New(string(part.Status), props.Text{Style: fontstyle.Italic, Size: 7, Top: 29, Left: 2, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
