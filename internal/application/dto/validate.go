package dto

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Nombres de campo según la etiqueta json, para que el mensaje coincida con el cuerpo recibido.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("part_status", func(fl validator.FieldLevel) bool {
		return entity.PartStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("change_type", func(fl validator.FieldLevel) bool {
		switch entity.HistoryType(fl.Field().String()) {
		case entity.HistoryCheckIn, entity.HistoryCheckOut:
			return true
		}
		return false
	})
	return v
}

// ValidationError campos inválidos de un DTO. errors.Is(err, domain.ErrInvalidInput) es verdadero.
type ValidationError struct {
	Fields map[string]string // campo -> regla incumplida
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", f, e.Fields[f]))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidInput }

// Validate aplica las etiquetas validate del DTO.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fe.Tag()
	}
	return out
}
