// Package part orquesta almacén y motor de ciclo de vida: cada mutación es un ciclo
// leer → aplicar → reemplazar con la versión leída, reintentado ante conflicto de versión.
package part

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Tweltz1/Project-Tracking/internal/application/dto"
	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/lifecycle"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// Operaciones (etiqueta de métricas y logs).
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpCheckInOut = "checkinout"
	OpStatus     = "status"
	OpDelete     = "delete"
)

// Resultados de mutación.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// UseCase casos de uso de piezas.
type UseCase struct {
	repo       repository.PartRepository
	engine     *lifecycle.Engine
	labels     LabelRenderer
	recorder   MutationRecorder
	log        *logger.Logger
	maxRetries int
}

// NewUseCase construye el caso de uso. recorder y log pueden ser nil.
func NewUseCase(repo repository.PartRepository, engine *lifecycle.Engine, labels LabelRenderer, recorder MutationRecorder, log *logger.Logger, maxRetries int) *UseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &UseCase{
		repo:       repo,
		engine:     engine,
		labels:     labels,
		recorder:   recorder,
		log:        log,
		maxRetries: maxRetries,
	}
}

// List devuelve todas las piezas ordenadas por ID. Si query no está vacío filtra por ID,
// nombre, número de serie, proyecto, número de proyecto o estado (sin distinguir mayúsculas).
func (uc *UseCase) List(ctx context.Context, query string) ([]*dto.PartResponse, error) {
	parts, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })

	// cases.Caser no es seguro entre goroutines: uno por llamada.
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	out := make([]*dto.PartResponse, 0, len(parts))
	for _, p := range parts {
		if needle != "" && !matches(fold, p, needle) {
			continue
		}
		out = append(out, dto.ToPartResponse(p))
	}
	return out, nil
}

func matches(fold cases.Caser, p *entity.Part, needle string) bool {
	for _, field := range []string{p.ID, p.Name, p.SerialNumber, p.ProjectName, p.ProjectNumber, string(p.Status)} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

// Get obtiene una pieza por ID.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.PartResponse, error) {
	p, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToPartResponse(p), nil
}

// Create da de alta una pieza con su registro initial-add.
func (uc *UseCase) Create(ctx context.Context, actingUser string, in dto.CreatePartRequest) (*dto.PartResponse, error) {
	if err := dto.Validate(in); err != nil {
		uc.recorder.RecordMutation(OpCreate, ResultRejected)
		return nil, err
	}
	user := firstNonEmpty(actingUser, in.UserID)
	p, err := uc.engine.CreatePart(lifecycle.PartFields{
		ID:            strings.TrimSpace(in.ID),
		Name:          in.Name,
		Location:      in.Location,
		SerialNumber:  in.SerialNumber,
		ProjectName:   in.ProjectName,
		ProjectNumber: in.ProjectNumber,
		Description:   in.Description,
		Status:        entity.PartStatus(in.Status),
	}, in.Quantity, user)
	if err != nil {
		uc.recorder.RecordMutation(OpCreate, ResultRejected)
		return nil, err
	}

	existing, err := uc.repo.GetByID(ctx, p.ID)
	if err != nil {
		uc.recorder.RecordMutation(OpCreate, ResultError)
		return nil, err
	}
	if existing != nil {
		uc.recorder.RecordMutation(OpCreate, ResultRejected)
		return nil, domain.ErrDuplicate
	}
	if err := uc.repo.Create(ctx, &p); err != nil {
		uc.recorder.RecordMutation(OpCreate, classify(err))
		return nil, err
	}

	uc.recorder.RecordMutation(OpCreate, ResultOK)
	uc.log.Info().Str("part_id", p.ID).Int("quantity", p.Quantity).Str("user", p.History[0].User).Msg("pieza creada")
	return dto.ToPartResponse(&p), nil
}

// Update reemplaza los atributos descriptivos de la pieza id. El cuerpo debe traer el mismo id.
func (uc *UseCase) Update(ctx context.Context, id, actingUser string, in dto.UpdatePartRequest) (*dto.PartResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrMissingID
	}
	if strings.TrimSpace(in.ID) != id {
		uc.recorder.RecordMutation(OpUpdate, ResultRejected)
		return nil, domain.ErrIDMismatch
	}
	if err := dto.Validate(in); err != nil {
		uc.recorder.RecordMutation(OpUpdate, ResultRejected)
		return nil, err
	}
	user := firstNonEmpty(actingUser, in.UserID)

	p, err := uc.mutate(ctx, OpUpdate, id, func(current entity.Part) (entity.Part, error) {
		if in.Version != nil && *in.Version != current.Version {
			return entity.Part{}, domain.ErrConflict
		}
		if in.Quantity != nil && *in.Quantity != current.Quantity {
			return entity.Part{}, domain.ErrQuantityViaMovements
		}
		next := current.Clone()
		if in.Status != "" && entity.PartStatus(in.Status) != current.Status {
			var err error
			if next, err = uc.engine.ApplyStatusChange(current, entity.PartStatus(in.Status), user); err != nil {
				return entity.Part{}, err
			}
		}
		next.Name = in.Name
		next.Location = in.Location
		next.SerialNumber = in.SerialNumber
		next.ProjectName = in.ProjectName
		next.ProjectNumber = in.ProjectNumber
		next.Description = in.Description
		next.UpdatedAt = uc.engine.Now()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToPartResponse(p), nil
}

// CheckInOut aplica una entrada o salida. El usuario es el autenticado, si no el del cuerpo.
func (uc *UseCase) CheckInOut(ctx context.Context, actingUser string, in dto.CheckInOutRequest) (*dto.PartResponse, error) {
	id := strings.TrimSpace(in.PartID)
	if id == "" {
		uc.recorder.RecordMutation(OpCheckInOut, ResultRejected)
		return nil, domain.ErrMissingID
	}
	if err := dto.Validate(in); err != nil {
		uc.recorder.RecordMutation(OpCheckInOut, ResultRejected)
		return nil, err
	}
	amount, err := lifecycle.ParseChangeAmount(string(in.Change))
	if err != nil {
		uc.recorder.RecordMutation(OpCheckInOut, ResultRejected)
		return nil, err
	}
	changeType, err := lifecycle.ParseChangeType(in.Type)
	if err != nil {
		uc.recorder.RecordMutation(OpCheckInOut, ResultRejected)
		return nil, err
	}
	user := firstNonEmpty(actingUser, in.UserID)

	p, err := uc.mutate(ctx, OpCheckInOut, id, func(current entity.Part) (entity.Part, error) {
		next, err := uc.engine.ApplyQuantityChange(current, changeType, amount, user)
		if err != nil {
			return entity.Part{}, err
		}
		if in.NewQuantity != nil && *in.NewQuantity != next.Quantity {
			return entity.Part{}, domain.ErrQuantityMismatch
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToPartResponse(p), nil
}

// UpdateStatus cambia el estado de la pieza id.
func (uc *UseCase) UpdateStatus(ctx context.Context, id, actingUser string, in dto.UpdateStatusRequest) (*dto.PartResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrMissingID
	}
	if err := dto.Validate(in); err != nil {
		uc.recorder.RecordMutation(OpStatus, ResultRejected)
		return nil, err
	}
	user := firstNonEmpty(actingUser, in.UserID)

	p, err := uc.mutate(ctx, OpStatus, id, func(current entity.Part) (entity.Part, error) {
		return uc.engine.ApplyStatusChange(current, entity.PartStatus(in.Status), user)
	})
	if err != nil {
		return nil, err
	}
	return dto.ToPartResponse(p), nil
}

// Delete elimina la pieza id.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrMissingID
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.recorder.RecordMutation(OpDelete, classify(err))
		return err
	}
	uc.recorder.RecordMutation(OpDelete, ResultOK)
	uc.log.Info().Str("part_id", id).Msg("pieza eliminada")
	return nil
}

// Label genera la etiqueta PDF de la pieza id.
func (uc *UseCase) Label(ctx context.Context, id string) ([]byte, error) {
	p, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := uc.labels.RenderLabel(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("render label %s: %w", id, err)
	}
	return out, nil
}

// Ping estado del almacén.
func (uc *UseCase) Ping(ctx context.Context) error {
	return uc.repo.Ping(ctx)
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.Part, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrMissingID
	}
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// mutate lee la pieza, aplica fn y la reemplaza con la versión leída. Ante ErrConflict del
// almacén vuelve a leer y reaplicar, hasta maxRetries intentos. Errores de fn no se reintentan.
func (uc *UseCase) mutate(ctx context.Context, op, id string, fn func(current entity.Part) (entity.Part, error)) (*entity.Part, error) {
	for attempt := 1; ; attempt++ {
		current, err := uc.load(ctx, id)
		if err != nil {
			uc.recorder.RecordMutation(op, classify(err))
			return nil, err
		}
		next, err := fn(*current)
		if err != nil {
			uc.recorder.RecordMutation(op, ResultRejected)
			return nil, err
		}
		err = uc.repo.Replace(ctx, &next, current.Version)
		if err == nil {
			uc.recorder.RecordMutation(op, ResultOK)
			uc.log.Info().
				Str("op", op).
				Str("part_id", id).
				Int("quantity", next.Quantity).
				Str("status", string(next.Status)).
				Int64("version", next.Version).
				Msg("pieza actualizada")
			return &next, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			uc.recorder.RecordMutation(op, classify(err))
			return nil, err
		}
		uc.recorder.RecordConflict(op)
		if attempt >= uc.maxRetries {
			uc.recorder.RecordMutation(op, ResultConflict)
			uc.log.Warn().Str("op", op).Str("part_id", id).Int("attempts", attempt).Msg("conflicto de versión, reintentos agotados")
			return nil, domain.ErrConflict
		}
		uc.log.Warn().Str("op", op).Str("part_id", id).Int("attempt", attempt).Msg("conflicto de versión, reintentando")
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return ResultError
	case errors.Is(err, domain.ErrConflict):
		return ResultConflict
	default:
		return ResultRejected
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
