package part_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tweltz1/Project-Tracking/internal/application/dto"
	"github.com/Tweltz1/Project-Tracking/internal/application/part"
	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/lifecycle"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

// racingRepo simula un escritor concurrente: antes de cada uno de los primeros
// `races` Replace, aplica un check-in de 1 unidad por su cuenta.
type racingRepo struct {
	*memory.PartRepo
	mu    sync.Mutex
	races int
}

func (r *racingRepo) Replace(ctx context.Context, p *entity.Part, expectedVersion int64) error {
	r.mu.Lock()
	race := r.races > 0
	if race {
		r.races--
	}
	r.mu.Unlock()
	if race {
		other, err := r.PartRepo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		other.Quantity++
		other.History = append(other.History, entity.HistoryEntry{Type: entity.HistoryCheckIn, Change: 1, User: "other", Timestamp: time.Now().UTC()})
		if err := r.PartRepo.Replace(ctx, other, other.Version); err != nil {
			return err
		}
	}
	return r.PartRepo.Replace(ctx, p, expectedVersion)
}

type brokenRepo struct{ *memory.PartRepo }

func (brokenRepo) List(context.Context) ([]*entity.Part, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errors.New("connection refused"))
}

type fakeRecorder struct {
	mu        sync.Mutex
	mutations map[string]int
	conflicts int
}

func newRecorder() *fakeRecorder { return &fakeRecorder{mutations: map[string]int{}} }

func (f *fakeRecorder) RecordMutation(op, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations[op+"/"+result]++
}

func (f *fakeRecorder) RecordConflict(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflicts++
}

type fakeLabels struct{ got *entity.Part }

func (f *fakeLabels) RenderLabel(_ context.Context, p *entity.Part) ([]byte, error) {
	f.got = p
	return []byte("%PDF-fake"), nil
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newUseCase(t *testing.T) (*part.UseCase, *fakeRecorder) {
	t.Helper()
	rec := newRecorder()
	uc := part.NewUseCase(memory.NewPartRepository(), lifecycle.NewEngine(func() time.Time { return fixedNow }), &fakeLabels{}, rec, nil, 3)
	return uc, rec
}

func intPtr(n int) *int { return &n }

func createSample(t *testing.T, uc *part.UseCase, id string, qty int) {
	t.Helper()
	_, err := uc.Create(context.Background(), "alice", dto.CreatePartRequest{
		ID: id, Name: "Bracket " + id, SerialNumber: "SN-" + id, ProjectName: "Apollo", ProjectNumber: "PRJ-1", Quantity: intPtr(qty),
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Create / Get / List
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_RegistroInicialYVersion(t *testing.T) {
	uc, rec := newUseCase(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, "", dto.CreatePartRequest{ID: "P1", Name: "Bracket", Quantity: intPtr(5), UserID: "form-user"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Quantity)
	assert.Equal(t, "Received", out.Status)
	assert.Equal(t, int64(1), out.Version)
	require.Len(t, out.History, 1)
	assert.Equal(t, "initial-add", out.History[0].Type)
	assert.Equal(t, "form-user", out.History[0].User)
	assert.Equal(t, 1, rec.mutations["create/ok"])

	got, err := uc.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, out.Name, got.Name)
}

func TestCreate_Duplicado(t *testing.T) {
	uc, rec := newUseCase(t)
	createSample(t, uc, "P1", 1)

	_, err := uc.Create(context.Background(), "alice", dto.CreatePartRequest{ID: "P1", Name: "Otra", Quantity: intPtr(2)})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 1, rec.mutations["create/rejected"])
}

func TestCreate_CamposRequeridos(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Create(context.Background(), "alice", dto.CreatePartRequest{ID: "P1", Name: "Bracket"})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)

	_, err = uc.Create(context.Background(), "alice", dto.CreatePartRequest{ID: "P1", Name: "Bracket", Quantity: intPtr(1), Status: "Lost"})
	var verr *dto.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGet_Errores(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrMissingID)
	_, err = uc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_BusquedaSinDistinguirMayusculas(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "B-2", 1)
	createSample(t, uc, "A-1", 1)
	_, err := uc.UpdateStatus(ctx, "A-1", "bob", dto.UpdateStatusRequest{Status: "Sent Out"})
	require.NoError(t, err)

	all, err := uc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A-1", all[0].ID)

	sent, err := uc.List(ctx, "sent OUT")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "A-1", sent[0].ID)

	bySerial, err := uc.List(ctx, "sn-b")
	require.NoError(t, err)
	require.Len(t, bySerial, 1)
	assert.Equal(t, "B-2", bySerial[0].ID)

	none, err := uc.List(ctx, "zeppelin")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestList_ErrorDelAlmacen(t *testing.T) {
	uc := part.NewUseCase(brokenRepo{memory.NewPartRepository()}, lifecycle.NewEngine(nil), nil, nil, nil, 3)
	_, err := uc.List(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ──────────────────────────────────────────────────────────────────────────────
// CheckInOut / UpdateStatus
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckInOut_EscenarioCompleto(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "P1", 10)

	out, err := uc.CheckInOut(ctx, "bob", dto.CheckInOutRequest{PartID: "P1", Type: "check-out", Change: "3", NewQuantity: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, out.Quantity)

	out, err = uc.CheckInOut(ctx, "", dto.CheckInOutRequest{PartID: "P1", Type: "check-in", Change: "2"})
	require.NoError(t, err)
	assert.Equal(t, 9, out.Quantity)
	assert.Equal(t, entity.AnonymousUser, out.History[2].User)

	out, err = uc.UpdateStatus(ctx, "P1", "carol", dto.UpdateStatusRequest{Status: "Sent Out"})
	require.NoError(t, err)
	assert.Equal(t, "Sent Out", out.Status)
	require.Len(t, out.History, 4)
	last := out.History[3]
	assert.Equal(t, "status-update", last.Type)
	assert.Equal(t, "Received", last.OldStatus)
	assert.Nil(t, last.Change)
	assert.Equal(t, int64(4), out.Version)
	assert.Equal(t, fixedNow, out.UpdatedAt)
}

func TestCheckInOut_Rechazos(t *testing.T) {
	uc, rec := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "P1", 2)

	tests := []struct {
		name string
		in   dto.CheckInOutRequest
		want error
	}{
		{"sin partId", dto.CheckInOutRequest{Type: "check-in", Change: "1"}, domain.ErrMissingID},
		{"cantidad no numérica", dto.CheckInOutRequest{PartID: "P1", Type: "check-in", Change: "abc"}, domain.ErrInvalidAmount},
		{"cantidad cero", dto.CheckInOutRequest{PartID: "P1", Type: "check-in", Change: "0"}, domain.ErrInvalidAmount},
		{"tipo vacío", dto.CheckInOutRequest{PartID: "P1", Change: "1"}, domain.ErrUnknownChangeType},
		{"stock insuficiente", dto.CheckInOutRequest{PartID: "P1", Type: "check-out", Change: "3"}, domain.ErrInsufficientQuantity},
		{"vista desactualizada", dto.CheckInOutRequest{PartID: "P1", Type: "check-out", Change: "1", NewQuantity: intPtr(0)}, domain.ErrQuantityMismatch},
		{"pieza inexistente", dto.CheckInOutRequest{PartID: "ghost", Type: "check-in", Change: "1"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CheckInOut(ctx, "bob", tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got, err := uc.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity, "ningún rechazo modifica la pieza")
	assert.Len(t, got.History, 1)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, len(tests), rec.mutations["checkinout/rejected"])
}

func TestUpdateStatus_MismoEstadoEsNoOp(t *testing.T) {
	uc, _ := newUseCase(t)
	createSample(t, uc, "P1", 1)

	_, err := uc.UpdateStatus(context.Background(), "P1", "bob", dto.UpdateStatusRequest{Status: "Received"})
	assert.ErrorIs(t, err, domain.ErrNoOpRejected)
	_, err = uc.UpdateStatus(context.Background(), "P1", "bob", dto.UpdateStatusRequest{})
	assert.ErrorIs(t, err, domain.ErrNoOpRejected)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia optimista
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckInOut_ConflictoSeReintenta(t *testing.T) {
	repo := &racingRepo{PartRepo: memory.NewPartRepository(), races: 2}
	rec := newRecorder()
	uc := part.NewUseCase(repo, lifecycle.NewEngine(nil), nil, rec, nil, 3)
	ctx := context.Background()
	createSample(t, uc, "P1", 5)

	out, err := uc.CheckInOut(ctx, "bob", dto.CheckInOutRequest{PartID: "P1", Type: "check-out", Change: "4"})
	require.NoError(t, err)
	// 5 + 1 + 1 de los escritores concurrentes - 4
	assert.Equal(t, 3, out.Quantity)
	assert.Len(t, out.History, 4)
	assert.Equal(t, 2, rec.conflicts)
	assert.Equal(t, 1, rec.mutations["checkinout/ok"])
}

func TestCheckInOut_ReintentosAgotados(t *testing.T) {
	repo := &racingRepo{PartRepo: memory.NewPartRepository(), races: 10}
	rec := newRecorder()
	uc := part.NewUseCase(repo, lifecycle.NewEngine(nil), nil, rec, nil, 3)
	ctx := context.Background()
	createSample(t, uc, "P1", 5)

	_, err := uc.CheckInOut(ctx, "bob", dto.CheckInOutRequest{PartID: "P1", Type: "check-in", Change: "1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, rec.conflicts)
	assert.Equal(t, 1, rec.mutations["checkinout/conflict"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Update / Delete / Label
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_ReemplazaDescriptivosYAuditaEstado(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "P1", 4)

	out, err := uc.Update(ctx, "P1", "dave", dto.UpdatePartRequest{
		ID: "P1", Name: "Bracket v2", Location: "Shelf C", Quantity: intPtr(4), Status: "In Work", Version: ptr64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bracket v2", out.Name)
	assert.Equal(t, "Shelf C", out.Location)
	assert.Equal(t, "", out.SerialNumber, "reemplazo completo")
	assert.Equal(t, "In Work", out.Status)
	require.Len(t, out.History, 2)
	assert.Equal(t, "dave", out.History[1].User)
	assert.Equal(t, int64(2), out.Version)
}

func TestUpdate_Rechazos(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "P1", 4)

	_, err := uc.Update(ctx, "P1", "", dto.UpdatePartRequest{ID: "P2", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrIDMismatch)

	_, err = uc.Update(ctx, "P1", "", dto.UpdatePartRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrIDMismatch, "el cuerpo debe traer el id")

	_, err = uc.Update(ctx, "P1", "", dto.UpdatePartRequest{ID: "P1", Name: "x", Quantity: intPtr(40)})
	assert.ErrorIs(t, err, domain.ErrQuantityViaMovements)

	_, err = uc.Update(ctx, "P1", "", dto.UpdatePartRequest{ID: "P1", Name: "x", Version: ptr64(7)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.Update(ctx, "ghost", "", dto.UpdatePartRequest{ID: "ghost", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Update(ctx, "", "", dto.UpdatePartRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingID)
}

func TestDelete(t *testing.T) {
	uc, rec := newUseCase(t)
	ctx := context.Background()
	createSample(t, uc, "P1", 1)

	require.NoError(t, uc.Delete(ctx, "P1"))
	assert.ErrorIs(t, uc.Delete(ctx, "P1"), domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, ""), domain.ErrMissingID)
	assert.Equal(t, 1, rec.mutations["delete/ok"])
}

func TestLabel(t *testing.T) {
	labels := &fakeLabels{}
	uc := part.NewUseCase(memory.NewPartRepository(), lifecycle.NewEngine(nil), labels, nil, nil, 3)
	createSample(t, uc, "P1", 1)

	out, err := uc.Label(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), out)
	require.NotNil(t, labels.got)
	assert.Equal(t, "P1", labels.got.ID)

	_, err = uc.Label(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func ptr64(n int64) *int64 { return &n }
