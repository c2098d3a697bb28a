// Package redis implementa el almacén de piezas sobre Redis: un documento JSON por pieza
// en "<prefix>part:<id>" y un set "<prefix>parts:index" con los IDs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/partdoc"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// createScript inserta el documento y lo indexa en una sola operación.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

// replaceScript compara la versión almacenada antes de sobrescribir.
// -1 inexistente, 0 versión distinta, 1 aplicado.
var replaceScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return -1
end
local doc = cjson.decode(current)
if tonumber(doc.version) ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

var deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return n
`)

// PartRepo almacén de piezas sobre Redis.
type PartRepo struct {
	client *redis.Client
	prefix string
}

// NewPartRepository prefix permite aislar varios almacenes en la misma base (p. ej. en tests).
func NewPartRepository(client *redis.Client, prefix string) *PartRepo {
	return &PartRepo{client: client, prefix: prefix}
}

func (r *PartRepo) partKey(id string) string { return r.prefix + "part:" + id }
func (r *PartRepo) indexKey() string         { return r.prefix + "parts:index" }

// List devuelve todas las piezas ordenadas por ID.
func (r *PartRepo) List(ctx context.Context) ([]*entity.Part, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, unavailable("list index", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.partKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("list parts", err)
	}
	list := make([]*entity.Part, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// borrada entre SMEMBERS y MGET
			continue
		}
		p, err := partdoc.Unmarshal([]byte(s))
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// GetByID obtiene una pieza por ID.
func (r *PartRepo) GetByID(ctx context.Context, id string) (*entity.Part, error) {
	raw, err := r.client.Get(ctx, r.partKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("get part", err)
	}
	return partdoc.Unmarshal(raw)
}

// Create inserta una pieza nueva con versión 1.
func (r *PartRepo) Create(ctx context.Context, part *entity.Part) error {
	stored := part.Clone()
	stored.Version = 1
	doc, err := partdoc.Marshal(&stored)
	if err != nil {
		return err
	}
	ok, err := createScript.Run(ctx, r.client, []string{r.partKey(part.ID), r.indexKey()}, part.ID, string(doc)).Int()
	if err != nil {
		return unavailable("create part", err)
	}
	if ok == 0 {
		return domain.ErrDuplicate
	}
	part.Version = 1
	return nil
}

// Replace sobrescribe el documento solo si su versión es expectedVersion.
func (r *PartRepo) Replace(ctx context.Context, part *entity.Part, expectedVersion int64) error {
	stored := part.Clone()
	stored.Version = expectedVersion + 1
	doc, err := partdoc.Marshal(&stored)
	if err != nil {
		return err
	}
	res, err := replaceScript.Run(ctx, r.client, []string{r.partKey(part.ID)}, expectedVersion, string(doc)).Int()
	if err != nil {
		return unavailable("replace part", err)
	}
	switch res {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrConflict
	}
	part.Version = stored.Version
	return nil
}

// Delete elimina la pieza y su entrada en el índice.
func (r *PartRepo) Delete(ctx context.Context, id string) error {
	n, err := deleteScript.Run(ctx, r.client, []string{r.partKey(id), r.indexKey()}, id).Int()
	if err != nil {
		return unavailable("delete part", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifica la conexión con Redis.
func (r *PartRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
