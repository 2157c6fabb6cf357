package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

const (
	StorageName    = "dafamedic-cart"
	CurrentVersion = 1
)

var (
	ErrNotFound           = errors.New("cart not found")
	ErrUnsupportedVersion = errors.New("unsupported cart version")
)

// Storage is a durable key/value blob store for carts.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// migrations[v] upgrades a state blob from version v to v+1.
var migrations = map[int]func(json.RawMessage) (json.RawMessage, error){
	0: migrateV0,
}

// Unversioned carts (version 0) already use the current line shape; only
// the currency may be missing.
func migrateV0(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	for i := range state.Items {
		if state.Items[i].Currency == "" {
			state.Items[i].Currency = models.DefaultCurrency
		}
	}
	return json.Marshal(state)
}

func Marshal(s *Store) ([]byte, error) {
	state, err := json.Marshal(s.State())
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{State: state, Version: CurrentVersion})
}

func Unmarshal(blob []byte) (*Store, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if env.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	raw := env.State
	for v := env.Version; v < CurrentVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, v)
		}
		var err error
		if raw, err = migrate(raw); err != nil {
			return nil, fmt.Errorf("failed to migrate cart from version %d: %w", v, err)
		}
	}
	var state State
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("failed to decode cart state: %w", err)
		}
	}
	return FromState(state), nil
}

// Key namespaces a cart id under StorageName.
func Key(cartID string) string {
	return StorageName + ":" + cartID
}

// Load returns an empty cart when nothing is stored under cartID.
func Load(ctx context.Context, st Storage, cartID string) (*Store, error) {
	blob, err := st.Get(ctx, Key(cartID))
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return Unmarshal(blob)
}

func Save(ctx context.Context, st Storage, cartID string, s *Store) error {
	blob, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := st.Set(ctx, Key(cartID), blob); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
