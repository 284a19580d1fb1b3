// Package credentials resolves a user's stored provider settings into
// plaintext credentials ready for an AI call. Plaintext keys exist only in
// memory for the duration of a request.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/rankforge/rankforge/internal/secrets"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/types"
)

// ErrNotConfigured means the user has no usable API key for their selected
// provider. Handlers map it to a guided setup response, not a plain 500.
var ErrNotConfigured = errors.New("no API key configured for the selected provider")

// Resolved is a ready-to-use credential set for one AI call.
type Resolved struct {
	APIKey    string
	Provider  types.Provider
	Model     string
	WordCount int // default target article length from settings
}

// Resolver loads master settings and decrypts the selected provider's key.
type Resolver struct {
	store  store.Store
	cipher *secrets.Cipher
}

func NewResolver(st store.Store, cipher *secrets.Cipher) *Resolver {
	return &Resolver{store: st, cipher: cipher}
}

// Resolve returns the plaintext API key, provider, and model for userID.
// Returns ErrNotConfigured when no settings row exists, when no key is
// stored for the selected provider, or when the selected provider is
// missing from the row.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Resolved, error) {
	row, err := r.store.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Resolved{}, ErrNotConfigured
		}
		return Resolved{}, fmt.Errorf("loading settings: %w", err)
	}

	if !row.Provider.Valid() {
		return Resolved{}, ErrNotConfigured
	}

	enc := row.KeyEncFor(row.Provider)
	if enc == "" {
		return Resolved{}, ErrNotConfigured
	}

	key, err := r.cipher.Decrypt(enc)
	if err != nil {
		return Resolved{}, fmt.Errorf("decrypting %s key: %w", row.Provider, err)
	}

	return Resolved{APIKey: key, Provider: row.Provider, Model: row.Model, WordCount: row.WordCount}, nil
}
