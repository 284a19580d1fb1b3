package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/rankforge/rankforge/internal/secrets"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/types"
)

// settingsStore stubs only the settings lookup the resolver touches.
type settingsStore struct {
	store.Store
	row *store.SettingsRow
	err error
}

func (s *settingsStore) GetSettings(ctx context.Context, userID string) (*store.SettingsRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.row, nil
}

func newTestResolver(t *testing.T, row *store.SettingsRow, err error) (*Resolver, *secrets.Cipher) {
	t.Helper()
	cipher, cerr := secrets.NewCipher("test-encryption-secret")
	if cerr != nil {
		t.Fatalf("creating cipher: %v", cerr)
	}
	return NewResolver(&settingsStore{row: row, err: err}, cipher), cipher
}

func TestResolve(t *testing.T) {
	cipher, err := secrets.NewCipher("test-encryption-secret")
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}
	enc, err := cipher.Encrypt("sk-live-123456789")
	if err != nil {
		t.Fatalf("encrypting key: %v", err)
	}

	row := &store.SettingsRow{
		UserID:    "user-1",
		Provider:  types.ProviderDeepSeek,
		Model:     "standard",
		WordCount: 2000,
	}
	row.SetKeyEncFor(types.ProviderDeepSeek, enc)

	resolver := NewResolver(&settingsStore{row: row}, cipher)
	got, err := resolver.Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.APIKey != "sk-live-123456789" {
		t.Errorf("expected decrypted key, got %q", got.APIKey)
	}
	if got.Provider != types.ProviderDeepSeek {
		t.Errorf("expected provider deepseek, got %q", got.Provider)
	}
	if got.Model != "standard" {
		t.Errorf("expected model standard, got %q", got.Model)
	}
	if got.WordCount != 2000 {
		t.Errorf("expected word count 2000, got %d", got.WordCount)
	}
}

func TestResolveNoSettingsRow(t *testing.T) {
	resolver, _ := newTestResolver(t, nil, store.ErrNotFound)
	_, err := resolver.Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolveNoKeyForProvider(t *testing.T) {
	row := &store.SettingsRow{UserID: "user-1", Provider: types.ProviderGemini}
	resolver, _ := newTestResolver(t, row, nil)
	_, err := resolver.Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolveInvalidProvider(t *testing.T) {
	row := &store.SettingsRow{UserID: "user-1", Provider: ""}
	resolver, _ := newTestResolver(t, row, nil)
	_, err := resolver.Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolveCorruptCiphertext(t *testing.T) {
	row := &store.SettingsRow{UserID: "user-1", Provider: types.ProviderOpenAI}
	row.SetKeyEncFor(types.ProviderOpenAI, "not-valid-ciphertext")
	resolver, _ := newTestResolver(t, row, nil)
	_, err := resolver.Resolve(context.Background(), "user-1")
	if err == nil || errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected decrypt error, got %v", err)
	}
}

