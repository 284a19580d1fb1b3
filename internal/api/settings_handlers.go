package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/rankforge/rankforge/internal/secrets"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/types"
	"github.com/rankforge/rankforge/internal/validation"
)

// maskedSettings converts a settings row into the client-facing view. Keys
// are decrypted only to compute the masked display; plaintext never leaves
// this function.
func (h *Handler) maskedSettings(row *store.SettingsRow) types.MasterSettings {
	mask := func(p types.Provider) types.MaskedKey {
		enc := row.KeyEncFor(p)
		if enc == "" {
			return ""
		}
		plain, err := h.cipher.Decrypt(enc)
		if err != nil {
			slog.Error("failed to decrypt stored key for masking", "provider", p)
			return types.MaskedKey(secrets.MaskPlaceholder)
		}
		return secrets.Mask(plain)
	}

	return types.MasterSettings{
		UserID:     row.UserID,
		Provider:   row.Provider,
		Model:      row.Model,
		WordCount:  row.WordCount,
		BrandVoice: row.BrandVoice,
		Keys: types.KeyStatus{
			OpenAI:   mask(types.ProviderOpenAI),
			Gemini:   mask(types.ProviderGemini),
			DeepSeek: mask(types.ProviderDeepSeek),
			Qwen:     mask(types.ProviderQwen),
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// defaultSettingsRow is what a user sees before their first save.
func defaultSettingsRow(userID string) *store.SettingsRow {
	return &store.SettingsRow{
		UserID:    userID,
		Provider:  types.ProviderOpenAI,
		WordCount: 1000,
	}
}

// GetSettings handles GET /api/v1/settings. A user with no saved row gets
// defaults rather than 404; the row is created on first save.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	identity := MustIdentityFromContext(r.Context())
	row, err := h.store.GetSettings(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, h.maskedSettings(defaultSettingsRow(identity.UserID)))
			return
		}
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.maskedSettings(row))
}

// UpdateSettings handles PATCH /api/v1/settings. Sparse upsert: only fields
// present in the body change. A plaintext APIKey is encrypted into the
// provider-specific column (and the legacy shared column); masked
// placeholder values are ignored so echoing the display value back is a
// no-op. Responds with the freshly re-read masked view.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req types.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateSettingsUpdate(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	row, err := h.store.GetSettings(r.Context(), identity.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			MapStoreError(w, r, err)
			return
		}
		row = defaultSettingsRow(identity.UserID)
	}

	if req.Provider != nil {
		row.Provider = *req.Provider
	}
	if req.Model != nil {
		row.Model = *req.Model
	}
	if req.WordCount != nil {
		row.WordCount = *req.WordCount
	}
	if req.BrandVoice != nil {
		row.BrandVoice = *req.BrandVoice
	}

	if req.APIKey != nil && *req.APIKey != "" && !secrets.IsPlaceholder(*req.APIKey) {
		keyProvider := req.KeyProvider
		if keyProvider == "" {
			keyProvider = row.Provider
		}
		enc, err := h.cipher.Encrypt(*req.APIKey)
		if err != nil {
			slog.Error("failed to encrypt api key", "error", err)
			WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		row.SetKeyEncFor(keyProvider, enc)
	}

	if err := h.store.UpsertSettings(r.Context(), row); err != nil {
		slog.Error("settings upsert failed", "error", err, "user_id", identity.UserID)
		MapStoreError(w, r, err)
		return
	}

	// Re-read rather than trust the local merge; the store owns timestamps.
	saved, err := h.store.GetSettings(r.Context(), identity.UserID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.maskedSettings(saved))
}

// GetAPIKeys handles GET /api/v1/settings/keys. Returns decrypted plaintext
// keys to the authenticated owner, decrypting the four provider columns in
// parallel. Never logged, never cached.
func (h *Handler) GetAPIKeys(w http.ResponseWriter, r *http.Request) {
	identity := MustIdentityFromContext(r.Context())
	row, err := h.store.GetSettings(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, types.APIKeysResult{})
			return
		}
		MapStoreError(w, r, err)
		return
	}

	keys := make([]string, len(types.Providers))
	var wg sync.WaitGroup
	for i, p := range types.Providers {
		enc := row.KeyEncFor(p)
		if enc == "" {
			continue
		}
		wg.Add(1)
		go func(i int, p types.Provider, enc string) {
			defer wg.Done()
			plain, err := h.cipher.Decrypt(enc)
			if err != nil {
				slog.Error("failed to decrypt stored key", "provider", p)
				return
			}
			keys[i] = plain
		}(i, p, enc)
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, types.APIKeysResult{
		OpenAI:   keys[0],
		Gemini:   keys[1],
		DeepSeek: keys[2],
		Qwen:     keys[3],
	})
}
