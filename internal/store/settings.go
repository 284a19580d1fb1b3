package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const settingsColumns = `user_id, provider, model, word_count, brand_voice,
	openai_key_enc, gemini_key_enc, deepseek_key_enc, qwen_key_enc, api_key_enc,
	created_at, updated_at`

// GetSettings retrieves the master_settings row for a user.
// Returns ErrNotFound when the user has never saved settings.
func (s *SQLiteStore) GetSettings(ctx context.Context, userID string) (*SettingsRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM master_settings WHERE user_id = ?`, userID)

	var r SettingsRow
	var createdAt, updatedAt string
	err := row.Scan(
		&r.UserID, &r.Provider, &r.Model, &r.WordCount, &r.BrandVoice,
		&r.OpenAIKeyEnc, &r.GeminiKeyEnc, &r.DeepSeekKeyEnc, &r.QwenKeyEnc, &r.LegacyKeyEnc,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}

	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)

	return &r, nil
}

// UpsertSettings writes the full settings row, creating it on first save.
// Last write wins; there is no version check.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, r *SettingsRow) error {
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO master_settings (
			user_id, provider, model, word_count, brand_voice,
			openai_key_enc, gemini_key_enc, deepseek_key_enc, qwen_key_enc, api_key_enc,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			word_count = excluded.word_count,
			brand_voice = excluded.brand_voice,
			openai_key_enc = excluded.openai_key_enc,
			gemini_key_enc = excluded.gemini_key_enc,
			deepseek_key_enc = excluded.deepseek_key_enc,
			qwen_key_enc = excluded.qwen_key_enc,
			api_key_enc = excluded.api_key_enc,
			updated_at = excluded.updated_at
	`, r.UserID, r.Provider, r.Model, r.WordCount, r.BrandVoice,
		r.OpenAIKeyEnc, r.GeminiKeyEnc, r.DeepSeekKeyEnc, r.QwenKeyEnc, r.LegacyKeyEnc,
		nowStr, nowStr)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	r.UpdatedAt = now

	return nil
}

// HasRole reports whether the user holds the named platform role.
func (s *SQLiteStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?`,
		userID, role).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query role: %w", err)
	}
	return count > 0, nil
}
