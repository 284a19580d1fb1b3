package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rankforge/rankforge/internal/types"
)

const articleColumns = `id, project_id, title, content, status, word_count,
	keywords, persona_name, funnel_stage, article_type, created_at, updated_at`

// scanArticle scans a row into an Article, handling the keywords JSON column.
func scanArticle(scanner interface{ Scan(...any) error }) (*types.Article, error) {
	var a types.Article
	var keywordsJSON string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&a.ID, &a.ProjectID, &a.Title, &a.Content, &a.Status, &a.WordCount,
		&keywordsJSON, &a.PersonaName, &a.FunnelStage, &a.ArticleType,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Keywords, err = unmarshalStrings(keywordsJSON)
	if err != nil {
		return nil, err
	}

	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)

	return &a, nil
}

// AddArticle inserts a new article scoped to one project.
func (s *SQLiteStore) AddArticle(ctx context.Context, na types.NewArticle) (*types.Article, error) {
	status := na.Status
	if status == "" {
		status = types.StatusTodo
	}

	now := time.Now().UTC()
	a := types.Article{
		ID:          ulid.Make().String(),
		ProjectID:   na.ProjectID,
		Title:       na.Title,
		Status:      status,
		Keywords:    na.Keywords,
		PersonaName: na.PersonaName,
		FunnelStage: na.FunnelStage,
		ArticleType: na.ArticleType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	keywordsJSON, err := marshalJSON(a.Keywords)
	if err != nil {
		return nil, err
	}
	if a.Keywords == nil {
		keywordsJSON = "[]"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO articles (id, project_id, title, status, keywords, persona_name, funnel_stage, article_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProjectID, a.Title, a.Status, keywordsJSON,
		a.PersonaName, a.FunnelStage, a.ArticleType,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	return &a, nil
}

// GetArticle retrieves an article by ID.
func (s *SQLiteStore) GetArticle(ctx context.Context, id string) (*types.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)

	a, err := scanArticle(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}

	return a, nil
}

// UpdateArticle applies a sparse update; absent fields are left untouched.
func (s *SQLiteStore) UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Content != nil {
		add("content", *u.Content)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.WordCount != nil {
		add("word_count", *u.WordCount)
	}
	if u.Keywords != nil {
		kw, err := marshalJSON(*u.Keywords)
		if err != nil {
			return err
		}
		add("keywords", kw)
	}
	if u.PersonaName != nil {
		add("persona_name", *u.PersonaName)
	}
	if u.FunnelStage != nil {
		add("funnel_stage", *u.FunnelStage)
	}
	if u.ArticleType != nil {
		add("article_type", *u.ArticleType)
	}

	if len(sets) == 0 {
		return nil
	}

	add("updated_at", nowRFC3339())
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE articles SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteArticle removes an article.
func (s *SQLiteStore) DeleteArticle(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListArticlesForProject returns a project's articles in creation order.
func (s *SQLiteStore) ListArticlesForProject(ctx context.Context, projectID string) ([]types.Article, error) {
	return s.queryArticles(ctx, `
		SELECT `+articleColumns+` FROM articles
		WHERE project_id = ?
		ORDER BY created_at ASC
	`, projectID)
}

// ListArticlesByStatus returns a project's articles with the given status,
// in creation order. Used by the batch generation runner to pick up todos.
func (s *SQLiteStore) ListArticlesByStatus(ctx context.Context, projectID string, status types.ArticleStatus) ([]types.Article, error) {
	return s.queryArticles(ctx, `
		SELECT `+articleColumns+` FROM articles
		WHERE project_id = ? AND status = ?
		ORDER BY created_at ASC
	`, projectID, status)
}

func (s *SQLiteStore) queryArticles(ctx context.Context, query string, args ...any) ([]types.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}
