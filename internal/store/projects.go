package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rankforge/rankforge/internal/types"
)

const projectColumns = `id, owner_id, name, mode, language, custom_language,
	website_url, product, target_market, persona_text, pain_points,
	value_proposition, business_name, business_email, business_phone,
	brand_voice, reference_text, keywords, personas, strategy,
	wordpress_url, wordpress_username, wordpress_password,
	created_at, updated_at`

// scanProject scans a row into a Project, handling JSON columns.
// Articles and SharedRole are filled in by callers.
func scanProject(scanner interface{ Scan(...any) error }) (*types.Project, error) {
	var p types.Project
	var keywordsJSON, personasJSON string
	var strategyJSON sql.NullString
	var wpURL, wpUser, wpPass string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Mode, &p.Language, &p.CustomLanguage,
		&p.WebsiteURL, &p.Product, &p.TargetMarket, &p.PersonaText, &p.PainPoints,
		&p.ValueProposition, &p.BusinessName, &p.BusinessEmail, &p.BusinessPhone,
		&p.BrandVoice, &p.ReferenceText, &keywordsJSON, &personasJSON, &strategyJSON,
		&wpURL, &wpUser, &wpPass,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Keywords, err = unmarshalStrings(keywordsJSON)
	if err != nil {
		return nil, err
	}

	if personasJSON != "" && personasJSON != "[]" {
		if err := json.Unmarshal([]byte(personasJSON), &p.Personas); err != nil {
			return nil, fmt.Errorf("parse personas JSON: %w", err)
		}
	}

	if strategyJSON.Valid && strategyJSON.String != "" {
		var pack types.StrategyPack
		if err := json.Unmarshal([]byte(strategyJSON.String), &pack); err != nil {
			return nil, fmt.Errorf("parse strategy JSON: %w", err)
		}
		p.Strategy = &pack
	}

	if wpURL != "" {
		p.WordPress = &types.WordPressCredentials{URL: wpURL, Username: wpUser, Password: wpPass}
	}

	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	return &p, nil
}

// CreateProject inserts a new project with server-assigned defaults.
func (s *SQLiteStore) CreateProject(ctx context.Context, ownerID string, np types.NewProject) (*types.Project, error) {
	now := time.Now().UTC()
	p := types.Project{
		ID:             ulid.Make().String(),
		OwnerID:        ownerID,
		Name:           np.Name,
		Mode:           np.Mode,
		Language:       np.Language,
		CustomLanguage: np.CustomLanguage,
		Keywords:       []string{},
		Articles:       []types.Article{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, mode, language, custom_language, keywords, personas, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '[]', '[]', ?, ?)
	`, p.ID, p.OwnerID, p.Name, p.Mode, p.Language, p.CustomLanguage,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	return &p, nil
}

// GetProject retrieves a project by ID, including its articles.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}

	articles, err := s.ListArticlesForProject(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Articles = articles

	return p, nil
}

// UpdateProject applies a sparse update: only fields present in u are
// written, absent fields are left untouched.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id string, u types.ProjectUpdate) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Mode != nil {
		add("mode", string(*u.Mode))
	}
	if u.Language != nil {
		add("language", string(*u.Language))
	}
	if u.CustomLanguage != nil {
		add("custom_language", *u.CustomLanguage)
	}
	if u.WebsiteURL != nil {
		add("website_url", *u.WebsiteURL)
	}
	if u.Product != nil {
		add("product", *u.Product)
	}
	if u.TargetMarket != nil {
		add("target_market", *u.TargetMarket)
	}
	if u.PersonaText != nil {
		add("persona_text", *u.PersonaText)
	}
	if u.PainPoints != nil {
		add("pain_points", *u.PainPoints)
	}
	if u.ValueProposition != nil {
		add("value_proposition", *u.ValueProposition)
	}
	if u.BusinessName != nil {
		add("business_name", *u.BusinessName)
	}
	if u.BusinessEmail != nil {
		add("business_email", *u.BusinessEmail)
	}
	if u.BusinessPhone != nil {
		add("business_phone", *u.BusinessPhone)
	}
	if u.BrandVoice != nil {
		add("brand_voice", *u.BrandVoice)
	}
	if u.ReferenceText != nil {
		add("reference_text", *u.ReferenceText)
	}
	if u.Keywords != nil {
		kw, err := marshalJSON(*u.Keywords)
		if err != nil {
			return err
		}
		add("keywords", kw)
	}
	if u.Personas != nil {
		ps, err := marshalJSON(*u.Personas)
		if err != nil {
			return err
		}
		add("personas", ps)
	}
	if u.WordPress != nil {
		add("wordpress_url", u.WordPress.URL)
		add("wordpress_username", u.WordPress.Username)
		add("wordpress_password", u.WordPress.Password)
	}

	if len(sets) == 0 {
		// Nothing to write; not an error.
		return nil
	}

	add("updated_at", nowRFC3339())
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
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

// DeleteProject removes a project along with its articles and shares. Child
// rows are deleted explicitly in one transaction rather than left to ON
// DELETE CASCADE, which only fires on connections with foreign_keys enabled.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project articles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_shares WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project shares: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project: %w", err)
	}
	return nil
}

// ListProjectsForUser returns owned and shared projects, de-duplicated by
// id with owned taking precedence, each with its articles embedded.
func (s *SQLiteStore) ListProjectsForUser(ctx context.Context, userID, email string) ([]types.Project, error) {
	owned, err := s.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(owned))
	for _, p := range owned {
		seen[p.ID] = true
	}

	sharedRoles, err := s.sharedProjectRoles(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	projects := owned
	for projectID, role := range sharedRoles {
		if seen[projectID] {
			continue
		}
		row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID)
		p, err := scanProject(row)
		if err != nil {
			if err == sql.ErrNoRows {
				// Share references a deleted project; skip.
				continue
			}
			return nil, fmt.Errorf("scan shared project: %w", err)
		}
		p.SharedRole = role
		seen[p.ID] = true
		projects = append(projects, *p)
	}

	if err := s.attachArticles(ctx, projects); err != nil {
		return nil, err
	}

	return projects, nil
}

// sharedProjectRoles returns project id -> role for shares matching the
// caller by user id or email.
func (s *SQLiteStore) sharedProjectRoles(ctx context.Context, userID, email string) (map[string]types.ShareRole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, role FROM project_shares
		WHERE shared_with = ? OR (shared_email != '' AND shared_email = ?)
	`, userID, email)
	if err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]types.ShareRole)
	for rows.Next() {
		var projectID string
		var role types.ShareRole
		if err := rows.Scan(&projectID, &role); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		// Editor wins when the same project is shared twice.
		if existing, ok := roles[projectID]; !ok || existing != types.RoleEditor {
			roles[projectID] = role
		}
	}
	return roles, rows.Err()
}

func (s *SQLiteStore) queryProjects(ctx context.Context, query string, args ...any) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// attachArticles loads all articles for the given projects in one query.
func (s *SQLiteStore) attachArticles(ctx context.Context, projects []types.Project) error {
	if len(projects) == 0 {
		return nil
	}

	placeholders := make([]string, len(projects))
	args := make([]any, len(projects))
	index := make(map[string]int, len(projects))
	for i := range projects {
		placeholders[i] = "?"
		args[i] = projects[i].ID
		index[projects[i].ID] = i
		projects[i].Articles = []types.Article{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+` FROM articles
		WHERE project_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY created_at ASC
	`, args...)
	if err != nil {
		return fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return fmt.Errorf("scan article: %w", err)
		}
		if i, ok := index[a.ProjectID]; ok {
			projects[i].Articles = append(projects[i].Articles, *a)
		}
	}
	return rows.Err()
}

// GetProjectAccess resolves the caller's access level to a project.
func (s *SQLiteStore) GetProjectAccess(ctx context.Context, projectID, userID, email string) (ProjectAccess, error) {
	var ownerID string
	err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM projects WHERE id = ?`, projectID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ProjectAccess{}, ErrNotFound
		}
		return ProjectAccess{}, fmt.Errorf("query project owner: %w", err)
	}

	if ownerID == userID {
		return ProjectAccess{Owner: true}, nil
	}

	var role types.ShareRole
	err = s.db.QueryRowContext(ctx, `
		SELECT role FROM project_shares
		WHERE project_id = ? AND (shared_with = ? OR (shared_email != '' AND shared_email = ?))
		ORDER BY CASE role WHEN 'editor' THEN 0 ELSE 1 END
		LIMIT 1
	`, projectID, userID, email).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return ProjectAccess{}, nil
		}
		return ProjectAccess{}, fmt.Errorf("query share role: %w", err)
	}

	return ProjectAccess{Role: role}, nil
}

// SetStrategyPack writes the pack to the project row, then deletes all
// existing articles and bulk-inserts one todo article per title. This is a
// destructive replace, not a merge.
func (s *SQLiteStore) SetStrategyPack(ctx context.Context, projectID string, pack types.StrategyPack) ([]types.Article, error) {
	packJSON, err := marshalJSON(pack)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339)

	result, err := tx.ExecContext(ctx,
		`UPDATE projects SET strategy = ?, updated_at = ? WHERE id = ?`,
		packJSON, nowStr, projectID)
	if err != nil {
		return nil, fmt.Errorf("update strategy: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	} else if affected == 0 {
		return nil, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE project_id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("delete articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, project_id, title, status, keywords, created_at, updated_at)
		VALUES (?, ?, ?, 'todo', '[]', ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	articles := make([]types.Article, 0, len(pack.ArticleTitles))
	for _, title := range pack.ArticleTitles {
		a := types.Article{
			ID:        ulid.Make().String(),
			ProjectID: projectID,
			Title:     title,
			Status:    types.StatusTodo,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.ProjectID, a.Title, nowStr, nowStr); err != nil {
			return nil, fmt.Errorf("insert article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return articles, nil
}
