// Package worker runs server-side batch article generation: a sequential,
// cancellable loop over a project's todo articles.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rankforge/rankforge/internal/types"
)

// ErrBatchRunning means a batch is already in flight for the project.
var ErrBatchRunning = errors.New("a batch is already running for this project")

// Generator produces one article body. Implemented by generate.Service.
type Generator interface {
	GenerateArticle(ctx context.Context, userID string, req types.GenerateArticleRequest) (*types.GenerateArticleResult, error)
}

// BatchStore defines operations required for batch generation.
// Implemented by SQLiteStore.
type BatchStore interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListArticlesByStatus(ctx context.Context, projectID string, status types.ArticleStatus) ([]types.Article, error)
	UpdateArticle(ctx context.Context, id string, u types.ArticleUpdate) error
}

// BatchStatus is a point-in-time snapshot of a batch run.
type BatchStatus struct {
	Running      bool       `json:"running"`
	Total        int        `json:"total"`
	Completed    int        `json:"completed"`
	Failed       int        `json:"failed"`
	CurrentTitle string     `json:"current_title,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

type batchRun struct {
	cancel context.CancelFunc
	status BatchStatus
}

// BatchRunner owns at most one batch run per project. Articles are generated
// strictly sequentially: one provider call completes before the next begins,
// which keeps the request rate flat and avoids burst 429s.
type BatchRunner struct {
	store     BatchStore
	generator Generator

	mu   sync.Mutex
	runs map[string]*batchRun // keyed by project id
	wg   sync.WaitGroup
}

func NewBatchRunner(store BatchStore, generator Generator) *BatchRunner {
	return &BatchRunner{
		store:     store,
		generator: generator,
		runs:      make(map[string]*batchRun),
	}
}

// Start begins generating every todo article in the project. Returns the
// number of articles queued, or ErrBatchRunning if a run is already in
// flight. The run outlives the triggering request; cancel it via Cancel or
// by cancelling baseCtx (server shutdown).
func (b *BatchRunner) Start(baseCtx context.Context, userID, projectID string) (int, error) {
	project, err := b.store.GetProject(baseCtx, projectID)
	if err != nil {
		return 0, err
	}
	todos, err := b.store.ListArticlesByStatus(baseCtx, projectID, types.StatusTodo)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	if run, ok := b.runs[projectID]; ok && run.status.Running {
		b.mu.Unlock()
		return 0, ErrBatchRunning
	}
	ctx, cancel := context.WithCancel(baseCtx)
	run := &batchRun{
		cancel: cancel,
		status: BatchStatus{Running: true, Total: len(todos), StartedAt: time.Now().UTC()},
	}
	b.runs[projectID] = run
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		b.process(ctx, run, userID, projectID, project.Data(), todos)
	}()

	return len(todos), nil
}

// Cancel stops the project's batch between items. The in-flight provider
// call is abandoned and its article reset to todo. Reports whether a run was
// active.
func (b *BatchRunner) Cancel(projectID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	run, ok := b.runs[projectID]
	if !ok || !run.status.Running {
		return false
	}
	run.cancel()
	return true
}

// Status returns the latest snapshot for the project's batch, if any.
func (b *BatchRunner) Status(projectID string) (BatchStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	run, ok := b.runs[projectID]
	if !ok {
		return BatchStatus{}, false
	}
	return run.status, true
}

// Wait blocks until every in-flight run has wound down. Called on shutdown
// after the base context is cancelled.
func (b *BatchRunner) Wait() {
	b.wg.Wait()
}

func (b *BatchRunner) update(run *batchRun, fn func(*BatchStatus)) {
	b.mu.Lock()
	fn(&run.status)
	b.mu.Unlock()
}

func (b *BatchRunner) process(ctx context.Context, run *batchRun, userID, projectID string, data types.ProjectData, todos []types.Article) {
	slog.Info("batch generation started",
		"component", "worker",
		"project_id", projectID,
		"articles", len(todos),
	)

	for _, article := range todos {
		if ctx.Err() != nil {
			break
		}
		b.update(run, func(s *BatchStatus) { s.CurrentTitle = article.Title })

		if err := b.generateOne(ctx, userID, article, data); err != nil {
			b.update(run, func(s *BatchStatus) {
				s.Failed++
				s.LastError = err.Error()
			})
			slog.Warn("batch article failed",
				"component", "worker",
				"project_id", projectID,
				"article_id", article.ID,
				"error", err,
			)
			continue
		}
		b.update(run, func(s *BatchStatus) { s.Completed++ })
	}

	now := time.Now().UTC()
	b.update(run, func(s *BatchStatus) {
		s.Running = false
		s.CurrentTitle = ""
		s.FinishedAt = &now
	})

	slog.Info("batch generation finished",
		"component", "worker",
		"project_id", projectID,
		"completed", run.status.Completed,
		"failed", run.status.Failed,
		"cancelled", ctx.Err() != nil,
	)
}

// generateOne walks a single article through todo -> in-progress ->
// completed, resetting to todo when the provider call fails, returns no
// content, or the completed write itself fails. The reset uses a fresh
// context so cancellation cannot strand an article in in-progress.
func (b *BatchRunner) generateOne(ctx context.Context, userID string, article types.Article, data types.ProjectData) error {
	inProgress := types.StatusInProgress
	if err := b.store.UpdateArticle(ctx, article.ID, types.ArticleUpdate{Status: &inProgress}); err != nil {
		return err
	}

	result, err := b.generator.GenerateArticle(ctx, userID, types.GenerateArticleRequest{
		ArticleID:    article.ID,
		ArticleTitle: article.Title,
		ProjectData:  data,
	})
	if err == nil && strings.TrimSpace(result.Content) == "" {
		err = errors.New("provider returned empty content")
	}
	if err != nil {
		b.resetToTodo(article.ID)
		return err
	}

	completed := types.StatusCompleted
	if err := b.store.UpdateArticle(ctx, article.ID, types.ArticleUpdate{
		Status:    &completed,
		Content:   &result.Content,
		WordCount: &result.WordCount,
	}); err != nil {
		b.resetToTodo(article.ID)
		return err
	}
	return nil
}

func (b *BatchRunner) resetToTodo(articleID string) {
	todo := types.StatusTodo
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.store.UpdateArticle(ctx, articleID, types.ArticleUpdate{Status: &todo}); err != nil {
		slog.Error("failed to reset article status",
			"component", "worker",
			"article_id", articleID,
			"error", err,
		)
	}
}
