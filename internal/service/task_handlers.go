package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/internal/repository"
	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"github.com/damoang/angple-wiki/pkg/queue"
	"github.com/rs/zerolog"
)

// SearchIndex document store behind full-text search
type SearchIndex interface {
	IndexDocument(ctx context.Context, docID string, body interface{}) error
	DeleteDocument(ctx context.Context, docID string) error
}

// SearchIndexer keeps the search index in step with saved pages
type SearchIndexer struct {
	pages  PageService
	index  SearchIndex
	logger zerolog.Logger
}

// NewSearchIndexer creates a SearchIndexer
func NewSearchIndexer(pages PageService, index SearchIndex) *SearchIndexer {
	return &SearchIndexer{
		pages:  pages,
		index:  index,
		logger: pkglogger.WithComponent("search-indexer"),
	}
}

// HandleReindex task handler for ActionReindex
func (i *SearchIndexer) HandleReindex(ctx context.Context, task *queue.Task) error {
	id := domain.ToUint64(task.Payload["id"])
	if id == 0 {
		return fmt.Errorf("reindex: missing page id: %w", common.ErrInvalidInput)
	}
	docID := strconv.FormatUint(id, 10)

	doc, err := i.pages.RenderForSearch(ctx, id)
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrPageNotFound) {
		return i.index.DeleteDocument(ctx, docID)
	}
	if err != nil {
		return fmt.Errorf("reindex %d: %w", id, err)
	}
	if doc.Deleted {
		i.logger.Debug().Uint64("page_id", id).Msg("removing page from search index")
		return i.index.DeleteDocument(ctx, docID)
	}
	return i.index.IndexDocument(ctx, docID, doc)
}

// EditNotifier tells the previous editor of a page that someone else changed it
type EditNotifier struct {
	repo   repository.NodeRepository
	logger zerolog.Logger
}

// NewEditNotifier creates an EditNotifier
func NewEditNotifier(repo repository.NodeRepository) *EditNotifier {
	return &EditNotifier{repo: repo, logger: pkglogger.WithComponent("edit-notifier")}
}

// HandleNotifyEdit task handler for ActionNotifyEdit.
// Mail delivery is not wired; the notice goes to the log with the
// recipient resolved from the user nodes.
func (n *EditNotifier) HandleNotifyEdit(ctx context.Context, task *queue.Task) error {
	prev, _ := task.Payload["previous_editor"].(string)
	if prev == "" {
		return fmt.Errorf("notify: missing previous editor: %w", common.ErrInvalidInput)
	}
	editor, _ := task.Payload["editor"].(string)
	name, _ := task.Payload["name"].(string)

	event := n.logger.Info().
		Str("page", name).
		Str("editor", editor).
		Str("previous_editor", prev)

	node, err := n.repo.GetByKey(ctx, domain.ContentKey(domain.NodeTypeUser, prev))
	switch {
	case err == nil:
		if user, ok := domain.AsUser(node); ok && user.Email() != "" {
			event = event.Str("recipient", user.Email())
		}
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("notify: lookup %s: %w", prev, err)
	}

	event.Msg("page edited by another editor")
	return nil
}

// RegisterTaskHandlers binds the wiki task handlers to w. index may be nil
// when search is disabled.
func RegisterTaskHandlers(w *queue.Worker, pages PageService, repo repository.NodeRepository, index SearchIndex) {
	if index != nil {
		w.Register(ActionReindex, NewSearchIndexer(pages, index).HandleReindex)
	} else {
		w.Register(ActionReindex, func(context.Context, *queue.Task) error { return nil })
	}
	w.Register(ActionNotifyEdit, NewEditNotifier(repo).HandleNotifyEdit)
}
