package service

import (
	"context"
	"fmt"
	"time"

	"github.com/damoang/angple-wiki/internal/domain"
)

// HistoryReader prior snapshots of a node; *repository.HistoryRepository
// satisfies it
type HistoryReader interface {
	List(ctx context.Context, id uint64) ([]domain.NodeHistory, error)
	Decode(entry domain.NodeHistory) (*domain.Node, error)
}

// Revision one earlier state of a page
type Revision struct {
	Updated time.Time `json:"updated"`
	Title   string    `json:"title"`
	Editor  string    `json:"editor,omitempty"`
	Deleted bool      `json:"deleted"`
	Source  string    `json:"source"`
}

// History earlier states of a page, newest first. Deleted pages keep
// their history readable.
func (s *pageService) History(ctx context.Context, identity *domain.Identity, name string) ([]*Revision, error) {
	if err := s.checkRead(identity); err != nil {
		return nil, err
	}
	name = PageName(name)
	page, err := lookupPage(ctx, s.repo, name)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []*Revision{}, nil
	}

	entries, err := s.history.List(ctx, page.ID)
	if err != nil {
		return nil, fmt.Errorf("list history of %q: %w", name, err)
	}
	revisions := make([]*Revision, 0, len(entries))
	for _, entry := range entries {
		node, err := s.history.Decode(entry)
		if err != nil {
			return nil, err
		}
		old, ok := domain.AsWikiPage(node)
		if !ok {
			continue
		}
		revisions = append(revisions, &Revision{
			Updated: entry.Updated,
			Title:   old.DisplayTitle(),
			Editor:  old.Editor(),
			Deleted: old.Deleted,
			Source:  old.Source(),
		})
	}
	return revisions, nil
}
