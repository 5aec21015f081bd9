package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/config"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/internal/pipeline"
	"github.com/damoang/angple-wiki/internal/plugin"
	"github.com/damoang/angple-wiki/internal/repository"
	"github.com/damoang/angple-wiki/internal/section"
	pkglogger "github.com/damoang/angple-wiki/pkg/logger"
	"github.com/rs/zerolog"
)

// Queued actions
const (
	ActionReindex    = "wiki.reindex"
	ActionNotifyEdit = "wiki.notify_edit"
)

// 편집으로 덮어쓸 수 없는 필드
var protectedFields = map[string]bool{
	domain.FieldID:      true,
	domain.FieldParent:  true,
	domain.FieldLB:      true,
	domain.FieldRB:      true,
	domain.FieldType:    true,
	domain.FieldCreated: true,
	domain.FieldUpdated: true,
	domain.FieldKey:     true,
	domain.AttrSource:   true,
	domain.AttrEditor:   true,
	domain.AttrName:     true,
}

// Renderer renders page source
type Renderer interface {
	Render(ctx context.Context, source string) (*pipeline.Document, error)
}

// Enqueuer schedules background tasks; queue.Queue satisfies it
type Enqueuer interface {
	Enqueue(ctx context.Context, action string, payload map[string]interface{}) error
}

// SourceResponse editable source of a page or of one section
type SourceResponse struct {
	Name    string   `json:"name"`
	Section string   `json:"section,omitempty"`
	Source  string   `json:"source"`
	Exists  bool     `json:"exists"`
	Buttons []string `json:"buttons"`
}

// UpdateRequest page edit
type UpdateRequest struct {
	Name    string `json:"name"`
	Section string `json:"section,omitempty"`
	Text    string `json:"text"`
}

// SearchDocument page as sent to the search index
type SearchDocument struct {
	ID      uint64 `json:"-"`
	Deleted bool   `json:"-"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Text    string `json:"text"`
	Editor  string `json:"editor"`
	Updated string `json:"updated"`
}

// PageService business logic for wiki pages
type PageService interface {
	GetByName(ctx context.Context, name string) (domain.WikiPage, error)
	View(ctx context.Context, identity *domain.Identity, name string) (*domain.PageResponse, error)
	GetSource(ctx context.Context, identity *domain.Identity, name, sectionName string) (*SourceResponse, error)
	Update(ctx context.Context, identity *domain.Identity, req *UpdateRequest) (*domain.PageResponse, error)
	List(ctx context.Context, identity *domain.Identity, prefix string) ([]*domain.PageResponse, *common.Meta, error)
	RenderForSearch(ctx context.Context, id uint64) (*SearchDocument, error)
	History(ctx context.Context, identity *domain.Identity, name string) ([]*Revision, error)
}

type pageService struct {
	repo     repository.NodeRepository
	history  HistoryReader
	renderer Renderer
	tasks    Enqueuer
	hooks    *plugin.HookManager
	cfg      config.WikiConfig
	logger   zerolog.Logger
}

// NewPageService creates a new PageService. history, tasks and hooks may be nil.
func NewPageService(repo repository.NodeRepository, history HistoryReader, renderer Renderer, tasks Enqueuer, hooks *plugin.HookManager, cfg config.WikiConfig) PageService {
	return &pageService{
		repo:     repo,
		history:  history,
		renderer: renderer,
		tasks:    tasks,
		hooks:    hooks,
		cfg:      cfg,
		logger:   pkglogger.WithComponent("page-service"),
	}
}

// PageName strips an optional #fragment and surrounding space
func PageName(name string) string {
	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// lookupPage finds the wiki node for name, deleted or not
func lookupPage(ctx context.Context, repo repository.NodeRepository, name string) (domain.WikiPage, error) {
	node, err := repo.GetByKey(ctx, domain.ContentKey(domain.NodeTypeWiki, name))
	if errors.Is(err, common.ErrNotFound) {
		return domain.WikiPage{}, common.ErrPageNotFound
	}
	if err != nil {
		return domain.WikiPage{}, err
	}
	page, ok := domain.AsWikiPage(node)
	if !ok {
		return domain.WikiPage{}, common.ErrPageNotFound
	}
	return page, nil
}

// GetByName returns a live page. Deleted pages and pages without source
// count as missing.
func (s *pageService) GetByName(ctx context.Context, name string) (domain.WikiPage, error) {
	name = PageName(name)
	if name == "" {
		return domain.WikiPage{}, common.ErrEmptyPageName
	}
	page, err := lookupPage(ctx, s.repo, name)
	if err != nil {
		return domain.WikiPage{}, err
	}
	if page.Deleted || strings.TrimSpace(page.Source()) == "" {
		return domain.WikiPage{}, common.ErrPageNotFound
	}
	return page, nil
}

// View renders a page for reading. Unpublished pages are visible to editors only.
func (s *pageService) View(ctx context.Context, identity *domain.Identity, name string) (*domain.PageResponse, error) {
	if err := s.checkRead(identity); err != nil {
		return nil, err
	}
	page, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !page.Published && !s.isEditor(identity) {
		return nil, common.ErrPageNotFound
	}
	return s.render(ctx, page)
}

func (s *pageService) render(ctx context.Context, page domain.WikiPage) (*domain.PageResponse, error) {
	doc, err := s.renderer.Render(ctx, page.Source())
	if err != nil {
		return nil, err
	}
	resp := page.ToResponse()
	resp.HTML = doc.HTML
	resp.Snippet = doc.Snippet
	resp.TOC = doc.TOC
	if doc.Title != "" {
		resp.Title = doc.Title
	}
	return resp, nil
}

// GetSource returns the editable source. A missing page yields a skeleton.
func (s *pageService) GetSource(ctx context.Context, identity *domain.Identity, name, sectionName string) (*SourceResponse, error) {
	if err := s.checkEdit(identity); err != nil {
		return nil, err
	}
	name = PageName(name)
	if name == "" {
		return nil, common.ErrEmptyPageName
	}
	sectionName = strings.TrimSpace(sectionName)

	resp := &SourceResponse{Name: name, Section: sectionName, Buttons: s.cfg.Buttons()}
	page, err := s.GetByName(ctx, name)
	switch {
	case errors.Is(err, common.ErrPageNotFound):
		if sectionName != "" {
			resp.Source = "## " + sectionName + "\n\n"
		} else {
			resp.Source = "# " + name + "\n\n" + s.cfg.Skeleton
		}
		return resp, nil
	case err != nil:
		return nil, err
	}

	resp.Exists = true
	resp.Source = page.Source()
	if sectionName != "" {
		parts := section.Split(page.Source(), sectionName)
		if parts.Found {
			resp.Source = parts.Target
		} else {
			resp.Source = "## " + sectionName + "\n\n"
		}
	}
	return resp, nil
}

// Update saves an edit. Authorization comes first; nothing is read or
// written for a caller without an editor role.
func (s *pageService) Update(ctx context.Context, identity *domain.Identity, req *UpdateRequest) (*domain.PageResponse, error) {
	if err := s.checkEdit(identity); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, common.ErrInvalidInput
	}
	name := PageName(req.Name)
	if name == "" {
		return nil, common.ErrEmptyPageName
	}

	var (
		saved      domain.WikiPage
		prevEditor string
	)
	err := s.repo.Transaction(ctx, func(tx repository.NodeRepository) error {
		page, err := lookupPage(ctx, tx, name)
		if errors.Is(err, common.ErrPageNotFound) {
			page = domain.NewWikiPage(name)
		} else if err != nil {
			return err
		}
		prevEditor = page.Editor()

		source := req.Text
		if sec := strings.TrimSpace(req.Section); sec != "" {
			// 없는 섹션은 문서 끝에 추가
			parts := section.Split(page.Source(), sec)
			source = section.Splice(parts.Before, req.Text, parts.After)
		}
		source = section.NormalizeSpacing(source)

		applyEdit(page, name, source)
		page.SetEditor(identity.ID)

		node, err := tx.Save(ctx, page.Node)
		if err != nil {
			return err
		}
		saved = domain.WikiPage{Node: node}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Uint64("page_id", saved.ID).Str("page", name).Str("editor", identity.ID).Logger()
	log.Info().Bool("deleted", saved.Deleted).Msg("page saved")

	if prevEditor != "" && prevEditor != identity.ID {
		s.enqueue(ctx, log, ActionNotifyEdit, map[string]interface{}{
			"id":              saved.ID,
			"name":            name,
			"editor":          identity.ID,
			"previous_editor": prevEditor,
		})
	}
	s.enqueue(ctx, log, ActionReindex, map[string]interface{}{"id": saved.ID})

	if s.hooks != nil {
		s.hooks.Do(ctx, plugin.HookWikiAfterUpdate, map[string]interface{}{
			"id":      saved.ID,
			"name":    name,
			"editor":  identity.ID,
			"deleted": saved.Deleted,
		})
	}

	return saved.ToResponse(), nil
}

// applyEdit stores source on page and derives title, properties and the
// deleted flag from it
func applyEdit(page domain.WikiPage, name, source string) {
	props, body := pipeline.ParseFrontMatter(source)

	page.SetSource(source)
	page.SetTitle(firstTitle(body))
	page.Deleted = false
	for k, v := range props {
		if protectedFields[k] {
			continue
		}
		page.Set(k, v)
	}
	if strings.TrimSpace(source) == "" {
		page.Deleted = true
	}
	page.Set(domain.AttrName, name)
	page.Key = domain.ContentKey(domain.NodeTypeWiki, name)
}

// firstTitle label of the first level-1 heading
func firstTitle(body string) string {
	for _, h := range section.Headings(body) {
		if h.Level == 1 {
			return h.Label
		}
	}
	return ""
}

func (s *pageService) enqueue(ctx context.Context, log zerolog.Logger, action string, payload map[string]interface{}) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.Enqueue(ctx, action, payload); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to enqueue task")
	}
}

// List published live pages whose name starts with prefix (case-insensitive)
func (s *pageService) List(ctx context.Context, identity *domain.Identity, prefix string) ([]*domain.PageResponse, *common.Meta, error) {
	if err := s.checkRead(identity); err != nil {
		return nil, nil, err
	}
	nodes, err := s.repo.Where(ctx, "type = ? AND deleted = ? AND published = ?", string(domain.NodeTypeWiki), false, true)
	if err != nil {
		return nil, nil, err
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	pages := make([]*domain.PageResponse, 0, len(nodes))
	for _, n := range nodes {
		page, ok := domain.AsWikiPage(n)
		if !ok || strings.TrimSpace(page.Source()) == "" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(page.Name()), prefix) {
			continue
		}
		pages = append(pages, page.ToResponse())
	}
	sort.Slice(pages, func(i, j int) bool {
		return strings.ToLower(pages[i].Name) < strings.ToLower(pages[j].Name)
	})

	return pages, &common.Meta{Prefix: prefix, Total: int64(len(pages))}, nil
}

// RenderForSearch builds the search document of a page. Deleted or
// unpublished pages come back flagged Deleted so the index drops them.
func (s *pageService) RenderForSearch(ctx context.Context, id uint64) (*SearchDocument, error) {
	node, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	page, ok := domain.AsWikiPage(node)
	if !ok {
		return nil, common.ErrPageNotFound
	}

	doc := &SearchDocument{
		ID:      page.ID,
		Name:    page.Name(),
		Title:   page.DisplayTitle(),
		Editor:  page.Editor(),
		Updated: page.Updated.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if page.Deleted || !page.Published || strings.TrimSpace(page.Source()) == "" {
		doc.Deleted = true
		return doc, nil
	}

	rendered, err := s.renderer.Render(ctx, page.Source())
	if err != nil {
		return nil, err
	}
	if rendered.Title != "" {
		doc.Title = rendered.Title
	}
	doc.Snippet = rendered.Snippet
	doc.Text = rendered.Text
	return doc, nil
}

func (s *pageService) isEditor(identity *domain.Identity) bool {
	return identity.HasRole(s.cfg.EditorRoles)
}

func (s *pageService) checkEdit(identity *domain.Identity) error {
	if identity == nil {
		return common.ErrUnauthorized
	}
	if !s.isEditor(identity) {
		return common.ErrForbidden
	}
	return nil
}

// checkRead open to everyone unless reader roles are configured
func (s *pageService) checkRead(identity *domain.Identity) error {
	if len(s.cfg.ReaderRoles) == 0 {
		return nil
	}
	if identity == nil {
		return common.ErrUnauthorized
	}
	if !identity.HasRole(s.cfg.ReaderRoles) && !s.isEditor(identity) {
		return common.ErrForbidden
	}
	return nil
}

// pageLookup answers link existence checks for the pipeline
type pageLookup struct {
	repo repository.NodeRepository
}

// NewPageLookup creates a pipeline.PageLookup backed by the node store
func NewPageLookup(repo repository.NodeRepository) pipeline.PageLookup {
	return &pageLookup{repo: repo}
}

func (l *pageLookup) PageExists(ctx context.Context, name string) bool {
	name = PageName(name)
	if name == "" {
		return false
	}
	page, err := lookupPage(ctx, l.repo, name)
	if err != nil {
		return false
	}
	return !page.Deleted && strings.TrimSpace(page.Source()) != ""
}
