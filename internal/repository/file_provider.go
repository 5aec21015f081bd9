package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/damoang/angple-wiki/internal/domain"
)

// FileProvider resolves file metadata for image embeds from file nodes
type FileProvider struct {
	repo        NodeRepository
	baseURL     string
	variants    []string
	placeholder string
}

// NewFileProvider creates a FileProvider. Derived URLs have the form
// {baseURL}/{id}/{variant}/{name}; the original lives at {baseURL}/{id}/{name}.
func NewFileProvider(repo NodeRepository, baseURL string, variants []string, placeholder string) *FileProvider {
	return &FileProvider{
		repo:        repo,
		baseURL:     strings.TrimRight(baseURL, "/"),
		variants:    variants,
		placeholder: placeholder,
	}
}

// GetFile never fails: unknown, deleted or non-file ids yield a placeholder
func (p *FileProvider) GetFile(ctx context.Context, id uint64) domain.FileInfo {
	node, err := p.repo.Get(ctx, id)
	if err != nil {
		return p.placeholderInfo(id)
	}
	file, ok := domain.AsFile(node)
	if !ok || node.Deleted {
		return p.placeholderInfo(id)
	}

	name := url.PathEscape(file.Name())
	info := domain.FileInfo{
		ID:     id,
		Name:   file.Name(),
		Width:  file.Width(),
		Height: file.Height(),
		URLs: map[string]string{
			"original": fmt.Sprintf("%s/%d/%s", p.baseURL, id, name),
		},
	}
	for _, v := range p.variants {
		info.URLs[v] = fmt.Sprintf("%s/%d/%s/%s", p.baseURL, id, v, name)
	}
	return info
}

func (p *FileProvider) placeholderInfo(id uint64) domain.FileInfo {
	return domain.FileInfo{
		ID:          id,
		URLs:        map[string]string{"original": p.placeholder},
		Placeholder: true,
	}
}
