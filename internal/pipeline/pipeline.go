// Package pipeline turns wiki source into sanitized HTML plus derived
// metadata: front-matter, block transforms, hook filters, markup rendering,
// extraction and sanitization, in that order.
package pipeline

import (
	"context"
	"time"

	"github.com/damoang/angple-wiki/internal/config"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/internal/plugin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/yuin/goldmark"
)

var (
	renderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wiki_render_total",
			Help: "Total number of wiki documents rendered",
		},
		[]string{"result"},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wiki_render_duration_seconds",
			Help:    "Wiki document render duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)
)

// Document render artifacts of one source text
type Document struct {
	HTML       string           `json:"html"`
	Title      string           `json:"title"`
	Snippet    string           `json:"snippet"`
	Text       string           `json:"text"`
	TOC        []domain.Heading `json:"toc"`
	Properties Properties       `json:"properties,omitempty"`
	Body       string           `json:"-"`
}

// Pipeline renders documents. It is safe for concurrent use; the only I/O
// it performs is the read-only page and file lookups.
type Pipeline struct {
	links         *linkResolver
	images        *imageResolver
	youtube       *youtubeEmbedder
	hooks         *plugin.HookManager
	md            goldmark.Markdown
	policy        *bluemonday.Policy
	snippetLength int
}

// New builds a pipeline. pages, files and hooks may be nil.
func New(cfg config.WikiConfig, pages PageLookup, files FileProvider, hooks *plugin.HookManager) (*Pipeline, error) {
	rules, err := compileInterwiki(cfg.Interwiki)
	if err != nil {
		return nil, err
	}
	base := cfg.LinkBase
	if base == "" {
		base = "/wiki/"
	}
	if hooks == nil {
		hooks = plugin.NewHookManager(nil)
	}
	return &Pipeline{
		links:         &linkResolver{rules: rules, pages: pages, base: base},
		images:        &imageResolver{files: files},
		youtube:       newYouTubeEmbedder(cfg.Embed),
		hooks:         hooks,
		md:            newMarkdown(),
		policy:        newPolicy(),
		snippetLength: cfg.SnippetLength,
	}, nil
}

// Transform applies the structural block transforms to a document body:
// galleries, map blocks, links, image embeds and video embeds.
func (p *Pipeline) Transform(ctx context.Context, body string) string {
	text := OutsideCode(body, groupGalleries)
	text = replaceMapBlocks(text)
	text = OutsideInlineCode(text, func(chunk string) string {
		chunk = p.links.resolve(ctx, chunk)
		return p.images.resolve(ctx, chunk)
	})
	return OutsideCode(text, p.youtube.embed)
}

// Render runs the full pipeline over source
func (p *Pipeline) Render(ctx context.Context, source string) (*Document, error) {
	start := time.Now()
	defer func() { renderDuration.Observe(time.Since(start).Seconds()) }()

	props, body := ParseFrontMatter(source)

	text := p.Transform(ctx, body)
	text = p.hooks.Apply(ctx, plugin.HookWikiContent, text)

	raw, err := renderMarkup(p.md, text)
	if err != nil {
		renderTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	ex, err := extractMetadata(raw, p.snippetLength)
	if err != nil {
		renderTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	renderTotal.WithLabelValues("ok").Inc()
	return &Document{
		HTML:       p.policy.Sanitize(ex.HTML),
		Title:      ex.Title,
		Snippet:    ex.Snippet,
		Text:       ex.Text,
		TOC:        ex.TOC,
		Properties: props,
		Body:       body,
	}, nil
}
