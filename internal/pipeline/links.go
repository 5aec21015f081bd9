package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/damoang/angple-wiki/internal/config"
	"golang.org/x/net/html"
)

// PageLookup answers whether an internal page exists
type PageLookup interface {
	PageExists(ctx context.Context, name string) bool
}

var wikiLink = regexp.MustCompile(`\[\[([^\[\]|]+?)(?:\|([^\[\]]*?))?\]\]`)

type interwikiRule struct {
	pattern *regexp.Regexp
	url     string
}

func compileInterwiki(rules []config.InterwikiRule) ([]interwikiRule, error) {
	compiled := make([]interwikiRule, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("interwiki rule %d: %w", i, err)
		}
		compiled = append(compiled, interwikiRule{pattern: re, url: r.URL})
	}
	return compiled, nil
}

// linkResolver rewrites [[name]] and [[name|label]] into anchors
type linkResolver struct {
	rules []interwikiRule
	pages PageLookup
	base  string
}

func (r *linkResolver) resolve(ctx context.Context, text string) string {
	return wikiLink.ReplaceAllStringFunc(text, func(match string) string {
		m := wikiLink.FindStringSubmatch(match)
		name := strings.TrimSpace(m[1])
		if strings.HasPrefix(strings.ToLower(name), "image:") || name == "" {
			return match
		}
		label := strings.TrimSpace(m[2])
		if label == "" {
			label = name
		}

		for _, rule := range r.rules {
			idx := rule.pattern.FindStringSubmatchIndex(name)
			if idx == nil {
				continue
			}
			href := string(rule.pattern.ExpandString(nil, rule.url, name, idx))
			return anchor("wiki interwiki", href, label)
		}

		page, fragment, _ := strings.Cut(name, "#")
		page = strings.TrimSpace(page)
		href := r.base + url.PathEscape(page)
		if fragment != "" {
			href += "#" + url.PathEscape(strings.TrimSpace(fragment))
		}

		class := "wiki"
		if r.pages == nil || !r.pages.PageExists(ctx, page) {
			class = "wiki broken"
		}
		return anchor(class, href, label)
	})
}

func anchor(class, href, label string) string {
	return fmt.Sprintf(`<a class="%s" href="%s">%s</a>`, class, html.EscapeString(href), html.EscapeString(label))
}
