package pipeline

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	classNames   = regexp.MustCompile(`^[A-Za-z0-9_ -]+$`)
	youtubeEmbed = regexp.MustCompile(`^https://www\.youtube\.com/embed/[A-Za-z0-9_-]{11}$`)
	embedStyle   = regexp.MustCompile(`^max-width:\d+px$`)
)

// newPolicy UGC allow-list extended with the markup the block transforms emit
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").Matching(classNames).OnElements("a", "div", "figure", "span", "code", "pre")
	p.AllowAttrs("data-map").OnElements("div")
	p.AllowAttrs("style").Matching(embedStyle).OnElements("div")

	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(youtubeEmbed).OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("frameborder", "allow", "allowfullscreen", "loading").OnElements("iframe")

	return p
}
