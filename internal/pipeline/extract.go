package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/damoang/angple-wiki/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extraction derived metadata of a rendered fragment
type extraction struct {
	HTML    string
	Title   string
	Snippet string
	Text    string
	TOC     []domain.Heading
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// extractMetadata takes the first <h1> out as the title, the first non-empty
// paragraph as the snippet and h1-h6 as the table of contents. Scripts and
// styles are removed before anything is read.
func extractMetadata(fragment string, snippetLength int) (*extraction, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}

	root := bodyContext()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	stripElements(root, atom.Script, atom.Style)

	ex := &extraction{}
	if h1 := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.H1 }); h1 != nil {
		ex.Title = collectText(h1)
		h1.Parent.RemoveChild(h1)
	}

	if p := findFirst(root, func(n *html.Node) bool {
		return n.DataAtom == atom.P && collectText(n) != ""
	}); p != nil {
		ex.Snippet = truncate(collectText(p), snippetLength)
	}

	walk(root, func(n *html.Node) {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			ex.TOC = append(ex.TOC, domain.Heading{
				Level: int(n.Data[1] - '0'),
				ID:    attr(n, "id"),
				Text:  collectText(n),
			})
		}
	})

	ex.Text = collectText(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
	}
	ex.HTML = buf.String()
	return ex, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func stripElements(n *html.Node, atoms ...atom.Atom) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		removed := false
		if c.Type == html.ElementNode {
			for _, a := range atoms {
				if c.DataAtom == a {
					n.RemoveChild(c)
					removed = true
					break
				}
			}
		}
		if !removed {
			stripElements(c, atoms...)
		}
		c = next
	}
}

// collectText visible text of a subtree with whitespace collapsed
func collectText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.P, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Br, atom.Div, atom.Figcaption:
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
