package domain

import "time"

// Wiki page attribute names
const (
	AttrName   = "name"
	AttrSource = "source"
	AttrTitle  = "title"
	AttrEditor = "editor"
)

// WikiPage typed view over a node of type wiki
type WikiPage struct {
	*Node
}

// NewWikiPage creates an unsaved wiki page node for name
func NewWikiPage(name string) WikiPage {
	n := NewNode(NodeTypeWiki)
	n.Set(AttrName, name)
	n.Key = ContentKey(NodeTypeWiki, name)
	return WikiPage{Node: n}
}

// AsWikiPage returns the wiki view of n, or false when n is not a wiki node
func AsWikiPage(n *Node) (WikiPage, bool) {
	if n == nil || n.Type != NodeTypeWiki {
		return WikiPage{}, false
	}
	return WikiPage{Node: n}, true
}

func (p WikiPage) Name() string   { return p.String(AttrName) }
func (p WikiPage) Source() string { return p.String(AttrSource) }
func (p WikiPage) Title() string  { return p.String(AttrTitle) }

// Editor id of the last editor
func (p WikiPage) Editor() string { return p.String(AttrEditor) }

func (p WikiPage) SetSource(source string) { p.Set(AttrSource, source) }
func (p WikiPage) SetEditor(id string)     { p.Set(AttrEditor, id) }

// SetTitle stores the title; an empty title removes it
func (p WikiPage) SetTitle(title string) {
	if title == "" {
		p.Set(AttrTitle, nil)
		return
	}
	p.Set(AttrTitle, title)
}

// DisplayTitle title when extracted, page name otherwise
func (p WikiPage) DisplayTitle() string {
	if t := p.Title(); t != "" {
		return t
	}
	return p.Name()
}

// PageResponse page as returned to clients
type PageResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	HTML      string    `json:"html,omitempty"`
	Snippet   string    `json:"snippet,omitempty"`
	TOC       []Heading `json:"toc,omitempty"`
	Editor    string    `json:"editor,omitempty"`
	Published bool      `json:"published"`
	Updated   time.Time `json:"updated"`
}

// Heading table of contents entry
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// ToResponse converts the page to a response without rendered HTML
func (p WikiPage) ToResponse() *PageResponse {
	return &PageResponse{
		ID:        p.ID,
		Name:      p.Name(),
		Title:     p.DisplayTitle(),
		Editor:    p.Editor(),
		Published: p.Published,
		Updated:   p.Updated,
	}
}
