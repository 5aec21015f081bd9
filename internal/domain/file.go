package domain

// File attribute names
const (
	AttrFileName = "name"
	AttrMime     = "mime"
	AttrWidth    = "width"
	AttrHeight   = "height"
	AttrPath     = "path"
)

// File typed view over a node of type file
type File struct {
	*Node
}

// NewFile creates an unsaved file node
func NewFile(name, mime string, width, height int64) File {
	n := NewNode(NodeTypeFile)
	n.Set(AttrFileName, name)
	n.Set(AttrMime, mime)
	n.Set(AttrWidth, width)
	n.Set(AttrHeight, height)
	n.Key = ContentKey(NodeTypeFile, name)
	return File{Node: n}
}

// AsFile returns the file view of n, or false when n is not a file node
func AsFile(n *Node) (File, bool) {
	if n == nil || n.Type != NodeTypeFile {
		return File{}, false
	}
	return File{Node: n}, true
}

func (f File) Name() string  { return f.String(AttrFileName) }
func (f File) Mime() string  { return f.String(AttrMime) }
func (f File) Width() int64  { return f.Int(AttrWidth) }
func (f File) Height() int64 { return f.Int(AttrHeight) }

// FileInfo file metadata used to resolve image embeds
type FileInfo struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Width       int64             `json:"width"`
	Height      int64             `json:"height"`
	URLs        map[string]string `json:"urls"`
	Placeholder bool              `json:"placeholder"`
}

// URL returns the URL of variant, falling back to the original
func (f FileInfo) URL(variant string) string {
	if u, ok := f.URLs[variant]; ok && u != "" {
		return u
	}
	return f.URLs["original"]
}
