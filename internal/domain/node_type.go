package domain

import (
	"crypto/sha1" //nolint:gosec // lookup hash, not a security boundary
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
)

// NodeType selects the attribute schema and secondary index of a node
type NodeType string

const (
	NodeTypeDefault NodeType = "default"
	NodeTypeWiki    NodeType = "wiki"
	NodeTypeUser    NodeType = "user"
	NodeTypeFile    NodeType = "file"
)

// ParseNodeType maps a stored type tag onto the closed set of node types.
// Unknown tags fall back to NodeTypeDefault.
func ParseNodeType(tag string) NodeType {
	switch NodeType(strings.ToLower(strings.TrimSpace(tag))) {
	case NodeTypeWiki:
		return NodeTypeWiki
	case NodeTypeUser:
		return NodeTypeUser
	case NodeTypeFile:
		return NodeTypeFile
	default:
		return NodeTypeDefault
	}
}

var folder = cases.Fold()

// ContentKey derives the lookup key of a natural name. Names are trimmed and
// case-folded, then hashed together with the node type so that a page and a
// user with the same name never share a key.
func ContentKey(t NodeType, name string) string {
	folded := folder.String(strings.TrimSpace(name))
	sum := sha1.Sum([]byte(string(t) + ":" + folded)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
