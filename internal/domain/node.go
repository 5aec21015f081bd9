package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/damoang/angple-wiki/internal/attrcodec"
)

// Fixed column names of the node table
const (
	FieldID        = "id"
	FieldParent    = "parent"
	FieldLB        = "lb"
	FieldRB        = "rb"
	FieldType      = "type"
	FieldCreated   = "created"
	FieldUpdated   = "updated"
	FieldKey       = "key"
	FieldPublished = "published"
	FieldDeleted   = "deleted"
)

// FixedFields lists every field stored as its own column. Any other field
// name lives in the attribute blob.
var FixedFields = []string{
	FieldID, FieldParent, FieldLB, FieldRB, FieldType,
	FieldCreated, FieldUpdated, FieldKey, FieldPublished, FieldDeleted,
}

var fixedFieldSet = func() map[string]bool {
	m := make(map[string]bool, len(FixedFields))
	for _, f := range FixedFields {
		m[f] = true
	}
	return m
}()

// IsFixedField reports whether name is a fixed column
func IsFixedField(name string) bool {
	return fixedFieldSet[name]
}

// Attributes dynamic per-type fields of a node
type Attributes map[string]interface{}

// Node the universal stored record.
//
// Parent is a plain reference; it is not used to enforce tree containment.
// LB/RB are unique, append-only position markers with LB < RB.
type Node struct {
	ID        uint64     `json:"id"`
	Parent    uint64     `json:"parent"`
	LB        int64      `json:"lb"`
	RB        int64      `json:"rb"`
	Type      NodeType   `json:"type"`
	Created   time.Time  `json:"created"`
	Updated   time.Time  `json:"updated"`
	Key       string     `json:"key,omitempty"`
	Published bool       `json:"published"`
	Deleted   bool       `json:"deleted"`
	Attrs     Attributes `json:"attrs,omitempty"`
}

// NewNode creates an unsaved, published node of the given type
func NewNode(t NodeType) *Node {
	return &Node{Type: t, Published: true, Attrs: Attributes{}}
}

// HasPosition reports whether lb/rb were already assigned
func (n *Node) HasPosition() bool {
	return n.LB > 0 && n.RB > n.LB
}

// Get returns a field by name, fixed or dynamic
func (n *Node) Get(name string) interface{} {
	switch name {
	case FieldID:
		return n.ID
	case FieldParent:
		return n.Parent
	case FieldLB:
		return n.LB
	case FieldRB:
		return n.RB
	case FieldType:
		return string(n.Type)
	case FieldCreated:
		return n.Created
	case FieldUpdated:
		return n.Updated
	case FieldKey:
		return n.Key
	case FieldPublished:
		return n.Published
	case FieldDeleted:
		return n.Deleted
	}
	if n.Attrs == nil {
		return nil
	}
	return n.Attrs[name]
}

// String returns a dynamic field as text ("" when absent)
func (n *Node) String(name string) string {
	switch v := n.Get(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns a field as an integer (0 when absent or not numeric)
func (n *Node) Int(name string) int64 {
	i, _ := toInt64(n.Get(name))
	return i
}

// Set routes a field by name: fixed names go to the typed columns, everything
// else into the attribute bag. A nil value removes a dynamic field.
func (n *Node) Set(name string, value interface{}) {
	switch name {
	case FieldID:
		n.ID = toUint64(value)
	case FieldParent:
		n.Parent = toUint64(value)
	case FieldLB:
		n.LB, _ = toInt64(value)
	case FieldRB:
		n.RB, _ = toInt64(value)
	case FieldType:
		n.Type = ParseNodeType(toString(value))
	case FieldCreated:
		n.Created = toTime(value)
	case FieldUpdated:
		n.Updated = toTime(value)
	case FieldKey:
		n.Key = toString(value)
	case FieldPublished:
		n.Published = ToBool(value)
	case FieldDeleted:
		n.Deleted = ToBool(value)
	default:
		if value == nil {
			delete(n.Attrs, name)
			return
		}
		if n.Attrs == nil {
			n.Attrs = Attributes{}
		}
		n.Attrs[name] = value
	}
}

// Record flattens the node into a single logical record
func (n *Node) Record() attrcodec.Record {
	rec := make(attrcodec.Record, len(FixedFields)+len(n.Attrs))
	for _, f := range FixedFields {
		rec[f] = n.Get(f)
	}
	for k, v := range n.Attrs {
		if !IsFixedField(k) {
			rec[k] = v
		}
	}
	return rec
}

// AttributeNames returns the dynamic field names in sorted order
func (n *Node) AttributeNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NodeFromRecord builds a node from a flat logical record
func NodeFromRecord(rec attrcodec.Record) *Node {
	n := &Node{Attrs: Attributes{}}
	for k, v := range rec {
		n.Set(k, v)
	}
	if n.Type == "" {
		n.Type = NodeTypeDefault
	}
	return n
}

// ToBool coerces 0/1, booleans and boolean strings to a strict bool
func ToBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case nil:
		return false
	default:
		i, ok := toInt64(v)
		return ok && i != 0
	}
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toUint64(value interface{}) uint64 {
	i, ok := toInt64(value)
	if !ok || i < 0 {
		return 0
	}
	return uint64(i)
}

func toTime(value interface{}) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ToUint64 coerces an id-like value (numbers or numeric strings) to uint64
func ToUint64(value interface{}) uint64 {
	return toUint64(value)
}
