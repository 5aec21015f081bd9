package domain

import "sort"

// IndexSpec secondary index of a node type: the table holding one row per
// node and the attribute fields copied into it.
type IndexSpec struct {
	Type   NodeType
	Table  string
	Fields []string
	Model  interface{}
}

// WikiIndexEntry wiki_index row
type WikiIndexEntry struct {
	ID     uint64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name   *string `gorm:"column:name;type:varchar(255);index"`
	Title  *string `gorm:"column:title;type:varchar(255)"`
	Editor *string `gorm:"column:editor;type:varchar(64);index"`
}

func (WikiIndexEntry) TableName() string { return "wiki_index" }

// UserIndexEntry user_index row
type UserIndexEntry struct {
	ID    uint64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Login *string `gorm:"column:login;type:varchar(64);index"`
	Email *string `gorm:"column:email;type:varchar(255);index"`
	Role  *string `gorm:"column:role;type:varchar(32)"`
}

func (UserIndexEntry) TableName() string { return "user_index" }

// FileIndexEntry file_index row
type FileIndexEntry struct {
	ID     uint64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name   *string `gorm:"column:name;type:varchar(255);index"`
	Mime   *string `gorm:"column:mime;type:varchar(100)"`
	Width  *int64  `gorm:"column:width"`
	Height *int64  `gorm:"column:height"`
}

func (FileIndexEntry) TableName() string { return "file_index" }

var indexSpecs = map[NodeType]IndexSpec{
	NodeTypeWiki: {
		Type:   NodeTypeWiki,
		Table:  "wiki_index",
		Fields: []string{AttrName, AttrTitle, AttrEditor},
		Model:  &WikiIndexEntry{},
	},
	NodeTypeUser: {
		Type:   NodeTypeUser,
		Table:  "user_index",
		Fields: []string{AttrLogin, AttrEmail, AttrRole},
		Model:  &UserIndexEntry{},
	},
	NodeTypeFile: {
		Type:   NodeTypeFile,
		Table:  "file_index",
		Fields: []string{AttrFileName, AttrMime, AttrWidth, AttrHeight},
		Model:  &FileIndexEntry{},
	},
}

// IndexFor returns the secondary index configured for t
func IndexFor(t NodeType) (IndexSpec, bool) {
	spec, ok := indexSpecs[t]
	return spec, ok
}

// IndexSpecs returns every configured index, ordered by table name
func IndexSpecs() []IndexSpec {
	specs := make([]IndexSpec, 0, len(indexSpecs))
	for _, s := range indexSpecs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Table < specs[j].Table })
	return specs
}

// Entry builds the index row values for n: id plus the configured fields.
// Missing fields are stored as NULL.
func (s IndexSpec) Entry(n *Node) map[string]interface{} {
	values := make(map[string]interface{}, len(s.Fields)+1)
	values[FieldID] = n.ID
	for _, f := range s.Fields {
		v := n.Get(f)
		if str, ok := v.(string); ok && str == "" {
			v = nil
		}
		values[f] = v
	}
	return values
}
