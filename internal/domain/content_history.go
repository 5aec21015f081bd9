package domain

import "time"

// NodeHistory immutable snapshot of a node's state before an update.
// Data holds the compressed full record; the live read path never uses it.
type NodeHistory struct {
	ID      uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Updated time.Time `gorm:"column:updated;primaryKey" json:"updated"`
	Data    []byte    `gorm:"column:data" json:"-"`
}

func (NodeHistory) TableName() string {
	return "node_history"
}
