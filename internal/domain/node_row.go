package domain

import "time"

// NodeRow storage tuple of the node table: fixed columns plus the attribute blob
type NodeRow struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Parent    uint64    `gorm:"column:parent;index"`
	LB        int64     `gorm:"column:lb;uniqueIndex;not null"`
	RB        int64     `gorm:"column:rb;uniqueIndex;not null"`
	Type      string    `gorm:"column:type;type:varchar(32);index"`
	Created   time.Time `gorm:"column:created"`
	Updated   time.Time `gorm:"column:updated"`
	Key       *string   `gorm:"column:key;type:varchar(64);index"`
	Published bool      `gorm:"column:published"`
	Deleted   bool      `gorm:"column:deleted;index"`
	Data      []byte    `gorm:"column:data"`
}

func (NodeRow) TableName() string {
	return "nodes"
}
