package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damoang/angple-wiki/internal/attrcodec"
	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NodeRepository node table data access
type NodeRepository interface {
	// 조회
	Get(ctx context.Context, id uint64) (*domain.Node, error)
	GetByKey(ctx context.Context, key string) (*domain.Node, error)
	Where(ctx context.Context, query string, args ...interface{}) ([]*domain.Node, error)

	// 저장
	Save(ctx context.Context, node *domain.Node) (*domain.Node, error)

	// Transaction runs fn against a repository bound to one transaction.
	// Any error rolls back every write made through it.
	Transaction(ctx context.Context, fn func(repo NodeRepository) error) error
}

// nodeRepository GORM 구현체
type nodeRepository struct {
	db           *gorm.DB
	history      *HistoryRepository
	historyTypes map[domain.NodeType]bool
	now          func() time.Time
}

// NewNodeRepository creates a NodeRepository. Nodes whose type is listed in
// historyTypes get their previous state snapshotted before every update.
func NewNodeRepository(db *gorm.DB, history *HistoryRepository, historyTypes []string) NodeRepository {
	types := make(map[domain.NodeType]bool, len(historyTypes))
	for _, t := range historyTypes {
		types[domain.ParseNodeType(t)] = true
	}
	return &nodeRepository{
		db:           db,
		history:      history,
		historyTypes: types,
		now:          time.Now,
	}
}

func (r *nodeRepository) withDB(tx *gorm.DB) *nodeRepository {
	return &nodeRepository{
		db:           tx,
		history:      r.history,
		historyTypes: r.historyTypes,
		now:          r.now,
	}
}

// Get fetches a node by primary key
func (r *nodeRepository) Get(ctx context.Context, id uint64) (*domain.Node, error) {
	var row domain.NodeRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(&row)
}

// GetByKey fetches the lowest-id node matching key
func (r *nodeRepository) GetByKey(ctx context.Context, key string) (*domain.Node, error) {
	var row domain.NodeRow
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{domain.FieldKey: key}).
		Order("id ASC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, common.ErrNotFound
	}
	return decodeRow(&row)
}

// Where runs a filtered scan. The predicate may reference fixed columns only;
// every result is decoded the same way as Get.
func (r *nodeRepository) Where(ctx context.Context, query string, args ...interface{}) ([]*domain.Node, error) {
	var rows []domain.NodeRow
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nodes := make([]*domain.Node, 0, len(rows))
	for i := range rows {
		n, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Transaction runs fn in a single transaction
func (r *nodeRepository) Transaction(ctx context.Context, fn func(repo NodeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.withDB(tx))
	})
}

// Save upserts node. The node write, history snapshot and index refresh are
// one unit: either all persist or none does.
func (r *nodeRepository) Save(ctx context.Context, node *domain.Node) (*domain.Node, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.withDB(tx).save(node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (r *nodeRepository) save(node *domain.Node) error {
	now := r.now()

	if node.ID != 0 {
		// FOR UPDATE: 동시 수정 보호 (SQLite에서는 무시됨)
		var prev domain.NodeRow
		err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", node.ID).
			Limit(1).
			Find(&prev).Error
		if err != nil {
			return err
		}
		if prev.ID == 0 {
			return fmt.Errorf("node %d: %w", node.ID, common.ErrStaleNode)
		}

		if r.historyTypes[domain.ParseNodeType(prev.Type)] && r.history != nil {
			prevNode, err := decodeRow(&prev)
			if err != nil {
				return err
			}
			if err := r.history.WithDB(r.db).Snapshot(prevNode); err != nil {
				return fmt.Errorf("history snapshot of node %d: %w", node.ID, err)
			}
		}

		if node.Created.IsZero() {
			node.Created = prev.Created
		}
		if !node.HasPosition() {
			node.LB, node.RB = prev.LB, prev.RB
		}
	}

	if node.Created.IsZero() {
		node.Created = now
	}
	node.Updated = now
	if node.Type == "" {
		node.Type = domain.NodeTypeDefault
	}

	if !node.HasPosition() {
		lb, rb, err := r.nextPosition()
		if err != nil {
			return err
		}
		node.LB, node.RB = lb, rb
	}

	row, err := encodeNode(node)
	if err != nil {
		return err
	}

	if row.ID != 0 {
		result := r.db.Model(&domain.NodeRow{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				domain.FieldParent:    row.Parent,
				domain.FieldLB:        row.LB,
				domain.FieldRB:        row.RB,
				domain.FieldType:      row.Type,
				domain.FieldCreated:   row.Created,
				domain.FieldUpdated:   row.Updated,
				domain.FieldKey:       row.Key,
				domain.FieldPublished: row.Published,
				domain.FieldDeleted:   row.Deleted,
				"data":                row.Data,
			})
		if result.Error != nil {
			return result.Error
		}
	} else {
		if err := r.db.Create(row).Error; err != nil {
			return err
		}
		node.ID = row.ID
	}

	return r.refreshIndex(node)
}

// nextPosition appends after the current maximum right bound
func (r *nodeRepository) nextPosition() (int64, int64, error) {
	var maxRB int64
	err := r.db.Model(&domain.NodeRow{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("COALESCE(MAX(rb), 0)").
		Scan(&maxRB).Error
	if err != nil {
		return 0, 0, fmt.Errorf("read max rb: %w", err)
	}
	return maxRB + 1, maxRB + 2, nil
}

// refreshIndex rebuilds the node's secondary index row (delete + insert)
func (r *nodeRepository) refreshIndex(node *domain.Node) error {
	spec, ok := domain.IndexFor(node.Type)
	if !ok {
		return nil
	}
	if err := r.db.Where("id = ?", node.ID).Delete(spec.Model).Error; err != nil {
		return fmt.Errorf("clear %s entry: %w", spec.Table, err)
	}
	if err := r.db.Model(spec.Model).Create(spec.Entry(node)).Error; err != nil {
		return fmt.Errorf("insert %s entry: %w", spec.Table, err)
	}
	return nil
}

// encodeNode packs a node into its storage tuple
func encodeNode(node *domain.Node) (*domain.NodeRow, error) {
	columns, blob, err := attrcodec.Pack(node.Record(), domain.FixedFields)
	if err != nil {
		return nil, err
	}
	fixed := domain.NodeFromRecord(columns)

	row := &domain.NodeRow{
		ID:        fixed.ID,
		Parent:    fixed.Parent,
		LB:        fixed.LB,
		RB:        fixed.RB,
		Type:      string(fixed.Type),
		Created:   fixed.Created,
		Updated:   fixed.Updated,
		Published: fixed.Published,
		Deleted:   fixed.Deleted,
		Data:      blob,
	}
	if columns[domain.FieldKey] != nil {
		key := fixed.Key
		row.Key = &key
	}
	return row, nil
}

// decodeRow unpacks a storage tuple into a node
func decodeRow(row *domain.NodeRow) (*domain.Node, error) {
	columns := attrcodec.Record{
		domain.FieldID:        row.ID,
		domain.FieldParent:    row.Parent,
		domain.FieldLB:        row.LB,
		domain.FieldRB:        row.RB,
		domain.FieldType:      row.Type,
		domain.FieldCreated:   row.Created,
		domain.FieldUpdated:   row.Updated,
		domain.FieldPublished: row.Published,
		domain.FieldDeleted:   row.Deleted,
	}
	if row.Key != nil {
		columns[domain.FieldKey] = *row.Key
	}

	rec, err := attrcodec.Unpack(columns, row.Data)
	if err != nil {
		return nil, fmt.Errorf("decode node %d: %w", row.ID, err)
	}
	return domain.NodeFromRecord(rec), nil
}
