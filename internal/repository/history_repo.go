package repository

import (
	"context"
	"fmt"

	"github.com/damoang/angple-wiki/internal/attrcodec"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/klauspost/compress/zstd"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository handles node history snapshots.
// Snapshots are the full record as one JSON blob, zstd-compressed.
type HistoryRepository struct {
	db  *gorm.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) (*HistoryRepository, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &HistoryRepository{db: db, enc: enc, dec: dec}, nil
}

// WithDB returns a copy bound to tx
func (r *HistoryRepository) WithDB(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx, enc: r.enc, dec: r.dec}
}

// Snapshot stores node as it is now, keyed by id and its updated time.
// A second snapshot of the same state is ignored.
func (r *HistoryRepository) Snapshot(node *domain.Node) error {
	_, blob, err := attrcodec.Pack(node.Record(), nil)
	if err != nil {
		return err
	}
	entry := &domain.NodeHistory{
		ID:      node.ID,
		Updated: node.Updated,
		Data:    r.enc.EncodeAll(blob, nil),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

// List retrieves the snapshots of a node, newest first
func (r *HistoryRepository) List(ctx context.Context, id uint64) ([]domain.NodeHistory, error) {
	var history []domain.NodeHistory
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Order("updated DESC").
		Find(&history).Error
	return history, err
}

// Decode restores the node state held by a snapshot
func (r *HistoryRepository) Decode(entry domain.NodeHistory) (*domain.Node, error) {
	blob, err := r.dec.DecodeAll(entry.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot of node %d: %w", entry.ID, err)
	}
	rec, err := attrcodec.Unpack(nil, blob)
	if err != nil {
		return nil, err
	}
	return domain.NodeFromRecord(rec), nil
}
