package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNodeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// :memory: 는 연결마다 별도 DB, 단일 연결로 고정
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))
	return db
}

func newTestNodeRepo(t *testing.T, historyTypes ...string) (NodeRepository, *HistoryRepository, *gorm.DB) {
	t.Helper()
	db := setupNodeTestDB(t)
	history, err := NewHistoryRepository(db)
	require.NoError(t, err)
	return NewNodeRepository(db, history, historyTypes), history, db
}

func countIndexRows(t *testing.T, db *gorm.DB, table string, id uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Where("id = ?", id).Count(&n).Error)
	return n
}

func TestNodeRepository_SaveInsertAssignsIdentityAndPosition(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, domain.NewWikiPage("Home").Node)
	require.NoError(t, err)
	second, err := repo.Save(ctx, domain.NewWikiPage("About").Node)
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, int64(1), first.LB)
	assert.Equal(t, int64(2), first.RB)
	assert.Equal(t, int64(3), second.LB)
	assert.Equal(t, int64(4), second.RB)
	assert.False(t, first.Created.IsZero())
	assert.Equal(t, first.Created, first.Updated)
}

func TestNodeRepository_GetDecodesAttributes(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()

	page := domain.NewWikiPage("Home")
	page.SetSource("# Home\n\nWelcome")
	page.Set("views", int64(3))
	saved, err := repo.Save(ctx, page.Node)
	require.NoError(t, err)

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)

	view, ok := domain.AsWikiPage(got)
	require.True(t, ok)
	assert.Equal(t, "Home", view.Name())
	assert.Equal(t, "# Home\n\nWelcome", view.Source())
	assert.Equal(t, int64(3), got.Int("views"))
	assert.Equal(t, page.Key, got.Key)
	assert.True(t, got.Published)
}

func TestNodeRepository_GetNotFound(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)

	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByKey(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNodeRepository_GetByKeyReturnsLowestID(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()

	a := domain.NewNode(domain.NodeTypeDefault)
	a.Key = "shared"
	a.Set("n", "first")
	b := domain.NewNode(domain.NodeTypeDefault)
	b.Key = "shared"
	b.Set("n", "second")

	_, err := repo.Save(ctx, a)
	require.NoError(t, err)
	_, err = repo.Save(ctx, b)
	require.NoError(t, err)

	got, err := repo.GetByKey(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "first", got.String("n"))
}

func TestNodeRepository_UpdateKeepsCreatedAndRefreshesUpdated(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.(*nodeRepository).now = func() time.Time { return clock }

	saved, err := repo.Save(ctx, domain.NewWikiPage("Home").Node)
	require.NoError(t, err)
	created := saved.Created

	clock = clock.Add(time.Hour)
	loaded, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	loaded.Created = time.Time{}
	loaded.Set(domain.AttrSource, "changed")
	updated, err := repo.Save(ctx, loaded)
	require.NoError(t, err)

	assert.True(t, created.Equal(updated.Created))
	assert.True(t, clock.Equal(updated.Updated))
	assert.Equal(t, saved.LB, updated.LB)

	reloaded, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", reloaded.String(domain.AttrSource))
	assert.True(t, clock.Equal(reloaded.Updated))
}

func TestNodeRepository_StaleIDIsAnError(t *testing.T) {
	repo, _, db := newTestNodeRepo(t)

	ghost := domain.NewWikiPage("Ghost")
	ghost.ID = 999
	_, err := repo.Save(context.Background(), ghost.Node)
	assert.ErrorIs(t, err, common.ErrStaleNode)

	var count int64
	require.NoError(t, db.Model(&domain.NodeRow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNodeRepository_IndexRefreshKeepsExactlyOneRow(t *testing.T) {
	repo, _, db := newTestNodeRepo(t)
	ctx := context.Background()

	page := domain.NewWikiPage("Home")
	saved, err := repo.Save(ctx, page.Node)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countIndexRows(t, db, "wiki_index", saved.ID))

	for i := 0; i < 3; i++ {
		domain.WikiPage{Node: saved}.SetTitle("Title")
		saved, err = repo.Save(ctx, saved)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), countIndexRows(t, db, "wiki_index", saved.ID))

	var entry domain.WikiIndexEntry
	require.NoError(t, db.Where("id = ?", saved.ID).First(&entry).Error)
	require.NotNil(t, entry.Title)
	assert.Equal(t, "Title", *entry.Title)
	require.NotNil(t, entry.Name)
	assert.Equal(t, "Home", *entry.Name)
}

func TestNodeRepository_EachTypeUsesItsIndex(t *testing.T) {
	repo, _, db := newTestNodeRepo(t)
	ctx := context.Background()

	user, err := repo.Save(ctx, domain.NewUser("alice", "a@example.com", "editor").Node)
	require.NoError(t, err)
	file, err := repo.Save(ctx, domain.NewFile("cat.png", "image/png", 640, 480).Node)
	require.NoError(t, err)
	plain, err := repo.Save(ctx, domain.NewNode(domain.NodeTypeDefault))
	require.NoError(t, err)

	assert.Equal(t, int64(1), countIndexRows(t, db, "user_index", user.ID))
	assert.Equal(t, int64(1), countIndexRows(t, db, "file_index", file.ID))
	assert.Zero(t, countIndexRows(t, db, "wiki_index", plain.ID))

	var entry domain.FileIndexEntry
	require.NoError(t, db.Where("id = ?", file.ID).First(&entry).Error)
	require.NotNil(t, entry.Width)
	assert.Equal(t, int64(640), *entry.Width)
}

func TestNodeRepository_Where(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Save(ctx, domain.NewWikiPage(name).Node)
		require.NoError(t, err)
	}
	hidden := domain.NewWikiPage("Hidden")
	hidden.Deleted = true
	_, err := repo.Save(ctx, hidden.Node)
	require.NoError(t, err)

	nodes, err := repo.Where(ctx, "type = ? AND deleted = ?", "wiki", false)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "A", nodes[0].String(domain.AttrName))
	assert.Equal(t, "C", nodes[2].String(domain.AttrName))
}

func TestNodeRepository_HistorySnapshotsPreviousState(t *testing.T) {
	repo, history, _ := newTestNodeRepo(t, "wiki")
	ctx := context.Background()

	page := domain.NewWikiPage("Home")
	page.SetSource("v1")
	saved, err := repo.Save(ctx, page.Node)
	require.NoError(t, err)

	entries, err := history.List(ctx, saved.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "first insert has no previous state")

	domain.WikiPage{Node: saved}.SetSource("v2")
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	entries, err = history.List(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	prev, err := history.Decode(entries[0])
	require.NoError(t, err)
	assert.Equal(t, saved.ID, prev.ID)
	assert.Equal(t, "v1", prev.String(domain.AttrSource))
	assert.Equal(t, domain.NodeTypeWiki, prev.Type)
}

func TestNodeRepository_HistoryDisabledForOtherTypes(t *testing.T) {
	repo, history, _ := newTestNodeRepo(t, "wiki")
	ctx := context.Background()

	user, err := repo.Save(ctx, domain.NewUser("bob", "b@example.com", "reader").Node)
	require.NoError(t, err)
	user.Set(domain.AttrRole, "editor")
	_, err = repo.Save(ctx, user)
	require.NoError(t, err)

	entries, err := history.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNodeRepository_TransactionRollsBackEverything(t *testing.T) {
	repo, _, db := newTestNodeRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx NodeRepository) error {
		if _, err := tx.Save(ctx, domain.NewWikiPage("Doomed").Node); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var nodes, entries int64
	require.NoError(t, db.Model(&domain.NodeRow{}).Count(&nodes).Error)
	require.NoError(t, db.Model(&domain.WikiIndexEntry{}).Count(&entries).Error)
	assert.Zero(t, nodes)
	assert.Zero(t, entries)
}

func TestNodeRepository_EmptyAttributesStoreNullBlob(t *testing.T) {
	repo, _, db := newTestNodeRepo(t)

	saved, err := repo.Save(context.Background(), domain.NewNode(domain.NodeTypeDefault))
	require.NoError(t, err)

	var row domain.NodeRow
	require.NoError(t, db.Where("id = ?", saved.ID).First(&row).Error)
	assert.Nil(t, row.Data)
	assert.Nil(t, row.Key)
}
