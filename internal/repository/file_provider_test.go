package repository

import (
	"context"
	"testing"

	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProvider_GetFile(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()

	file, err := repo.Save(ctx, domain.NewFile("cat photo.png", "image/png", 800, 600).Node)
	require.NoError(t, err)

	provider := NewFileProvider(repo, "https://files.example.com/", []string{"thumb", "large"}, "/static/missing.png")
	info := provider.GetFile(ctx, file.ID)

	assert.False(t, info.Placeholder)
	assert.Equal(t, int64(800), info.Width)
	assert.Equal(t, int64(600), info.Height)
	assert.Equal(t, "cat photo.png", info.Name)
	assert.Equal(t, "https://files.example.com/1/cat%20photo.png", info.URL("original"))
	assert.Equal(t, "https://files.example.com/1/thumb/cat%20photo.png", info.URL("thumb"))
	assert.Equal(t, info.URL("original"), info.URL("unknown"))
}

func TestFileProvider_PlaceholderForMissingOrWrongType(t *testing.T) {
	repo, _, _ := newTestNodeRepo(t)
	ctx := context.Background()
	provider := NewFileProvider(repo, "/files", nil, "/static/missing.png")

	missing := provider.GetFile(ctx, 42)
	assert.True(t, missing.Placeholder)
	assert.Equal(t, "/static/missing.png", missing.URL("thumb"))

	page, err := repo.Save(ctx, domain.NewWikiPage("Not a file").Node)
	require.NoError(t, err)
	assert.True(t, provider.GetFile(ctx, page.ID).Placeholder)

	gone := domain.NewFile("gone.png", "image/png", 10, 10)
	gone.Deleted = true
	_, err = repo.Save(ctx, gone.Node)
	require.NoError(t, err)
	assert.True(t, provider.GetFile(ctx, gone.ID).Placeholder)
}
