package snapshots

import (
	"database/sql"
	"testing"
	"time"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return store
}

func f(v float64) *float64 { return &v }

func sampleTree() *domain.HierarchyNode {
	return &domain.HierarchyNode{
		ID: "acct", Name: "Account", Type: domain.NodeAccount,
		Children: []*domain.HierarchyNode{
			{
				ID: "c1", Name: "Campaign", Type: domain.NodeCampaign,
				Metrics: domain.Metrics{ROAS: f(3.5), Spend: f(120)},
				Children: []*domain.HierarchyNode{
					{
						ID: "a1", Name: "Ad Set", Type: domain.NodeAdSet,
						Children: []*domain.HierarchyNode{
							{ID: "cr1", Name: "Creative", Type: domain.NodeCreative, Metrics: domain.Metrics{CTR: f(1.2)}},
						},
					},
				},
			},
		},
	}
}

func TestStore_SaveAndLatestRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.Save(sampleTree())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 4, snap.NodeCount)
	assert.Equal(t, 1, snap.CampaignCount)

	root, meta, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, snap.ID, meta.ID)

	// The decoded tree matches what went in, optional metrics included.
	require.Len(t, root.Children, 1)
	c1 := root.Children[0]
	assert.Equal(t, "c1", c1.ID)
	require.NotNil(t, c1.Metrics.ROAS)
	assert.Equal(t, 3.5, *c1.Metrics.ROAS)
	assert.Nil(t, c1.Metrics.CTR)
	require.Len(t, c1.Children, 1)
	require.Len(t, c1.Children[0].Children, 1)
	assert.Equal(t, "cr1", c1.Children[0].Children[0].ID)
}

func TestStore_SaveRejectsInvalidTree(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Save(&domain.HierarchyNode{ID: "x", Type: domain.NodeCreative})
	assert.ErrorIs(t, err, domain.ErrInvalidTreeShape)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n, "rejected snapshots are not stored")
}

func TestStore_LatestOnEmptyStore(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.Latest()
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		snap, err := store.Save(sampleTree())
		require.NoError(t, err)
		ids = append(ids, snap.ID)
		time.Sleep(time.Millisecond)
	}

	list, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}

func TestStore_PruneToLast(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Save(sampleTree())
		require.NoError(t, err)
	}

	removed, err := store.PruneToLast(2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.PruneToLast(0)
	assert.Error(t, err)
}

func TestRetentionJob_Run(t *testing.T) {
	store := setupTestStore(t)
	for i := 0; i < 4; i++ {
		_, err := store.Save(sampleTree())
		require.NoError(t, err)
	}

	job := NewRetentionJob(store, 1, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "snapshot-retention", job.Name())
	require.NoError(t, job.Run())

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
