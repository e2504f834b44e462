package repository

import (
	"context"
	"testing"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	p := testutil.NewTestProject("Avionics")

	require.NoError(t, repo.Upsert(ctx, p, time.Now()))

	got, err := repo.GetByPHID(ctx, p.PHID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byName, err := repo.GetByName(ctx, "avionics")
	require.NoError(t, err)
	assert.Equal(t, p.PHID, byName.PHID)
}

func TestProjectRepo_UpsertRenames(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	p := testutil.NewTestProject("Avionics")
	require.NoError(t, repo.Upsert(ctx, p, time.Now()))

	p.Name = "Flight Software"
	p.Columns = nil
	require.NoError(t, repo.Upsert(ctx, p, time.Now()))

	got, err := repo.GetByPHID(ctx, p.PHID)
	require.NoError(t, err)
	assert.Equal(t, "Flight Software", got.Name)
	assert.Empty(t, got.Columns)
}

func TestProjectRepo_NotFound(t *testing.T) {
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))

	_, err := repo.GetByPHID(context.Background(), "PHID-PROJ-none")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByName(context.Background(), "Nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_ListSortedByName(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteProjectRepo(testutil.NewTestDB(t))
	for _, name := range []string{"Ground", "Avionics", "Radar"} {
		require.NoError(t, repo.Upsert(ctx, testutil.NewTestProject(name), time.Now()))
	}

	projects, err := repo.List(ctx)

	require.NoError(t, err)
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Avionics", "Ground", "Radar"}, names)
	assert.Equal(t, []domain.Column{{Name: "Backlog", PHID: "PHID-PCOL-backlog"}, {Name: "Doing", PHID: "PHID-PCOL-doing"}}, projects[0].Columns)
}
