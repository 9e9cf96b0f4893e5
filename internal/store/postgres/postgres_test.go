package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/table"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x\\y`, escapeLike(`50% off_x\y`))
}

func TestIDFRowDecode(t *testing.T) {
	r := idfRow{
		idf:        core.IDF{Cluster: "Trinity", Project: "Trinity", Code: "A"},
		images:     []byte(`["a/b.jpg", {"url": "c.png", "name": "C"}]`),
		documents:  []byte(`[]`),
		diagrams:   []byte(`[]`),
		dfo:        []byte(`[]`),
		location:   []byte(`[]`),
		logo:       nil,
		fiberTable: []byte(`{"columns":[{"key":"status","label":"Status","type":"status"}],"rows":[{"status":"ok"}]}`),
	}
	idf, err := r.decode()
	require.NoError(t, err)
	require.Len(t, idf.Images, 2)
	assert.Equal(t, "a/b.jpg", idf.Images[0].URL)
	assert.Equal(t, "C", idf.Images[1].Name)
	assert.Nil(t, idf.Logo)
	require.NotNil(t, idf.Table)
	assert.Equal(t, table.LevelGreen, table.HealthOf(*idf.Table).Level)
}

// openTestStore connects to TEST_DATABASE_URL, migrates it and empties the
// tables. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, url))

	pool, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE devices, idfs, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return New(pool)
}

func TestStore_IDFLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	idf := &core.IDF{Cluster: "Trinity", Project: "Sabinas Project", Code: "IDF-1", Title: "Closet",
		Images: core.MediaList{{URL: "x/y.jpg"}}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateIDF(ctx, idf))
	assert.NotZero(t, idf.ID)
	assert.ErrorIs(t, s.CreateIDF(ctx, idf), core.ErrIDFExists)

	got, err := s.GetIDF(ctx, idf.Key())
	require.NoError(t, err)
	assert.Equal(t, "Closet", got.Title)
	assert.Nil(t, got.Table)

	const n = 10
	_, err = s.MutateIDF(ctx, idf.Key(), func(i *core.IDF) error {
		tbl := table.Create()
		i.Table = &tbl
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MutateIDF(ctx, idf.Key(), func(i *core.IDF) error {
				next := table.AddRow(*i.Table)
				i.Table = &next
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err = s.GetIDF(ctx, idf.Key())
	require.NoError(t, err)
	assert.Len(t, got.Table.Rows, n)

	list, err := s.ListIDFs(ctx, "Trinity", "Sabinas Project", core.ListOptions{Query: "clo", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.ReplaceDevices(ctx, idf.Key(), []core.Device{{Name: "sw-1"}, {Name: "sw-2"}}))
	devices, err := s.ListDevices(ctx, idf.Key())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "IDF-1", devices[0].IDFCode)

	require.NoError(t, s.DeleteIDF(ctx, idf.Key()))
	_, err = s.GetIDF(ctx, idf.Key())
	assert.ErrorIs(t, err, core.ErrIDFNotFound)
}

func TestStore_Users(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &core.User{Email: "a@example.com", Role: core.RoleAdmin, PasswordHash: "x", Active: true, CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, u))
	dup := *u
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), core.ErrUserExists)

	got, err := s.UserByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.RecordLogin(ctx, u.ID, time.Now()))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	_, err = s.UserByID(ctx, 999)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}
