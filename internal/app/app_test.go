package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rentfolio/pkg/domain"
	"rentfolio/pkg/store"
)

// fakeObjects records puts so tests can assert nothing reached the media
// host on rejection.
type fakeObjects struct {
	puts []string
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	_, _ = io.Copy(io.Discard, r)
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeObjects) ObjectURL(key string) string {
	return "http://media.test/rentfolio/" + key
}

func newTestApp(t *testing.T) (*App, store.Store, *fakeObjects) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	st, err := store.NewGormStoreFromDB(db)
	require.NoError(t, err)
	objects := &fakeObjects{}
	a, err := New(Config{Store: st, Objects: objects})
	require.NoError(t, err)
	return a, st, objects
}

func testUser(t *testing.T, st store.Store, id, email string) domain.User {
	t.Helper()
	u := domain.User{ID: id, ExternalID: "ext-" + id, Email: email, CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateUser(u))
	return u
}

func loftInput() PropertyInput {
	return PropertyInput{
		Title:       "Loft",
		Description: "Bright corner loft",
		Price:       1500,
		Bedrooms:    2,
		Bathrooms:   1,
		Address:     "1 Main St",
		City:        "Springfield",
		State:       "IL",
		ZipCode:     "62704",
		Images:      []string{"https://cdn/img1.jpg"},
		Documents:   []string{"https://cdn/doc1.pdf"},
	}
}
