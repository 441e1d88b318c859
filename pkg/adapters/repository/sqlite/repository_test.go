package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) (*LinkRepository, *UserRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewLinkRepository(db), NewUserRepository(db)
}

func seedUser(t *testing.T, users *UserRepository, id, email string) domain.User {
	t.Helper()
	user := domain.NewUser(domain.UserID(id), domain.Email(email), nil, t0)
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	first, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer second.Close()
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	// Each statement now runs on a freshly opened connection.
	db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}

	owner := domain.UserID("nobody0001")
	err = NewLinkRepository(db).Create(ctx, domain.NewLink("fk0001", "https://x.example", &owner, t0))
	assert.Error(t, err)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "data.db?_pragma=foreign_keys(1)", withForeignKeys("data.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", withForeignKeys("file:x?mode=memory"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(0)", withForeignKeys("a.db?_pragma=foreign_keys(0)"))
}

func TestLinkRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	links, users := openTestDB(t)
	owner := seedUser(t, users, "owner00001", "owner@example.com")

	created := domain.NewLink("abc123", "https://example.com/a", &owner.ID, t0.Add(123456*time.Microsecond))
	require.NoError(t, links.Create(ctx, created))

	got, err := links.GetByID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	require.NotNil(t, got.UserID)
	assert.Equal(t, owner.ID, *got.UserID)

	anon := domain.NewLink("anon01", "https://example.com/b", nil, t0)
	require.NoError(t, links.Create(ctx, anon))
	got, err = links.GetByID(ctx, "anon01")
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
}

func TestLinkRepositoryCreateDetectsTakenID(t *testing.T) {
	ctx := context.Background()
	links, _ := openTestDB(t)

	require.NoError(t, links.Create(ctx, domain.NewLink("dup001", "https://one.example", nil, t0)))
	err := links.Create(ctx, domain.NewLink("dup001", "https://two.example", nil, t0))
	assert.ErrorIs(t, err, domain.ErrLinkIDTaken)

	got, err := links.GetByID(ctx, "dup001")
	require.NoError(t, err)
	assert.Equal(t, domain.URL("https://one.example"), got.Target)
}

func TestLinkRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	links, _ := openTestDB(t)

	_, err := links.GetByID(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = links.IncrementClicks(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	assert.ErrorIs(t, links.Delete(ctx, "nope00"), domain.ErrLinkNotFound)
	assert.ErrorIs(t, links.Update(ctx, domain.NewLink("nope00", "https://x.example", nil, t0)), domain.ErrLinkNotFound)
}

func TestLinkRepositoryIncrementClicks(t *testing.T) {
	ctx := context.Background()
	links, _ := openTestDB(t)
	require.NoError(t, links.Create(ctx, domain.NewLink("clk001", "https://example.com", nil, t0)))

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := links.IncrementClicks(ctx, "clk001")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := links.IncrementClicks(ctx, "clk001")
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), got.Clicks)
}

func TestLinkRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	links, _ := openTestDB(t)

	link := domain.NewLink("upd001", "https://old.example", nil, t0)
	require.NoError(t, links.Create(ctx, link))

	link.Target = "https://new.example"
	link.Clicks = 7
	require.NoError(t, links.Update(ctx, link))

	got, err := links.GetByID(ctx, "upd001")
	require.NoError(t, err)
	assert.Equal(t, link, got)

	require.NoError(t, links.Delete(ctx, "upd001"))
	_, err = links.GetByID(ctx, "upd001")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepositoryListing(t *testing.T) {
	ctx := context.Background()
	links, users := openTestDB(t)
	ada := seedUser(t, users, "ada0000001", "ada@example.com")
	bob := seedUser(t, users, "bob0000001", "bob@example.com")

	require.NoError(t, links.Create(ctx, domain.NewLink("ada001", "https://a.example/1", &ada.ID, t0)))
	require.NoError(t, links.Create(ctx, domain.NewLink("ada002", "https://a.example/2", &ada.ID, t0.Add(time.Hour))))
	require.NoError(t, links.Create(ctx, domain.NewLink("bob001", "https://b.example/1", &bob.ID, t0.Add(30*time.Minute))))
	require.NoError(t, links.Create(ctx, domain.NewLink("anon01", "https://c.example/1", nil, t0.Add(2*time.Hour))))

	mine, err := links.ListByUser(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, domain.LinkID("ada002"), mine[0].ID)
	assert.Equal(t, domain.LinkID("ada001"), mine[1].ID)

	none, err := links.ListByUser(ctx, "nobody0001")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := links.List(ctx)
	require.NoError(t, err)
	ids := make([]domain.LinkID, 0, len(all))
	for _, l := range all {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []domain.LinkID{"anon01", "ada002", "bob001", "ada001"}, ids)
}

func TestLinkRepositoryDeleteCreatedBefore(t *testing.T) {
	ctx := context.Background()
	links, _ := openTestDB(t)

	cutoff := t0
	require.NoError(t, links.Create(ctx, domain.NewLink("old001", "https://x.example", nil, cutoff.Add(-time.Hour))))
	require.NoError(t, links.Create(ctx, domain.NewLink("edge01", "https://x.example", nil, cutoff)))
	require.NoError(t, links.Create(ctx, domain.NewLink("new001", "https://x.example", nil, cutoff.Add(time.Millisecond))))

	n, err := links.DeleteCreatedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = links.GetByID(ctx, "new001")
	assert.NoError(t, err)

	n, err = links.DeleteCreatedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeletingUserOrphansLinks(t *testing.T) {
	ctx := context.Background()
	links, users := openTestDB(t)
	owner := seedUser(t, users, "gone000001", "gone@example.com")
	require.NoError(t, links.Create(ctx, domain.NewLink("orph01", "https://x.example", &owner.ID, t0)))

	_, err := users.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, owner.ID.String())
	require.NoError(t, err)

	got, err := links.GetByID(ctx, "orph01")
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	_, users := openTestDB(t)

	name := "Ada"
	ada := domain.NewUser("ada0000001", "ada@example.com", &name, t0)
	require.NoError(t, users.Create(ctx, ada))

	byID, err := users.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada, byID)

	byEmail, err := users.GetByEmail(ctx, ada.Email)
	require.NoError(t, err)
	assert.Equal(t, ada, byEmail)

	_, err = users.GetByID(ctx, "missing001")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = users.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepositoryCreateConflicts(t *testing.T) {
	ctx := context.Background()
	_, users := openTestDB(t)
	seedUser(t, users, "ada0000001", "ada@example.com")

	err := users.Create(ctx, domain.NewUser("other00001", "ada@example.com", nil, t0))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	err = users.Create(ctx, domain.NewUser("ada0000001", "someone@example.com", nil, t0))
	assert.ErrorIs(t, err, domain.ErrUserIDTaken)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	_, users := openTestDB(t)
	user := seedUser(t, users, "ada0000001", "ada@example.com")

	renamed, err := user.Renamed("Ada Lovelace")
	require.NoError(t, err)
	require.NoError(t, users.Update(ctx, renamed))

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ada Lovelace", *got.Name)

	cleared, err := got.Renamed("  ")
	require.NoError(t, err)
	require.NoError(t, users.Update(ctx, cleared))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Name)

	assert.ErrorIs(t, users.Update(ctx, domain.NewUser("missing001", "m@example.com", nil, t0)), domain.ErrUserNotFound)
}
