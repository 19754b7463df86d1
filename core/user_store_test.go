package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeUserRepository is an in-memory UserRepository with call counters, so
// tests can observe whether a read was served from the cache or the store.
type fakeUserRepository struct {
	mu        sync.Mutex
	nextID    int64
	byEmail   map[string]User
	findCalls int
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byEmail: map[string]User{}}
}

func (r *fakeUserRepository) Create(_ context.Context, nu NewUser) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[nu.Email]; exists {
		return User{}, ErrAlreadyExists
	}
	r.nextID++
	u := User{ID: r.nextID, Email: nu.Email, HashedPassword: nu.HashedPassword}
	r.byEmail[nu.Email] = u
	return u, nil
}

func (r *fakeUserRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	u, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepository) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls
}

func TestCreateUserPopulatesByIDSlotOnly(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, err := NewUserFromCredentials("a@x.com", "secret1")
	if err != nil {
		t.Fatalf("NewUserFromCredentials error: %v", err)
	}
	u, err := store.CreateUser(ctx, nu)
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected a store-assigned id")
	}

	if !mr.Exists("user:1") {
		t.Fatal("expected by-id cache slot to be populated on create")
	}
	if mr.Exists("user_email:a@x.com") {
		t.Fatal("by-email slot must not be populated on create")
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, _ := NewUserFromCredentials("a@x.com", "secret1")
	if _, err := store.CreateUser(ctx, nu); err != nil {
		t.Fatalf("first CreateUser error: %v", err)
	}
	if _, err := store.CreateUser(ctx, nu); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestConcurrentCreateSameEmail(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, _ := NewUserFromCredentials("race@x.com", "secret1")

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, nu)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != writers-1 {
		t.Fatalf("expected exactly one success, got %d successes and %d duplicates", successes, duplicates)
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("store must hold exactly one row for the email, got %d", len(repo.byEmail))
	}
}

func TestGetUserByEmailCacheAside(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, _ := NewUserFromCredentials("a@x.com", "secret1")
	created, err := store.CreateUser(ctx, nu)
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	// First read misses the cache (create populated only the by-id slot)
	// and falls through to the store.
	got, err := store.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got != created {
		t.Fatalf("mismatch: got %+v want %+v", got, created)
	}
	if repo.calls() != 1 {
		t.Fatalf("expected 1 store call, got %d", repo.calls())
	}
	if !mr.Exists("user_email:a@x.com") {
		t.Fatal("expected by-email slot to be repopulated after store fallback")
	}

	// Second read within the TTL window is served from the cache.
	if _, err := store.GetUserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if repo.calls() != 1 {
		t.Fatalf("expected cache hit, store was queried %d times", repo.calls())
	}

	// After TTL expiry the store is consulted again and the slot refreshed.
	mr.FastForward(time.Hour + time.Second)
	if _, err := store.GetUserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if repo.calls() != 2 {
		t.Fatalf("expected store fallback after TTL expiry, got %d calls", repo.calls())
	}
	if _, err := store.GetUserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if repo.calls() != 2 {
		t.Fatalf("expected cache hit within new TTL window, got %d calls", repo.calls())
	}
}

func TestGetUserByEmailNotFoundNotCached(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)

	_, err := store.GetUserByEmail(context.Background(), "missing@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("user_email:missing@x.com") {
		t.Fatal("negative results must not be cached")
	}
}

func TestGetUserByEmailCorruptCacheFallsThrough(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, _ := NewUserFromCredentials("a@x.com", "secret1")
	created, err := store.CreateUser(ctx, nu)
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	mr.Set("user_email:a@x.com", "{corrupt")

	got, err := store.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("expected corrupt cache entry to fall through, got %v", err)
	}
	if got != created {
		t.Fatalf("mismatch: got %+v want %+v", got, created)
	}

	// The bad entry was overwritten with a valid payload.
	if _, err := store.GetUserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if repo.calls() != 1 {
		t.Fatalf("expected repaired entry to serve the second read, got %d store calls", repo.calls())
	}
}

func TestCacheDownDoesNotTakeReadsDown(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)
	ctx := context.Background()

	nu, _ := NewUserFromCredentials("a@x.com", "secret1")
	if _, err := store.CreateUser(ctx, nu); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	mr.Close()

	got, err := store.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("expected store fallback with cache down, got %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreateUserSurvivesCacheWriteFailure(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	repo := newFakeUserRepository()
	store := NewUserStore(repo, cache)

	mr.Close()

	nu, _ := NewUserFromCredentials("a@x.com", "secret1")
	u, err := store.CreateUser(context.Background(), nu)
	if err != nil {
		t.Fatalf("create must succeed even when the cache write fails: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected a store-assigned id")
	}
}
