package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestRepo(t *testing.T) *SQLRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLRepo(db)
}

var testNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func seedUser(t *testing.T, repo *SQLRepo, id string) *User {
	t.Helper()
	u := &User{ID: id, Email: id + "@example.com", Name: "User " + id, CreatedAt: testNow, UpdatedAt: testNow}
	if _, err := repo.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func seedEvent(t *testing.T, repo *SQLRepo, hostID string, capacity int) *Event {
	t.Helper()
	ctx := context.Background()
	g, err := repo.CreateGroup(ctx, &Group{Name: "Futbol " + hostID, CreatedAt: testNow})
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	ev, err := repo.CreateEvent(ctx, &Event{
		GroupID:   g.ID,
		HostID:    hostID,
		Name:      "Pichanga",
		StartsAt:  testNow.Add(48 * time.Hour),
		Location:  "Parque O'Higgins",
		Capacity:  capacity,
		Price:     2000,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return ev
}

func TestUpsertUserFirstLogin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &User{ID: "g-1", Email: "a@example.com", Name: "Ana", CreatedAt: testNow, UpdatedAt: testNow}
	first, err := repo.UpsertUser(ctx, u)
	if err != nil || !first {
		t.Fatalf("first UpsertUser() = %v, %v; want true, nil", first, err)
	}

	name := "Ana María"
	if _, err := repo.UpdateProfile(ctx, "g-1", ProfileUpdate{Name: &name}, testNow.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	again, err := repo.UpsertUser(ctx, &User{ID: "g-1", Name: "Ana", CreatedAt: testNow, UpdatedAt: testNow})
	if err != nil || again {
		t.Fatalf("second UpsertUser() = %v, %v; want false, nil", again, err)
	}

	got, err := repo.GetUser(ctx, "g-1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Name != name {
		t.Errorf("Name = %q, want %q (later logins keep edits)", got.Name, name)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
	}

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfileFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	phone, region := "+56912345678", "Valparaíso"
	got, err := repo.UpdateProfile(ctx, "u1", ProfileUpdate{Phone: &phone, Region: &region}, testNow)
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.Phone != phone || got.Region != region || got.Commune != "" {
		t.Errorf("UpdateProfile() = %+v", got)
	}

	if _, err := repo.UpdateProfile(ctx, "nobody", ProfileUpdate{Phone: &phone}, testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProfile(nobody) error = %v, want ErrNotFound", err)
	}

	if err := repo.UpdateAvatar(ctx, "u1", "/static/avatars/u1_x.png", testNow); err != nil {
		t.Fatalf("UpdateAvatar() error = %v", err)
	}
	u, _ := repo.GetUser(ctx, "u1")
	if u.AvatarURL != "/static/avatars/u1_x.png" {
		t.Errorf("AvatarURL = %q", u.AvatarURL)
	}
}

func TestCreateGroupDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateGroup(ctx, &Group{Name: "Tenis", CreatedAt: testNow}); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if _, err := repo.CreateGroup(ctx, &Group{Name: "Tenis", CreatedAt: testNow}); !errors.Is(err, ErrDuplicateGroup) {
		t.Fatalf("duplicate CreateGroup() error = %v, want ErrDuplicateGroup", err)
	}
	groups, err := repo.ListGroups(ctx)
	if err != nil || len(groups) != 1 {
		t.Fatalf("ListGroups() = %d groups, %v", len(groups), err)
	}
}
