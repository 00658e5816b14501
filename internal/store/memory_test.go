package store

import (
	"context"
	"errors"
	"testing"

	"github.com/tasktrack/apiserver/types"
)

func TestMemoryUserRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	created, err := repo.Create(ctx, types.User{Email: "alice@x.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be set: %+v", created)
	}

	if _, err := repo.Create(ctx, types.User{Email: "alice@x.com", PasswordHash: "other"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("second create: got %v want ErrDuplicateEmail", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("get by email: got id %s want %s", byEmail.ID, created.ID)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: got %v want ErrNotFound", err)
	}
}

func TestMemoryTaskRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()

	first, err := repo.Create(ctx, types.Task{Title: "first", Priority: types.PriorityLow, Status: types.StatusPending, UserID: "alice"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := repo.Create(ctx, types.Task{Title: "second", Priority: types.PriorityHigh, Status: types.StatusPending, UserID: "alice"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := repo.Create(ctx, types.Task{Title: "bob's", Priority: types.PriorityMedium, Status: types.StatusPending, UserID: "bob"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	tasks, err := repo.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("list: got %d tasks want 2", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("list order: got [%s %s] want [%s %s]", tasks[0].Title, tasks[1].Title, second.Title, first.Title)
	}

	if _, err := repo.GetByOwner(ctx, first.ID, "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: got %v want ErrNotFound", err)
	}

	foreign := first
	foreign.UserID = "bob"
	foreign.Title = "hijacked"
	if _, err := repo.Update(ctx, foreign); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: got %v want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, first.ID, "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: got %v want ErrNotFound", err)
	}

	stored, err := repo.GetByOwner(ctx, first.ID, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "first" {
		t.Fatalf("task was modified by another owner: %+v", stored)
	}

	if err := repo.Delete(ctx, first.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByOwner(ctx, first.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v want ErrNotFound", err)
	}
}
