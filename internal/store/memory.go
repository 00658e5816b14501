package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/apiserver/types"
)

// MemoryUserRepository keeps users in process memory. It is used by the
// "memory" store driver and by tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]types.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]types.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return types.User{}, ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

// Ping always succeeds.
func (r *MemoryUserRepository) Ping(context.Context) error {
	return nil
}

type memoryTask struct {
	task types.Task
	seq  uint64
}

// MemoryTaskRepository keeps tasks in process memory.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]memoryTask
	seq   uint64
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]memoryTask)}
}

func (r *MemoryTaskRepository) ListByOwner(_ context.Context, userID string) ([]types.Task, error) {
	r.mu.RLock()
	entries := make([]memoryTask, 0)
	for _, entry := range r.tasks {
		if entry.task.UserID == userID {
			entries = append(entries, entry)
		}
	}
	r.mu.RUnlock()

	// Newest first; insertion order breaks timestamp ties.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	tasks := make([]types.Task, 0, len(entries))
	for _, entry := range entries {
		tasks = append(tasks, entry.task)
	}
	return tasks, nil
}

func (r *MemoryTaskRepository) GetByOwner(_ context.Context, id, userID string) (types.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tasks[id]
	if !ok || entry.task.UserID != userID {
		return types.Task{}, ErrNotFound
	}
	return entry.task, nil
}

func (r *MemoryTaskRepository) Create(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.seq++
	r.tasks[task.ID] = memoryTask{task: task, seq: r.seq}
	return task, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[task.ID]
	if !ok || entry.task.UserID != task.UserID {
		return types.Task{}, ErrNotFound
	}
	task.CreatedAt = entry.task.CreatedAt
	task.UpdatedAt = time.Now().UTC()
	entry.task = task
	r.tasks[task.ID] = entry
	return task, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[id]
	if !ok || entry.task.UserID != userID {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
