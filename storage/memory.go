package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"planner-api/domain"
)

// Memory is an in-process implementation of the task store. It backs
// tests and local development; semantics mirror the table-backed Storage,
// including the error taxonomy.
type Memory struct {
	mu       sync.Mutex
	tasks    map[string]map[string]domain.Task // ownerID -> taskID -> task
	order    map[string][]string               // insertion order per owner
	settings map[string]domain.Settings
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[string]map[string]domain.Task),
		order:    make(map[string][]string),
		settings: make(map[string]domain.Settings),
	}
}

func (m *Memory) CreateTask(ctx context.Context, ownerID string, nt domain.NewTask) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		StartTime:   nt.StartTime,
		DueTime:     nt.DueTime,
	}
	if m.tasks[ownerID] == nil {
		m.tasks[ownerID] = make(map[string]domain.Task)
	}
	m.tasks[ownerID][task.ID] = task
	m.order[ownerID] = append(m.order[ownerID], task.ID)
	return task, nil
}

func (m *Memory) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[ownerID][id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

func (m *Memory) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.tasks[ownerID][id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	updated := patch.Apply(current)
	m.tasks[ownerID][id] = updated
	return updated, nil
}

func (m *Memory) DeleteTask(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[ownerID][id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks[ownerID], id)
	ids := m.order[ownerID]
	for i, existing := range ids {
		if existing == id {
			m.order[ownerID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// ListTasks returns the owner's tasks in creation order so callers get a
// deterministic base ordering to sort from.
func (m *Memory) ListTasks(ctx context.Context, ownerID string, f ListFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := []domain.Task{}
	for _, id := range m.order[ownerID] {
		task := m.tasks[ownerID][id]
		if f.DueOn != nil {
			y1, m1, d1 := task.DueTime.Date()
			y2, m2, d2 := f.DueOn.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (m *Memory) FetchSettings(ctx context.Context, ownerID string) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings, ok := m.settings[ownerID]
	if !ok {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

func (m *Memory) SaveSettings(ctx context.Context, ownerID string, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[ownerID] = settings
	return nil
}
