package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"planner-api/domain"
)

// ListFilter narrows a task listing. DueOn restricts results to tasks due
// on that calendar day, which is how the dashboard drills into a date.
type ListFilter struct {
	DueOn *time.Time
}

// Storage persists tasks and settings in Azure table storage partitioned
// by owner. It is the single source of truth for every persisted field,
// including completion state.
type Storage struct {
	taskTable     *aztables.Client
	settingsTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, settingsTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		taskTable:     svc.NewClient(tasksTable),
		settingsTable: svc.NewClient(settingsTable),
	}, nil
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Priority    string `json:"Priority"`
	StartTime   string `json:"StartTime"`
	DueTime     string `json:"DueTime"`
	DueDate     string `json:"DueDate"`
	Completed   bool   `json:"Completed"`
}

func entityFromTask(t domain.Task) taskEntity {
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: t.OwnerID, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		StartTime:   t.StartTime.Format(time.RFC3339),
		DueTime:     t.DueTime.Format(time.RFC3339),
		DueDate:     t.DueTime.Format("2006-01-02"),
		Completed:   t.Completed,
	}
}

func (e taskEntity) task() (domain.Task, error) {
	start, err := time.Parse(time.RFC3339, e.StartTime)
	if err != nil {
		return domain.Task{}, err
	}
	due, err := time.Parse(time.RFC3339, e.DueTime)
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:          e.RowKey,
		OwnerID:     e.PartitionKey,
		Title:       e.Title,
		Description: e.Description,
		Priority:    domain.Priority(e.Priority),
		StartTime:   start,
		DueTime:     due,
		Completed:   e.Completed,
	}, nil
}

// CreateTask persists a validated new task and assigns its identifier.
func (s *Storage) CreateTask(ctx context.Context, ownerID string, nt domain.NewTask) (domain.Task, error) {
	task := domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		StartTime:   nt.StartTime,
		DueTime:     nt.DueTime,
	}
	data, err := json.Marshal(entityFromTask(task))
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, data, nil); err != nil {
		return domain.Task{}, mapError(err)
	}
	return task, nil
}

// GetTask fetches a single task from the owner's partition.
func (s *Storage) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, ownerID, id, nil)
	if err != nil {
		return domain.Task{}, mapError(err)
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return ent.task()
}

// UpdateTask folds a patch into the stored task. The write is guarded by
// the entity's ETag so a concurrent edit surfaces as ErrConflict instead
// of silently clobbering it.
func (s *Storage) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, ownerID, id, nil)
	if err != nil {
		return domain.Task{}, mapError(err)
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	current, err := ent.task()
	if err != nil {
		return domain.Task{}, err
	}
	updated := patch.Apply(current)
	data, err := json.Marshal(entityFromTask(updated))
	if err != nil {
		return domain.Task{}, err
	}
	etag := resp.ETag
	updateOpts := &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	}
	if _, err := s.taskTable.UpdateEntity(ctx, data, updateOpts); err != nil {
		return domain.Task{}, mapError(err)
	}
	return updated, nil
}

// DeleteTask removes a task permanently. Deletion is irreversible and is
// never retried here.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, ownerID, id, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// ListTasks retrieves the owner's tasks, optionally narrowed to one due date.
func (s *Storage) ListTasks(ctx context.Context, ownerID string, f ListFilter) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + ownerID + "'"
	if f.DueOn != nil {
		filter += " and DueDate eq '" + f.DueOn.Format("2006-01-02") + "'"
	}
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			task, err := ent.task()
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

type settingsEntity struct {
	aztables.Entity
	NotificationsEnabled bool `json:"NotificationsEnabled"`
}

// FetchSettings reads the owner's preferences, falling back to defaults
// when nothing was ever saved.
func (s *Storage) FetchSettings(ctx context.Context, ownerID string) (domain.Settings, error) {
	resp, err := s.settingsTable.GetEntity(ctx, ownerID, ownerID, nil)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrNotFound) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, mapped
	}
	var ent settingsEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{NotificationsEnabled: ent.NotificationsEnabled}, nil
}

// SaveSettings upserts the owner's preferences.
func (s *Storage) SaveSettings(ctx context.Context, ownerID string, settings domain.Settings) error {
	ent := settingsEntity{
		Entity:               aztables.Entity{PartitionKey: ownerID, RowKey: ownerID},
		NotificationsEnabled: settings.NotificationsEnabled,
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := s.settingsTable.UpsertEntity(ctx, data, nil); err != nil {
		return mapError(err)
	}
	return nil
}
