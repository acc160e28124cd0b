package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"planner-api/bus"
	"planner-api/domain"
	"planner-api/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, auth Authenticator, reminders ReminderScheduler, refresh RefreshBus, sorter *domain.Sorter, logger *log.Logger) {
	e.GET("/api/tasks", listTasks(store, auth, sorter, logger))
	e.POST("/api/tasks", createTask(store, auth, refresh, logger))
	e.PATCH("/api/tasks/:id", updateTask(store, auth, reminders, refresh, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth, reminders, refresh, logger))
	e.GET("/api/settings", getSettings(store, auth))
	e.PUT("/api/settings", putSettings(store, auth, refresh, logger))
	e.GET("/healthz", healthz())

	initReminderPool(reminders, logger)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// taskLocks serializes mutations per task so this instance never has two
// writes for the same task in flight at once. It does not coordinate
// across instances; the store's ETag guard handles that. Entries are
// refcounted and dropped once the last holder releases, so the map stays
// bounded by in-flight mutations rather than growing with every task
// ever touched.
var (
	taskLocksMu sync.Mutex
	taskLocks   = map[string]*taskLock{}
)

type taskLock struct {
	mu   sync.Mutex
	refs int
}

func lockTask(id string) func() {
	taskLocksMu.Lock()
	l := taskLocks[id]
	if l == nil {
		l = &taskLock{}
		taskLocks[id] = l
	}
	l.refs++
	taskLocksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		taskLocksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(taskLocks, id)
		}
		taskLocksMu.Unlock()
	}
}

func writeStoreError(c echo.Context, logger *log.Logger, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.String(http.StatusNotFound, "task not found")
	case errors.Is(err, storage.ErrConflict):
		return c.String(http.StatusConflict, "task was modified concurrently, reload and retry")
	case storage.IsTransient(err):
		return c.String(http.StatusServiceUnavailable, "temporary storage failure, please retry")
	default:
		logger.Errorf("storage: %v", err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}

func writeValidationError(c echo.Context, err error) error {
	return c.String(http.StatusBadRequest, err.Error())
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func listTasks(store Store, auth Authenticator, sorter *domain.Sorter, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		now := time.Now()
		metrics := newListRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		ownerID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		key := domain.SortKey(c.QueryParam("sort"))
		if key == "" {
			key = domain.SortByDueDate
		}
		if !key.Valid() {
			metrics.SetErrorStage("invalid_sort_key")
			err = c.String(http.StatusBadRequest, "invalid sort key")
			return err
		}
		metrics.SetSortKey(key)

		filter := storage.ListFilter{}
		if raw := c.QueryParam("dueDate"); raw != "" {
			day, parseErr := time.ParseInLocation("2006-01-02", raw, now.Location())
			if parseErr != nil {
				metrics.SetErrorStage("invalid_due_date")
				err = c.String(http.StatusBadRequest, "invalid due date")
				return err
			}
			filter.DueOn = &day
			metrics.SetFilterProvided(true)
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.ListTasks(ctx, ownerID, filter)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = writeStoreError(c, logger, fetchErr)
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		sorted := sorter.Sort(tasks, key)
		views := make([]taskView, len(sorted))
		for i, task := range sorted {
			views[i] = taskView{
				Task:     task,
				TimeLeft: domain.TimeRemaining(task.DueTime, now).Label(),
			}
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: views})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store Store, auth Authenticator, refresh RefreshBus, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		now := time.Now()
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var nt domain.NewTask
		if err := decodeBody(c, &nt); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if nt.Priority == "" {
			nt.Priority = domain.DefaultPriority
		}
		if err := nt.Validate(now); err != nil {
			return writeValidationError(c, err)
		}

		task, err := store.CreateTask(ctx, ownerID, nt)
		if err != nil {
			return writeStoreError(c, logger, err)
		}

		dec := decideWithPrefs(ctx, store, task, now, logger)
		if dec.Schedule {
			scheduleReminder(task, dec, now)
		}

		refresh.Publish(ctx, bus.Event{Type: bus.TaskCreated, TaskID: task.ID, OwnerID: ownerID})
		return c.JSON(http.StatusCreated, newTaskResponse(task, dec))
	}
}

func updateTask(store Store, auth Authenticator, reminders ReminderScheduler, refresh RefreshBus, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		now := time.Now()
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")
		unlock := lockTask(id)
		defer unlock()

		current, err := store.GetTask(ctx, ownerID, id)
		if err != nil {
			return writeStoreError(c, logger, err)
		}

		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := patch.Validate(current, now); err != nil {
			return writeValidationError(c, err)
		}

		updated, err := store.UpdateTask(ctx, ownerID, id, patch)
		if err != nil {
			return writeStoreError(c, logger, err)
		}

		// Re-evaluate the reminder against the edited task. Arming bumps
		// the generation, superseding whatever was queued before; when the
		// policy says no reminder, the old one is cancelled outright.
		dec := decideWithPrefs(ctx, store, updated, now, logger)
		if dec.Schedule {
			scheduleReminder(updated, dec, now)
		} else if err := reminders.Cancel(ctx, ownerID, id); err != nil {
			logger.Errorf("cancel reminder for task %s: %v", id, err)
		}

		refresh.Publish(ctx, bus.Event{Type: bus.TaskUpdated, TaskID: id, OwnerID: ownerID})
		return c.JSON(http.StatusOK, newTaskResponse(updated, dec))
	}
}

func deleteTask(store Store, auth Authenticator, reminders ReminderScheduler, refresh RefreshBus, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")
		unlock := lockTask(id)
		defer unlock()

		if err := store.DeleteTask(ctx, ownerID, id); err != nil {
			return writeStoreError(c, logger, err)
		}
		if err := reminders.Cancel(ctx, ownerID, id); err != nil {
			logger.Errorf("cancel reminder for task %s: %v", id, err)
		}

		refresh.Publish(ctx, bus.Event{Type: bus.TaskDeleted, TaskID: id, OwnerID: ownerID})
		return c.NoContent(http.StatusNoContent)
	}
}

func getSettings(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		settings, err := store.FetchSettings(ctx, ownerID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
}

func putSettings(store Store, auth Authenticator, refresh RefreshBus, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var settings domain.Settings
		if err := decodeBody(c, &settings); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.SaveSettings(ctx, ownerID, settings); err != nil {
			return writeStoreError(c, logger, err)
		}
		// Settings steer the reminder policy, so other instances must drop
		// their cached copy the same way they do for task mutations.
		refresh.Publish(ctx, bus.Event{Type: bus.SettingsUpdated, OwnerID: ownerID})
		return c.JSON(http.StatusOK, settings)
	}
}

// decideWithPrefs fetches the owner's preferences and runs the reminder
// policy. A preferences read failure falls back to defaults: the reminder
// is a best effort side channel and must never fail the task write.
func decideWithPrefs(ctx context.Context, store Store, task domain.Task, now time.Time, logger *log.Logger) domain.ReminderDecision {
	prefs, err := store.FetchSettings(ctx, task.OwnerID)
	if err != nil {
		logger.Warnf("fetch settings for reminder decision: %v", err)
		prefs = domain.DefaultSettings()
	}
	return domain.DecideReminder(task, prefs, now)
}
