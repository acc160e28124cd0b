// Package reminder arms task reminders. The engine only decides whether
// and when a reminder fires; actual delivery to the user's device happens
// downstream of the reminder queue and is out of scope here.
package reminder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"planner-api/domain"
)

// graceTTL keeps a queued reminder alive past its fire instant so a slow
// consumer still sees it.
const graceTTL = 24 * time.Hour

// maxVisibilityDelay is the Azure Queue Storage cap on message visibility
// timeout. A reminder further out than this is parked for one hop at a
// time: the consumer surfaces it early, sees FireAt still in the future,
// and re-enqueues instead of delivering.
const maxVisibilityDelay = 7 * 24 * time.Hour

type queue interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Message is the payload a reminder consumer dequeues at fire time.
type Message struct {
	OwnerID    string    `json:"ownerId"`
	TaskID     string    `json:"taskId"`
	Generation int64     `json:"generation"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	FireAt     time.Time `json:"fireAt"`
}

// NewQueue creates the reminder queue client from a connection string.
func NewQueue(connStr, name string) (*azqueue.QueueClient, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	return azqueue.NewQueueClientFromConnectionString(connStr, name, &opts)
}

// Scheduler arms reminders as delayed queue messages. Each task carries a
// generation number in Redis; re-arming bumps the generation, so an older
// message that eventually surfaces is recognized as superseded and dropped
// instead of firing a stale reminder.
type Scheduler struct {
	queue  queue
	gens   *GenerationStore
	logger *log.Logger
}

// NewScheduler wires the queue and the generation store together.
func NewScheduler(q queue, gens *GenerationStore, logger *log.Logger) *Scheduler {
	return &Scheduler{queue: q, gens: gens, logger: logger}
}

// Arm schedules the decided reminder, superseding any reminder previously
// armed for the task. The decision must have Schedule set.
func (s *Scheduler) Arm(ctx context.Context, task domain.Task, dec domain.ReminderDecision, now time.Time) error {
	gen := nextGeneration()
	// The generation key outlives the whole wait; only the queue hop below
	// is subject to the visibility cap.
	if err := s.gens.Put(ctx, task.OwnerID, task.ID, gen, dec.FireAt.Sub(now)+graceTTL); err != nil {
		return err
	}

	msg := Message{
		OwnerID:    task.OwnerID,
		TaskID:     task.ID,
		Generation: gen,
		Title:      dec.Title,
		Body:       dec.Body,
		FireAt:     dec.FireAt,
	}
	if err := s.park(ctx, msg, now); err != nil {
		return err
	}
	s.logger.WithFields(log.Fields{
		"task":    task.ID,
		"fire_at": dec.FireAt,
	}).Debug("reminder armed")
	return nil
}

// park enqueues the message delayed until its fire instant, or for one
// capped visibility hop when the fire instant is further out than the
// queue service allows.
func (s *Scheduler) park(ctx context.Context, msg Message, now time.Time) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wait := msg.FireAt.Sub(now)
	if wait < 0 {
		wait = 0
	}
	if wait > maxVisibilityDelay {
		wait = maxVisibilityDelay
	}
	delay := int32(wait / time.Second)
	live := int32((wait + graceTTL) / time.Second)
	opts := &azqueue.EnqueueMessageOptions{
		VisibilityTimeout: &delay,
		TimeToLive:        &live,
	}
	_, err = s.queue.EnqueueMessage(ctx, string(data), opts)
	return err
}

// Repark re-enqueues a message that surfaced before its fire instant, so
// a far-out reminder waits out another visibility hop. Consumers call
// this instead of delivering when FireAt is still in the future.
func (s *Scheduler) Repark(ctx context.Context, msg Message, now time.Time) error {
	return s.park(ctx, msg, now)
}

// Cancel drops the task's current generation so any queued reminder for it
// is discarded at fire time. Missing generations are fine; cancelling an
// unarmed task is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, ownerID, taskID string) error {
	return s.gens.Delete(ctx, ownerID, taskID)
}

// Deliverable reports whether a dequeued message still represents the
// task's current reminder. Consumers call this at fire time and drop
// superseded or cancelled messages.
func (s *Scheduler) Deliverable(ctx context.Context, msg Message) (bool, error) {
	current, ok, err := s.gens.Get(ctx, msg.OwnerID, msg.TaskID)
	if err != nil {
		return false, err
	}
	return ok && current == msg.Generation, nil
}
