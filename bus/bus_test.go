package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func TestRefreshDispatchIsSynchronous(t *testing.T) {
	r := NewRefresh()
	var got []Event
	r.Subscribe(func(ev Event) { got = append(got, ev) })
	r.Subscribe(func(ev Event) { got = append(got, ev) })

	r.Publish(Event{Type: TaskCreated, TaskID: "t1", OwnerID: "u1"})

	// Both handlers must have run before Publish returned.
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Type != TaskCreated || got[0].TaskID != "t1" {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestRefreshNoSubscribers(t *testing.T) {
	NewRefresh().Publish(Event{Type: TaskDeleted, TaskID: "t1"})
}

func TestFanoutBridgesInstances(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rc.Close()
	logger := log.New()

	localA := NewRefresh()
	localB := NewRefresh()
	fanA := NewFanout(localA, rc, "refresh", logger)
	fanB := NewFanout(localB, rc, "refresh", logger)

	var mu sync.Mutex
	var seenA, seenB []Event
	localA.Subscribe(func(ev Event) { mu.Lock(); seenA = append(seenA, ev); mu.Unlock() })
	localB.Subscribe(func(ev Event) { mu.Lock(); seenB = append(seenB, ev); mu.Unlock() })

	ctx, cancel := context.WithCancel(context.Background())
	doneA := make(chan struct{})
	doneB := make(chan struct{})
	go func() { fanA.Listen(ctx); close(doneA) }()
	go func() { fanB.Listen(ctx); close(doneB) }()
	// wait for subscriptions to start
	time.Sleep(50 * time.Millisecond)

	fanA.Publish(context.Background(), Event{Type: TaskUpdated, TaskID: "t1", OwnerID: "u1"})
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(seenA) != 1 {
		t.Fatalf("publisher instance expected exactly 1 local delivery, got %d", len(seenA))
	}
	if len(seenB) != 1 {
		t.Fatalf("remote instance expected 1 delivery, got %d", len(seenB))
	}
	if seenB[0].TaskID != "t1" || seenB[0].OwnerID != "u1" {
		t.Fatalf("unexpected remote event %+v", seenB[0])
	}

	cancel()
	select {
	case <-doneA:
	case <-time.After(time.Second):
		t.Fatal("Listen did not exit")
	}
	select {
	case <-doneB:
	case <-time.After(time.Second):
		t.Fatal("Listen did not exit")
	}
}
