package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"planner-api/domain"
)

type armJob struct {
	task domain.Task
	dec  domain.ReminderDecision
	now  time.Time
}

var (
	once            sync.Once
	jobs            chan armJob
	workerCount     int
	jobBuf          int
	armTimeout      time.Duration
	handoffTimeout  time.Duration
	bg              = context.Background()
	globalReminders ReminderScheduler
	globalLog       *log.Logger
	workerWG        sync.WaitGroup
)

// shutdownReminderPool stops worker goroutines and clears shared state. It is intended for tests.
func shutdownReminderPool() {
	if jobs != nil {
		close(jobs)
		jobs = nil
	}

	workerWG.Wait()

	globalReminders = nil
	globalLog = nil
	workerCount = 0
	jobBuf = 0
	armTimeout = 0
	handoffTimeout = 0
	once = sync.Once{}
	workerWG = sync.WaitGroup{}
}

func initReminderPool(reminders ReminderScheduler, logger *log.Logger) {
	once.Do(func() {
		globalReminders = reminders
		if logger == nil {
			panic("Logger is not initialized")
		}
		globalLog = logger

		workerCount = envInt("REMINDER_WORKERS", 8)
		jobBuf = envInt("REMINDER_BUFFER", 1024)
		armTimeout = envDur("REMINDER_TIMEOUT", 30*time.Second)
		handoffTimeout = envDur("REMINDER_HANDOFF_TIMEOUT", 15*time.Millisecond)

		jobs = make(chan armJob, jobBuf)
		for i := 0; i < workerCount; i++ {
			workerWG.Add(1)
			go worker(i, jobs)
		}
		globalLog.Infof("reminder pool started, workers: %d, buffer: %d, timeout: %v, handoff: %v", workerCount, jobBuf, armTimeout, handoffTimeout)
	})
}

func worker(id int, jobCh <-chan armJob) {
	defer workerWG.Done()
	for j := range jobCh {
		ctx, cancel := context.WithTimeout(bg, armTimeout)
		err := globalReminders.Arm(ctx, j.task, j.dec, j.now)
		cancel()

		if err != nil {
			// The task write already succeeded; an arming failure is only
			// ever logged, never surfaced to a view.
			globalLog.Errorf("arm reminder failed, err: %v, task: %s, worker: %d", err, j.task.ID, id)
		}
	}
}

// scheduleReminder hands the arm off to the pool, falling back to an
// inline arm when the buffer is saturated so the reminder is not lost.
func scheduleReminder(task domain.Task, dec domain.ReminderDecision, now time.Time) {
	job := armJob{task: task, dec: dec, now: now}
	if tryEnqueueJob(job) {
		return
	}

	if globalLog != nil {
		globalLog.Warn("reminder pool saturated; arming inline")
	}
	ctx, cancel := context.WithTimeout(bg, armTimeout)
	defer cancel()
	if err := globalReminders.Arm(ctx, task, dec, now); err != nil {
		globalLog.Errorf("arm reminder inline failed, err: %v, task: %s", err, task.ID)
	}
}

func tryEnqueueJob(job armJob) bool {
	if jobs == nil {
		return false
	}

	if ok, closed := trySendNonBlocking(jobs, job); closed {
		return false
	} else if ok {
		return true
	}

	if handoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(handoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(jobs, job, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan armJob, job armJob) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan armJob, job armJob, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- job:
		return true, false
	case <-timer:
		return false, false
	}
}
