package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

func wait(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := task.Wait(ctx); errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		t.Fatalf("task %s did not finish", task.Name)
	}
	return task.Err()
}

func TestRunnerReportsOutcome(t *testing.T) {
	r := NewRunner(logger.Nop(), 2, time.Second)
	defer r.Shutdown(context.Background())

	ok := r.Submit("ok", func(ctx context.Context) error { return nil })
	bad := r.Submit("bad", func(ctx context.Context) error { return errors.New("boom") })

	if err := wait(t, ok); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := wait(t, bad); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := NewRunner(logger.Nop(), 1, time.Second)
	defer r.Shutdown(context.Background())

	task := r.Submit("panics", func(ctx context.Context) error { panic("kaboom") })
	err := wait(t, task)
	var pe *panicError
	if !errors.As(err, &pe) || pe.Val != "kaboom" {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestRunnerAppliesTimeout(t *testing.T) {
	r := NewRunner(logger.Nop(), 1, 20*time.Millisecond)
	defer r.Shutdown(context.Background())

	task := r.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := wait(t, task); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	r := NewRunner(logger.Nop(), 2, time.Second)
	defer r.Shutdown(context.Background())

	var running, peak int32
	release := make(chan struct{})
	tasks := make([]*Task, 0, 5)
	for i := 0; i < 5; i++ {
		tasks = append(tasks, r.Submit("bounded", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil
		}))
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for _, task := range tasks {
		if err := wait(t, task); err != nil {
			t.Fatalf("task failed: %v", err)
		}
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, saw %d", peak)
	}
}

func TestRunnerShutdownCancelsAndRejects(t *testing.T) {
	r := NewRunner(logger.Nop(), 1, time.Minute)
	started := make(chan struct{})
	task := r.Submit("blocked", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !errors.Is(task.Err(), context.Canceled) {
		t.Fatalf("expected running task to be cancelled, got %v", task.Err())
	}
	late := r.Submit("late", func(ctx context.Context) error { return nil })
	if err := wait(t, late); !errors.Is(err, ErrShutdown) {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
}

func TestReaperSweep(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	items := contentrepo.NewContentItemRepo(db, log)

	org := testutil.SeedOrganization(t, ctx, db, "acme")
	owner := testutil.SeedUser(t, ctx, db, org.ID, "root", types.RoleAdmin)
	stuck := testutil.SeedContentItem(t, ctx, db, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusProcessing)
	done := testutil.SeedContentItem(t, ctx, db, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusReady)

	r := NewReaper(log, items, 2*time.Hour, "")
	n, err := r.Sweep(ctx)
	if err != nil || n != 0 {
		t.Fatalf("fresh items must not be reaped: n=%d err=%v", n, err)
	}

	r.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	n, err = r.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one stale item: n=%d err=%v", n, err)
	}
	got, _ := items.GetByID(ctx, nil, stuck.ID)
	if got.Status != types.ContentStatusError || got.ErrorMessage != staleMessage {
		t.Fatalf("unexpected stale item state: %s %q", got.Status, got.ErrorMessage)
	}
	untouched, _ := items.GetByID(ctx, nil, done.ID)
	if untouched.Status != types.ContentStatusReady {
		t.Fatalf("ready item must stay ready, got %s", untouched.Status)
	}
}
