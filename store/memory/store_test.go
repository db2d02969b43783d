package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/record"
	"github.com/scum-dog/identikit-server-sub001/store/memory"
)

func TestCreate_ReturnsRecord(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, err := s.Create(ctx, "user_1", []byte(`{"name":"a"}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == "" {
		t.Fatal("expected non-empty record ID")
	}
	if r.OwnerID != "user_1" {
		t.Errorf("OwnerID = %q, want %q", r.OwnerID, "user_1")
	}
	if string(r.Data) != `{"name":"a"}` {
		t.Errorf("Data = %s, want %s", r.Data, `{"name":"a"}`)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("Get ID = %q, want %q", got.ID, r.ID)
	}
}

func TestUpdateIfEditable_Succeeds(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{"v":1}`))

	updated, err := s.UpdateIfEditable(ctx, r.ID, "user_1", []byte(`{"v":2}`))
	if err != nil {
		t.Fatalf("UpdateIfEditable: %v", err)
	}
	if string(updated.Data) != `{"v":2}` {
		t.Errorf("Data = %s, want %s", updated.Data, `{"v":2}`)
	}
}

func TestUpdateIfEditable_MissingRecord(t *testing.T) {
	s := memory.New()

	_, err := s.UpdateIfEditable(context.Background(), "rec_missing", "user_1", []byte(`{}`))
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateIfEditable_LockedRecord(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{}`))
	if err := s.SetLocked(r.ID, true); err != nil {
		t.Fatalf("SetLocked: %v", err)
	}

	_, err := s.UpdateIfEditable(ctx, r.ID, "user_1", []byte(`{"v":2}`))
	if !errors.Is(err, record.ErrEditNotPermitted) {
		t.Fatalf("expected ErrEditNotPermitted, got %v", err)
	}
}

func TestUpdateIfEditable_OwnerMismatch(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{}`))

	_, err := s.UpdateIfEditable(ctx, r.ID, "user_2", []byte(`{"v":2}`))
	if !errors.Is(err, record.ErrEditNotPermitted) {
		t.Fatalf("expected ErrEditNotPermitted, got %v", err)
	}
}

func TestSoftDelete_StampsActorAndTime(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{}`))

	if err := s.SoftDelete(ctx, r.ID, "admin_9"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !got.Deleted() {
		t.Fatal("expected record to be soft-deleted")
	}
	if got.DeletedBy != "admin_9" {
		t.Errorf("DeletedBy = %q, want %q", got.DeletedBy, "admin_9")
	}
	if got.DeletedAt == nil || time.Since(*got.DeletedAt) > time.Minute {
		t.Errorf("DeletedAt = %v, want recent", got.DeletedAt)
	}
}

func TestSoftDelete_MissingRecord(t *testing.T) {
	s := memory.New()

	err := s.SoftDelete(context.Background(), "rec_missing", "admin_9")
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDelete_AlreadyDeleted(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{}`))
	if err := s.SoftDelete(ctx, r.ID, "admin_9"); err != nil {
		t.Fatalf("first SoftDelete: %v", err)
	}

	err := s.SoftDelete(ctx, r.ID, "admin_9")
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestUpdateIfEditable_DeletedRecordInvisible(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r, _ := s.Create(ctx, "user_1", []byte(`{}`))
	if err := s.SoftDelete(ctx, r.ID, "admin_9"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	_, err := s.UpdateIfEditable(ctx, r.ID, "user_1", []byte(`{"v":2}`))
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted record, got %v", err)
	}
}

func TestSaveJob_Upsert(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	j := &job.Job{
		ID:         id.NewJobID(),
		Action:     job.ActionCreate,
		OwnerID:    "user_1",
		Payload:    []byte(`{}`),
		State:      job.StatePending,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.SaveJob(ctx, j); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	j.State = job.StateCompleted
	if err := s.SaveJob(ctx, j); err != nil {
		t.Fatalf("SaveJob upsert: %v", err)
	}

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.State != job.StateCompleted {
		t.Errorf("State = %q, want %q", got.State, job.StateCompleted)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	s := memory.New()

	_, err := s.GetJob(context.Background(), id.NewJobID())
	if !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListJobsByState_NewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := range 3 {
		j := &job.Job{
			ID:         id.NewJobID(),
			Action:     job.ActionCreate,
			State:      job.StateCompleted,
			EnqueuedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	jobs, err := s.ListJobsByState(ctx, job.StateCompleted, job.ListOpts{})
	if err != nil {
		t.Fatalf("ListJobsByState: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i].EnqueuedAt.After(jobs[i-1].EnqueuedAt) {
			t.Fatal("expected newest-first ordering")
		}
	}
}

func TestCountJobs_Filters(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	states := []job.State{job.StateCompleted, job.StateCompleted, job.StateFailed}
	for _, st := range states {
		j := &job.Job{ID: id.NewJobID(), Action: job.ActionUpdate, State: st}
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	n, err := s.CountJobs(ctx, job.CountOpts{State: job.StateCompleted})
	if err != nil {
		t.Fatalf("CountJobs: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	n, err = s.CountJobs(ctx, job.CountOpts{Action: job.ActionUpdate})
	if err != nil {
		t.Fatalf("CountJobs: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestDLQ_PushGetReplay(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	entry := &dlq.Entry{
		ID:       id.NewDLQID(),
		JobID:    id.NewJobID(),
		Action:   job.ActionUpdate,
		Error:    "store unavailable",
		FailedAt: time.Now().UTC(),
	}
	if err := s.PushDLQ(ctx, entry); err != nil {
		t.Fatalf("PushDLQ: %v", err)
	}

	got, err := s.GetDLQ(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetDLQ: %v", err)
	}
	if got.Error != "store unavailable" {
		t.Errorf("Error = %q, want %q", got.Error, "store unavailable")
	}
	if got.ReplayedAt != nil {
		t.Error("expected ReplayedAt unset")
	}

	if err := s.ReplayDLQ(ctx, entry.ID); err != nil {
		t.Fatalf("ReplayDLQ: %v", err)
	}
	got, _ = s.GetDLQ(ctx, entry.ID)
	if got.ReplayedAt == nil {
		t.Error("expected ReplayedAt set after replay")
	}
}

func TestDLQ_GetNotFound(t *testing.T) {
	s := memory.New()

	_, err := s.GetDLQ(context.Background(), id.NewDLQID())
	if !errors.Is(err, dlq.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDLQ_PurgeRemovesOldEntries(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	old := &dlq.Entry{ID: id.NewDLQID(), FailedAt: time.Now().UTC().Add(-2 * time.Hour)}
	fresh := &dlq.Entry{ID: id.NewDLQID(), FailedAt: time.Now().UTC()}
	for _, e := range []*dlq.Entry{old, fresh} {
		if err := s.PushDLQ(ctx, e); err != nil {
			t.Fatalf("PushDLQ: %v", err)
		}
	}

	purged, err := s.PurgeDLQ(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeDLQ: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	n, _ := s.CountDLQ(ctx)
	if n != 1 {
		t.Errorf("remaining = %d, want 1", n)
	}
}

func TestDLQ_ListNewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := range 3 {
		e := &dlq.Entry{
			ID:       id.NewDLQID(),
			Action:   job.ActionCreate,
			FailedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.PushDLQ(ctx, e); err != nil {
			t.Fatalf("PushDLQ: %v", err)
		}
	}

	entries, err := s.ListDLQ(ctx, dlq.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListDLQ: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].FailedAt.Before(entries[1].FailedAt) {
		t.Error("expected newest-first ordering")
	}
}
