package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/draped/internal/client/models"
)

func job(id string, status models.JobStatus) models.Job {
	return models.Job{ID: id, Status: status}
}

func TestStore_AddJob_MostRecentFirstAndCapped(t *testing.T) {
	s := NewStore()
	for i := 0; i < MaxRecentJobs+5; i++ {
		s.AddJob(job(fmt.Sprintf("j%d", i), models.JobStatusPending))
	}

	recent := s.RecentJobs()
	require.Len(t, recent, MaxRecentJobs)
	assert.Equal(t, fmt.Sprintf("j%d", MaxRecentJobs+4), recent[0].ID)
	assert.Equal(t, "j5", recent[len(recent)-1].ID)
}

func TestStore_RecentJobs_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddJob(job("j1", models.JobStatusPending))

	got := s.RecentJobs()
	got[0].Status = models.JobStatusFailed

	assert.Equal(t, models.JobStatusPending, s.RecentJobs()[0].Status)
}

func TestStore_UpdateJobStatus_PatchesCurrentAndHistory(t *testing.T) {
	s := NewStore()
	j := job("j1", models.JobStatusPending)
	s.SetCurrentJob(&j)
	s.AddJob(j)
	s.AddJob(job("j2", models.JobStatusPending))

	changed := s.UpdateJobStatus("j1", models.JobPatch{
		Status:   models.Ptr(models.JobStatusProcessing),
		Progress: models.Ptr(30),
	})
	require.True(t, changed)

	cur, ok := s.CurrentJob()
	require.True(t, ok)
	assert.Equal(t, models.JobStatusProcessing, cur.Status)
	require.NotNil(t, cur.Progress)
	assert.Equal(t, 30, *cur.Progress)

	recent := s.RecentJobs()
	assert.Equal(t, models.JobStatusPending, recent[0].Status, "other jobs untouched")
	assert.Equal(t, models.JobStatusProcessing, recent[1].Status)
}

func TestStore_UpdateJobStatus_UnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	j := job("j1", models.JobStatusPending)
	s.SetCurrentJob(&j)
	s.AddJob(j)

	before := s.RecentJobs()
	assert.False(t, s.UpdateJobStatus("nope", models.JobPatch{Status: models.Ptr(models.JobStatusFailed)}))

	if diff := cmp.Diff(before, s.RecentJobs()); diff != "" {
		t.Errorf("history changed (-before +after):\n%s", diff)
	}
	cur, _ := s.CurrentJob()
	assert.Equal(t, models.JobStatusPending, cur.Status)
}

func TestStore_UpdateJobStatus_TerminalJobsAreFrozen(t *testing.T) {
	for _, status := range []models.JobStatus{models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			s := NewStore()
			j := job("j1", status)
			s.SetCurrentJob(&j)
			s.AddJob(j)

			assert.False(t, s.UpdateJobStatus("j1", models.JobPatch{Status: models.Ptr(models.JobStatusProcessing)}))

			got, ok := s.Job("j1")
			require.True(t, ok)
			assert.Equal(t, status, got.Status)
			assert.Equal(t, status, s.RecentJobs()[0].Status)
		})
	}
}

func TestStore_UpdateJobStatus_TerminalPatchThenFrozen(t *testing.T) {
	s := NewStore()
	s.AddJob(job("j1", models.JobStatusProcessing))

	require.True(t, s.UpdateJobStatus("j1", models.JobPatch{
		Status:         models.Ptr(models.JobStatusCompleted),
		ResultImageURL: models.Ptr("http://localhost:8081/files/r.png"),
	}))
	require.False(t, s.UpdateJobStatus("j1", models.JobPatch{Status: models.Ptr(models.JobStatusProcessing)}))

	got, ok := s.Job("j1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "http://localhost:8081/files/r.png", got.ResultImageURL)
}

func TestStore_JobPrefersCurrent(t *testing.T) {
	s := NewStore()
	s.AddJob(job("j1", models.JobStatusPending))
	cur := models.Job{ID: "j1", Status: models.JobStatusProcessing}
	s.SetCurrentJob(&cur)

	got, ok := s.Job("j1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusProcessing, got.Status)

	_, ok = s.Job("missing")
	assert.False(t, ok)
}

func TestStore_SetCurrentJobCopies(t *testing.T) {
	s := NewStore()
	j := job("j1", models.JobStatusPending)
	s.SetCurrentJob(&j)
	j.Status = models.JobStatusFailed

	cur, ok := s.CurrentJob()
	require.True(t, ok)
	assert.Equal(t, models.JobStatusPending, cur.Status)

	s.SetCurrentJob(nil)
	_, ok = s.CurrentJob()
	assert.False(t, ok)
}

func TestStore_PreviewsAndReset(t *testing.T) {
	s := NewStore()
	s.SetPreviews("/tmp/me.png", "/tmp/shirt.jpg")
	assert.Equal(t, Previews{Photo: "/tmp/me.png", Garment: "/tmp/shirt.jpg"}, s.Previews())

	s.ClearPreviews()
	assert.Equal(t, Previews{}, s.Previews())

	j := job("j1", models.JobStatusPending)
	s.SetCurrentJob(&j)
	s.AddJob(j)
	s.SetPreviews("a", "b")
	s.Reset()

	_, ok := s.CurrentJob()
	assert.False(t, ok)
	assert.Equal(t, Previews{}, s.Previews())
	assert.Len(t, s.RecentJobs(), 1, "reset keeps history")
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore()
	s.AddJob(job("j1", models.JobStatusPending))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.UpdateJobStatus("j1", models.JobPatch{Progress: models.Ptr(i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.RecentJobs()
		}()
	}
	wg.Wait()

	got, ok := s.Job("j1")
	require.True(t, ok)
	assert.NotNil(t, got.Progress)
}
