package service

import (
	"learnhub_backend/internal/model"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileService_RepairsDrift(t *testing.T) {
	h := newHarness(t)
	e := h.enroll(h.student)
	other := h.enroll(h.otherStudent)
	_, err := h.checkpoint(h.videoA, 100, 100, 100)
	require.NoError(t, err)

	require.NoError(t, h.db.Model(&model.Enrollment{}).Where("id IN ?", []uint{e.ID, other.ID}).
		Update("overall_progress", 90).Error)

	stats, err := h.reconcile.Run(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Zero(t, stats.Failed)

	got, err := h.enrollmentRepo.FindByID(h.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.OverallProgress)
	got, err = h.enrollmentRepo.FindByID(h.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OverallProgress)
}

func TestReconcileService_Schedule(t *testing.T) {
	h := newHarness(t)
	c := cron.New()
	id, err := h.reconcile.Schedule(c, "0 3 * * *")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = h.reconcile.Schedule(c, "not a cron")
	assert.Error(t, err)
}
