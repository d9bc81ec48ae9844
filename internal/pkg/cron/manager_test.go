package cron

import (
	"Hearth/internal/api/config"
	"Hearth/internal/job"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterJobs(t *testing.T) {
	mgr := NewCronManager(config.CronConfig{FollowReconcile: "0 */5 * * * *"}, job.NewFollowReconcileJob(nil, nil))
	assert.NoError(t, mgr.RegisterJobs())
	assert.Len(t, mgr.engine.Entries(), 1)

	mgr = NewCronManager(config.CronConfig{FollowReconcile: "every five minutes"}, job.NewFollowReconcileJob(nil, nil))
	assert.Error(t, mgr.RegisterJobs())
}
