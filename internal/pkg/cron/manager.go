package cron

import (
	"Hearth/internal/api/config"
	"Hearth/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine             *cron.Cron
	cfg                config.CronConfig
	followReconcileJob *job.FollowReconcileJob
}

func NewCronManager(cfg config.CronConfig, followReconcileJob *job.FollowReconcileJob) *Manager {
	return &Manager{
		engine:             cron.New(cron.WithSeconds()),
		cfg:                cfg,
		followReconcileJob: followReconcileJob,
	}
}

// RegisterJobs 注册定时任务，同一任务上一轮未结束时跳过
func (s *Manager) RegisterJobs() error {
	reconcile := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.followReconcileJob)
	if _, err := s.engine.AddJob(s.cfg.FollowReconcile, reconcile); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
