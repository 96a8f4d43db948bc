package cron

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/services"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Default schedules (seconds precision)
const (
	DefaultReconcileSchedule = "0 */10 * * * *"
	DefaultCleanupSchedule   = "0 0 3 * * *"
)

// CounterReconciler repairs drifted department application counters
type CounterReconciler interface {
	ReconcileCounters(ctx context.Context) (*services.ReconcileReport, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	reconciler CounterReconciler

	reconcileSchedule string
	logRetention      time.Duration
}

// NewCronManager creates a new cron manager. An empty schedule falls back to the default.
func NewCronManager(db *gorm.DB, reconciler CounterReconciler, reconcileSchedule string) *CronManager {
	if reconcileSchedule == "" {
		reconcileSchedule = DefaultReconcileSchedule
	}

	return &CronManager{
		cron:              cron.New(cron.WithSeconds()),
		db:                db,
		reconciler:        reconciler,
		reconcileSchedule: reconcileSchedule,
		logRetention:      30 * 24 * time.Hour,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("[CRON] Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("[CRON] Cron jobs started successfully")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (m *CronManager) Stop() {
	log.Info("[CRON] Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// 1. Recount applications and repair drifted counters
	if _, err := m.cron.AddFunc(m.reconcileSchedule, m.ReconcileApplicationCounters); err != nil {
		return err
	}

	// 2. Daily: drop old cron logs
	if _, err := m.cron.AddFunc(DefaultCleanupSchedule, m.CleanupOldJobLogs); err != nil {
		return err
	}

	log.Info("[CRON] All cron jobs registered successfully")
	return nil
}

// logJobStart records a running job and returns its log row ID
func (m *CronManager) logJobStart(jobName string) uint {
	log.Infof("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(&cronLog).Error; err != nil {
		log.Warnf("[CRON] Failed to record start of %s: %v", jobName, err)
		return 0
	}
	return cronLog.ID
}

// logJobComplete marks the job log completed
func (m *CronManager) logJobComplete(logID uint, jobName, message string, metadata datatypes.JSON) {
	log.Infof("[CRON] Completed job: %s - %s", jobName, message)

	updates := map[string]interface{}{
		"status":  model.CronStatusCompleted,
		"message": message,
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}
	m.finishJobLog(logID, updates)
}

// logJobError marks the job log failed
func (m *CronManager) logJobError(logID uint, jobName string, err error) {
	log.Errorf("[CRON] Error in job: %s - %v", jobName, err)

	m.finishJobLog(logID, map[string]interface{}{
		"status":    model.CronStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishJobLog(logID uint, updates map[string]interface{}) {
	if logID == 0 {
		return
	}

	var cronLog model.CronJobLog
	if err := m.db.First(&cronLog, logID).Error; err != nil {
		return
	}

	now := time.Now()
	updates["completed_at"] = now
	updates["duration"] = int(now.Sub(cronLog.StartedAt).Milliseconds())
	m.db.Model(&cronLog).Updates(updates)
}
