package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/datatypes"
)

// ReconcileApplicationCounters recounts applications for every department and
// overwrites counters that disagree. Drift means some write escaped the allocation
// transaction, so repairs are also counted in metrics.
func (m *CronManager) ReconcileApplicationCounters() {
	const jobName = "reconcile_application_counters"
	logID := m.logJobStart(jobName)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := m.reconciler.ReconcileCounters(ctx)
	if err != nil {
		m.logJobError(logID, jobName, fmt.Errorf("failed to reconcile counters: %w", err))
		return
	}

	var metadata datatypes.JSON
	if len(report.Repaired) > 0 {
		if encoded, err := json.Marshal(report.Repaired); err == nil {
			metadata = datatypes.JSON(encoded)
		}
	}

	m.logJobComplete(logID, jobName,
		fmt.Sprintf("Checked %d departments, repaired %d", report.Checked, len(report.Repaired)),
		metadata)
}

// CleanupOldJobLogs deletes cron logs older than the retention window
func (m *CronManager) CleanupOldJobLogs() {
	const jobName = "cleanup_old_job_logs"
	logID := m.logJobStart(jobName)

	cutoff := time.Now().Add(-m.logRetention)
	result := m.db.Where("started_at < ? AND status <> ?", cutoff, model.CronStatusRunning).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(logID, jobName, fmt.Errorf("failed to delete old logs: %w", result.Error))
		return
	}

	m.logJobComplete(logID, jobName, fmt.Sprintf("Deleted %d cron logs older than %s",
		result.RowsAffected, cutoff.Format(time.RFC3339)), nil)
}
