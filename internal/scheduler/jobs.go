package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/database"
	"github.com/aristath/daybook/internal/modules/share"
)

// PurgeSharesJob removes expired shared snapshots from cache.db
type PurgeSharesJob struct {
	repo *share.Repository
	log  zerolog.Logger
}

// NewPurgeSharesJob creates a new snapshot purge job
func NewPurgeSharesJob(repo *share.Repository, log zerolog.Logger) *PurgeSharesJob {
	return &PurgeSharesJob{
		repo: repo,
		log:  log.With().Str("job", "purge_shares").Logger(),
	}
}

// Name returns the job name
func (j *PurgeSharesJob) Name() string { return "purge_shares" }

// Run purges expired snapshots
func (j *PurgeSharesJob) Run() error {
	purged, err := j.repo.PurgeExpired()
	if err != nil {
		return err
	}
	if purged > 0 {
		j.log.Info().Int64("purged", purged).Msg("Purge completed")
	}
	return nil
}

// MaintenanceJob runs nightly database maintenance: WAL checkpoints and
// integrity checks on every database
type MaintenanceJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases []*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string { return "maintenance" }

// Run checkpoints and health-checks each database. A failure on one
// database does not stop maintenance of the others; the first error is
// reported after all databases were attempted.
func (j *MaintenanceJob) Run() error {
	var firstErr error

	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.HealthCheck(ctx)
		cancel()
		if err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// BackupRunner is the part of the backup service the job needs
type BackupRunner interface {
	CreateAndUploadBackup(ctx context.Context) error
	RotateOldBackups(ctx context.Context, retentionDays int) error
}

// BackupJob creates a nightly backup archive and uploads it to S3
type BackupJob struct {
	runner        BackupRunner
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(runner BackupRunner, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		runner:        runner,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "backup" }

// Run creates and uploads a backup, then prunes old remote backups
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := j.runner.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	return j.runner.RotateOldBackups(ctx, j.retentionDays)
}
