// Package di wires all application components together.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/config"
	"github.com/aristath/daybook/internal/database"
	"github.com/aristath/daybook/internal/modules/calendar/handlers"
	consistencyhandlers "github.com/aristath/daybook/internal/modules/consistency/handlers"
	equityhandlers "github.com/aristath/daybook/internal/modules/equity/handlers"
	"github.com/aristath/daybook/internal/modules/share"
	sharehandlers "github.com/aristath/daybook/internal/modules/share/handlers"
	statisticshandlers "github.com/aristath/daybook/internal/modules/statistics/handlers"
	"github.com/aristath/daybook/internal/modules/trades"
	tradeshandlers "github.com/aristath/daybook/internal/modules/trades/handlers"
	"github.com/aristath/daybook/internal/reliability"
	"github.com/aristath/daybook/internal/scheduler"
	"github.com/aristath/daybook/internal/server"
)

const (
	purgeSchedule       = "0 0 * * * *" // hourly
	maintenanceSchedule = "0 0 4 * * *" // 04:00 nightly, after the backup window
)

// Container holds all wired application components
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	JournalDB *database.DB
	CacheDB   *database.DB

	TradesRepo *trades.Repository
	ShareRepo  *share.Repository

	Hub       *server.LiveHub
	Server    *server.Server
	Scheduler *scheduler.Scheduler
}

// New builds the complete application graph from configuration
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	journalDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "journal.db"),
		Profile: database.ProfileJournal,
		Name:    "journal",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	c.JournalDB = journalDB

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	c.CacheDB = cacheDB

	for _, db := range []*database.DB{journalDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	c.TradesRepo = trades.NewRepository(journalDB.Conn(), log)
	c.ShareRepo = share.NewRepository(cacheDB.Conn(), log)

	c.Hub = server.NewLiveHub(log)

	tradesHandler := tradeshandlers.NewHandler(c.TradesRepo, c.Hub, log)
	calendarHandler := handlers.NewHandler(c.TradesRepo, handlers.Defaults{
		Timezone:         cfg.Timezone,
		WeekStartsMonday: cfg.WeekStartsMonday,
	}, log)
	equityHandler := equityhandlers.NewHandler(c.TradesRepo, cfg.Timezone, log)
	consistencyHandler := consistencyhandlers.NewHandler(c.TradesRepo, consistencyhandlers.Defaults{
		Timezone:     cfg.Timezone,
		ThresholdPct: cfg.ConsistencyThreshold,
	}, log)
	statisticsHandler := statisticshandlers.NewHandler(c.TradesRepo, cfg.Timezone, log)
	shareHandler := sharehandlers.NewHandler(c.ShareRepo, c.TradesRepo, cfg.Timezone, log)
	systemHandler := server.NewSystemHandlers(journalDB, cacheDB, c.TradesRepo, c.Hub, log)

	c.Server = server.New(server.Config{
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		Trades:      tradesHandler,
		Calendar:    calendarHandler,
		Equity:      equityHandler,
		Consistency: consistencyHandler,
		Statistics:  statisticsHandler,
		Share:       shareHandler,
		System:      systemHandler,
		Hub:         c.Hub,
	}, log)

	if err := c.setupScheduler(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) setupScheduler(ctx context.Context) error {
	c.Scheduler = scheduler.New(c.Log)

	if err := c.Scheduler.AddJob(purgeSchedule, scheduler.NewPurgeSharesJob(c.ShareRepo, c.Log)); err != nil {
		return fmt.Errorf("failed to schedule share purge: %w", err)
	}

	databases := []*database.DB{c.JournalDB, c.CacheDB}
	if err := c.Scheduler.AddJob(maintenanceSchedule, scheduler.NewMaintenanceJob(databases, c.Log)); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	if c.Config.Backup != nil && c.Config.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(ctx, c.Config.Backup, c.Log)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		backupService := reliability.NewBackupService(s3Client, databases, c.Config.DataDir, c.Config.Backup.Prefix, c.Log)
		backupJob := scheduler.NewBackupJob(backupService, c.Config.Backup.RetentionDays, c.Log)
		if err := c.Scheduler.AddJob(c.Config.Backup.Schedule, backupJob); err != nil {
			return fmt.Errorf("failed to schedule backup: %w", err)
		}
	}

	return nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil {
			c.Log.Error().Err(err).Msg("Failed to close cache database")
		}
	}
	if c.JournalDB != nil {
		if err := c.JournalDB.Close(); err != nil {
			c.Log.Error().Err(err).Msg("Failed to close journal database")
		}
	}
}
