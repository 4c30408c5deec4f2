// Package internal provides the App struct that wires all components of
// toolbrain together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/toolbrain/internal/broadcast"
	"github.com/valter-silva-au/toolbrain/internal/cli"
	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/internal/storage"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// App holds all service dependencies for toolbrain.
type App struct {
	BasePath string
	Config   *models.GlobalConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Registry
	RegistryMgr core.RegistryManager

	// Storage layer
	WeightStore       storage.LearningStoreManager
	SessionStore      storage.SessionStoreManager
	ConversationStore storage.ConversationStoreManager

	// Core services
	Router core.NeedRouter
	Stats  core.StatsService

	// Streaming
	Broker broadcast.Broker

	// Observability
	EventLog    observability.EventLog
	UsageLog    observability.UsageLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the root directory
// where all data is stored (typically ~/.toolbrain or the directory
// containing .brainconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	app.Config = globalCfg

	// --- Registry ---
	app.RegistryMgr = core.NewRegistryManager(basePath)
	// A missing or invalid capability map is not fatal at wiring time:
	// query operations report it, and reload can fix it while running.
	_ = app.RegistryMgr.Load()

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".toolbrain_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable the event log if it can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	usageLogPath := filepath.Join(basePath, "learning", "usage_log.jsonl")
	app.UsageLog, err = observability.NewJSONLUsageLog(usageLogPath)
	if err != nil {
		app.UsageLog = nil
	}

	// --- Storage layer ---
	app.WeightStore = storage.NewLearningStoreManager(basePath)
	_ = app.WeightStore.Load() // Non-fatal: empty store on first use.

	app.SessionStore = storage.NewSessionStoreManager(basePath, globalCfg.SessionPrefix, globalCfg.SessionPadding)
	_ = app.SessionStore.Load() // Non-fatal: empty store on first use.

	app.ConversationStore = storage.NewConversationStoreManager(basePath, globalCfg.DefaultOwner, globalCfg.ClosedPolicy)
	_ = app.ConversationStore.Load() // Non-fatal: empty index on first use.

	// --- Core services ---
	var usageAppender core.UsageAppender
	if app.UsageLog != nil {
		usageAppender = app.UsageLog
	}
	app.Router = core.NewNeedRouter(app.RegistryMgr, app.WeightStore, app.SessionStore, usageAppender)

	var usageReader core.UsageReader = emptyUsageReader{}
	if app.UsageLog != nil {
		usageReader = app.UsageLog
	}
	app.Stats = core.NewStatsService(app.SessionStore, usageReader)

	// --- Streaming ---
	app.Broker = broadcast.NewBroker(globalCfg.QueueSize)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = globalCfg
	cli.Router = app.Router
	cli.Stats = app.Stats
	cli.RegistryMgr = app.RegistryMgr
	cli.WeightStore = app.WeightStore
	cli.SessionStore = app.SessionStore
	cli.ConversationStore = app.ConversationStore
	cli.Broker = app.Broker
	cli.EventLog = app.EventLog
	cli.UsageLog = app.UsageLog
	cli.MetricsCalc = app.MetricsCalc
	cli.KeepAlive = time.Duration(globalCfg.KeepAliveSecs) * time.Second

	return app, nil
}

// Close releases resources held by the App, such as log file handles.
func (a *App) Close() error {
	if a.UsageLog != nil {
		_ = a.UsageLog.Close()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the toolbrain data
// directory. It checks the TOOLBRAIN_HOME env var, then walks up from the
// current directory looking for .brainconfig, then falls back to cwd.
func ResolveBasePath() string {
	if home := os.Getenv("TOOLBRAIN_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".brainconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// emptyUsageReader stands in when the usage log is unavailable.
type emptyUsageReader struct{}

func (emptyUsageReader) ReadUsage() ([]models.ToolUsageRecord, error) { return nil, nil }
