package cli

import (
	"time"

	"github.com/valter-silva-au/toolbrain/internal/broadcast"
	"github.com/valter-silva-au/toolbrain/internal/core"
	"github.com/valter-silva-au/toolbrain/internal/observability"
	"github.com/valter-silva-au/toolbrain/internal/storage"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig

	Router      core.NeedRouter
	Stats       core.StatsService
	RegistryMgr core.RegistryManager

	WeightStore       storage.LearningStoreManager
	SessionStore      storage.SessionStoreManager
	ConversationStore storage.ConversationStoreManager

	Broker    broadcast.Broker
	KeepAlive time.Duration

	EventLog    observability.EventLog
	UsageLog    observability.UsageLog
	MetricsCalc observability.MetricsCalculator
)
