package svc

import (
	"os"

	"github.com/founderloop/compass/internal/config"
	"github.com/founderloop/compass/internal/db"
	"github.com/founderloop/compass/internal/guidance"
	"github.com/founderloop/compass/internal/journey/memory"
	"github.com/founderloop/compass/internal/journey/prompt"
	"github.com/founderloop/compass/internal/journey/turn"
	"github.com/founderloop/compass/internal/logging"
)

// ServiceContext carries the shared dependencies handlers need.
type ServiceContext struct {
	Config    config.Config
	DB        *db.Store
	Guidance  *guidance.Store
	Templater *prompt.Templater
	Engine    *turn.Engine
	Version   string
}

// NewServiceContext creates a new service context. Pass a *db.Store to
// reuse an existing database connection, or nil to create a new one.
func NewServiceContext(c config.Config, database ...*db.Store) (*ServiceContext, error) {
	var store *db.Store
	if len(database) > 0 && database[0] != nil {
		store = database[0]
		logging.Infof("Using shared database connection")
	} else {
		var err error
		store, err = db.NewSQLite(c.DatabasePath())
		if err != nil {
			return nil, err
		}
	}

	gstore, err := guidance.NewStore()
	if err != nil {
		return nil, err
	}
	if err := gstore.LoadDir(c.GuidanceDir()); err != nil {
		logging.Warnf("Failed to load guidance overrides: %v", err)
	}
	logging.Infof("Guidance store initialized: %d records", gstore.Count())

	templater := prompt.NewTemplater(gstore)

	engine := &turn.Engine{
		Store:       store,
		Templater:   templater,
		TokenBudget: c.TokenBudget,
		Markers:     c.DecisionMarkers,
	}

	if c.Extractor.Enabled {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logging.Warnf("Extractor enabled but ANTHROPIC_API_KEY is not set - falling back to marker extraction")
		} else {
			engine.Extractor = memory.NewExtractor(apiKey, c.Extractor.Model)
			logging.Infof("LLM decision extractor initialized (model %s)", c.Extractor.Model)
		}
	}

	return &ServiceContext{
		Config:    c,
		DB:        store,
		Guidance:  gstore,
		Templater: templater,
		Engine:    engine,
	}, nil
}

// Close releases held resources.
func (svc *ServiceContext) Close() {
	if svc.DB != nil {
		svc.DB.Close()
		logging.Infof("SQLite database connection closed")
	}
}
