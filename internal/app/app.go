package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/fieldlens/photoverify/internal/config"
	"github.com/fieldlens/photoverify/internal/data/db"
	"github.com/fieldlens/photoverify/internal/data/repos"
	"github.com/fieldlens/photoverify/internal/platform/logger"
	"github.com/fieldlens/photoverify/internal/source"
)

// App wires the engine: one verify store, its repos, and one photo source
// per configured project, all constructed up front and passed by
// reference into operations.
type App struct {
	Log     *logger.Logger
	Cfg     config.Config
	DB      *gorm.DB
	Repos   repos.Repos
	Sources map[string]source.PhotoSource
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := db.NewStoreService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init verify store: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("verify store automigrate: %w", err)
	}
	theDB := store.DB()

	reposet := repos.New(theDB, log)

	sources := make(map[string]source.PhotoSource, len(cfg.Projects))
	for _, project := range cfg.Projects {
		srcDB, err := db.Open(project.SourceDSN)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("open photo source for %s: %w", project.Key, err)
		}
		sources[project.Key] = source.NewGormPhotoSource(srcDB, log, project.Key)
	}

	return &App{
		Log:     log,
		Cfg:     cfg,
		DB:      theDB,
		Repos:   reposet,
		Sources: sources,
	}, nil
}

func (a *App) Close() {
	if a == nil || a.Log == nil {
		return
	}
	a.Log.Sync()
}

func (a *App) projectSource(project string) (config.ProjectConfig, source.PhotoSource, error) {
	cfg, ok := a.Cfg.Project(project)
	if !ok {
		return config.ProjectConfig{}, nil, fmt.Errorf("unknown project %q", project)
	}
	src, ok := a.Sources[project]
	if !ok {
		return config.ProjectConfig{}, nil, fmt.Errorf("no photo source wired for %q", project)
	}
	return cfg, src, nil
}
