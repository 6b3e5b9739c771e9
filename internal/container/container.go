package container

import (
	"fmt"
	"net/http"

	"go-label-scan/internal/analyzer"
	"go-label-scan/internal/config"
	"go-label-scan/internal/logger"
	"go-label-scan/internal/observer"
	"go-label-scan/internal/pipeline"
	"go-label-scan/internal/recognition"
	"go-label-scan/internal/storage"
	"go-label-scan/internal/store"
	"go-label-scan/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	engine   recognition.Engine
	scans    *store.Store
	images   storage.ImageStore
	pipeline *pipeline.Pipeline
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	rules, err := analyzer.LoadRuleSet(cfg.AnalyzerRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load analyzer rules: %w", err)
	}
	healthAnalyzer, err := analyzer.New(rules)
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	images, err := storage.NewImageStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("build image store: %w", err)
	}

	scans, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open scan store: %w", err)
	}

	engine := recognition.NewTesseractEngine(cfg.OCRLanguages)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	jobs := pipeline.New(engine, healthAnalyzer, scans, images, events,
		cfg.PipelineWorkers, cfg.RecognitionTimeout)

	handler := transport.NewHandler(scans, images, jobs, metrics, cfg)

	return &Container{
		config:   cfg,
		engine:   engine,
		scans:    scans,
		images:   images,
		pipeline: jobs,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Shutdown drains the pipeline and releases engine and store resources.
func (c *Container) Shutdown() {
	c.pipeline.Close()
	if err := c.engine.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close recognition engine")
	}
	if err := c.scans.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close scan store")
	}
}
