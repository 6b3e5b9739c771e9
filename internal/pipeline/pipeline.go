// Package pipeline runs the background half of a label scan: recognize
// the stored image, parse the text, score the result, and persist the
// terminal state. Jobs are processed by a fixed worker pool; failures
// are recorded on the scan record, never swallowed.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-label-scan/internal/analyzer"
	"go-label-scan/internal/logger"
	"go-label-scan/internal/observer"
	"go-label-scan/internal/parser"
	"go-label-scan/internal/recognition"
	"go-label-scan/internal/storage"
	"go-label-scan/internal/store"
	"go-label-scan/pkg/models"
)

// Job is one scan waiting for background processing.
type Job struct {
	ScanID   string
	ImageRef string
}

// Pipeline owns the scan worker pool. A scan is submitted exactly once
// and processed exactly once; there is no retry and no cancellation of
// in-flight scans.
type Pipeline struct {
	engine             recognition.Engine
	analyzer           *analyzer.Analyzer
	scans              *store.Store
	images             storage.ImageStore
	events             observer.Subject
	recognitionTimeout time.Duration

	jobs chan Job
	wg   sync.WaitGroup
	once sync.Once
}

func New(
	engine recognition.Engine,
	healthAnalyzer *analyzer.Analyzer,
	scans *store.Store,
	images storage.ImageStore,
	events observer.Subject,
	workers int,
	recognitionTimeout time.Duration,
) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		engine:             engine,
		analyzer:           healthAnalyzer,
		scans:              scans,
		images:             images,
		events:             events,
		recognitionTimeout: recognitionTimeout,
		jobs:               make(chan Job, workers*2),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues a scan for background processing without blocking the
// caller beyond queue admission.
func (p *Pipeline) Submit(job Job) {
	p.jobs <- job
}

// Close stops accepting jobs and waits for in-flight scans to reach a
// terminal state.
func (p *Pipeline) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.process(context.Background(), job)
	}
}

// process drives one scan through recognition, parsing and analysis.
// Every exit path leaves the record in a terminal state.
func (p *Pipeline) process(ctx context.Context, job Job) {
	start := time.Now()
	p.events.NotifyObservers(ctx, observer.ScanEvent{
		EventType: observer.ScanStarted,
		Timestamp: start,
		ScanID:    job.ScanID,
	})

	// Pre-registered scans arrive in PENDING; promote before work starts
	if err := p.scans.MarkProcessing(ctx, job.ScanID); err != nil {
		p.fail(ctx, job, start, fmt.Sprintf("scan not processable: %v", err))
		return
	}

	result, err := p.recognize(ctx, job)
	if err != nil {
		p.fail(ctx, job, start, fmt.Sprintf("OCR failed: %v", err))
		return
	}

	// Parsing is total: sparse or garbled text degrades to empty
	// fields and the pipeline continues
	parsed := parser.Parse(result.Text)

	analysis, err := p.analyzer.Analyze(parsed)
	if err != nil {
		p.fail(ctx, job, start, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	extracted := models.ExtractedData{
		Ingredients:    parsed.Ingredients,
		NutritionFacts: parsed.NutritionFacts,
		Warnings:       parsed.Warnings,
		Confidence:     result.Confidence,
	}

	if err := p.scans.MarkCompleted(ctx, job.ScanID, result.Text, parsed.ProductName, extracted, analysis); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"scan_id": job.ScanID,
		}).Error("Failed to persist completed scan")
		return
	}

	p.events.NotifyObservers(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		Timestamp:      time.Now(),
		ScanID:         job.ScanID,
		ProcessingTime: time.Since(start),
		Success:        true,
		HealthScore:    analysis.OverallScore,
	})
}

func (p *Pipeline) recognize(ctx context.Context, job Job) (recognition.Result, error) {
	image, err := p.images.Read(ctx, job.ImageRef)
	if err != nil {
		return recognition.Result{}, fmt.Errorf("read stored image: %w", err)
	}

	recognizeCtx := ctx
	if p.recognitionTimeout > 0 {
		var cancel context.CancelFunc
		recognizeCtx, cancel = context.WithTimeout(ctx, p.recognitionTimeout)
		defer cancel()
	}
	return p.engine.Recognize(recognizeCtx, image)
}

// fail records the terminal failure on the scan itself so any client
// can read the reason later; there is no separate error channel.
func (p *Pipeline) fail(ctx context.Context, job Job, start time.Time, message string) {
	if err := p.scans.MarkFailed(ctx, job.ScanID, message); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"scan_id": job.ScanID,
			"reason":  message,
		}).Error("Failed to persist scan failure")
	}
	p.events.NotifyObservers(ctx, observer.ScanEvent{
		EventType:      observer.ScanFailed,
		Timestamp:      time.Now(),
		ScanID:         job.ScanID,
		ProcessingTime: time.Since(start),
		ErrorMessage:   message,
	})
}
