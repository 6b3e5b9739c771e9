package recognition

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client.
//
// Clients are pooled: a worker acquires a client for the duration of
// one recognition and always returns it, so concurrent scans reuse
// instances instead of paying the engine setup cost per request.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client

	mu     sync.Mutex
	idle   []*gosseract.Client
	closed bool
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(languages []string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image payload.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, fmt.Errorf("empty image payload")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client, err := e.acquire()
	if err != nil {
		return Result{}, err
	}

	result, err := e.recognizeWithClient(client, image)
	if err != nil {
		// A failed client may hold broken engine state; discard it
		// instead of returning it to the pool
		_ = client.Close()
		return Result{}, err
	}
	e.release(client)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (e *TesseractEngine) recognizeWithClient(c *gosseract.Client, image []byte) (Result, error) {
	if err := c.SetImageFromBytes(image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}
	return Result{
		Text:       text,
		Confidence: averageConfidence(c),
	}, nil
}

// averageConfidence derives a 0-100 confidence from per-word scores.
// Engines report no words for blank images; that yields zero.
func averageConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes))
}

func (e *TesseractEngine) acquire() (*gosseract.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine closed")
	}
	if n := len(e.idle); n > 0 {
		client := e.idle[n-1]
		e.idle = e.idle[:n-1]
		return client, nil
	}
	return e.clientFactory(), nil
}

func (e *TesseractEngine) release(client *gosseract.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		_ = client.Close()
		return
	}
	e.idle = append(e.idle, client)
}

// Close tears down all pooled clients. In-flight recognitions finish;
// their clients are closed on release.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	var firstErr error
	for _, client := range e.idle {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.idle = nil
	return firstErr
}
