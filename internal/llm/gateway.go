package llm

import (
	"context"
	"log"
	"time"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/models"
)

const DefaultPollInterval = 500 * time.Millisecond

type callResult struct {
	completion *Completion
	err        error
}

// Gateway applies the user's AI settings to every call and adds cancellation.
type Gateway struct {
	provider    Provider
	model       string
	temperature float64
	maxTokens   int

	// PollInterval is how often CallCancellable checks its probe.
	PollInterval time.Duration
}

// NewGateway binds p to the model, temperature and token limit of settings.
func NewGateway(p Provider, settings models.AISettings) *Gateway {
	return &Gateway{
		provider:     p,
		model:        settings.Model,
		temperature:  settings.Temperature,
		maxTokens:    settings.MaxTokens,
		PollInterval: DefaultPollInterval,
	}
}

// Model is the configured model name, recorded with every answer.
func (g *Gateway) Model() string {
	return g.model
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Call sends a single non-streaming request. Provider-reported usage wins over the estimate.
func (g *Gateway) Call(ctx context.Context, req Request) (*Completion, error) {
	if req.Model == "" {
		req.Model = g.model
	}
	if req.Temperature == 0 {
		req.Temperature = g.temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = g.maxTokens
	}

	estimate := EstimateRequest(req)
	start := time.Now()
	out, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if out.Usage.TotalTokens == 0 {
		out.Usage = Usage{
			PromptTokens:     estimate,
			CompletionTokens: EstimateTokens(out.Text),
			Estimated:        true,
		}
		out.Usage.TotalTokens = out.Usage.PromptTokens + out.Usage.CompletionTokens
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	log.Printf("🤖 %s/%s answered in %s (tokens: %d prompt, %d completion, estimated=%v)",
		g.provider.Name(), out.Model, time.Since(start).Round(time.Millisecond),
		out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Usage.Estimated)
	return out, nil
}

// CallCancellable races Call against probe. When the probe trips the in-flight
// request is aborted and cancel.ErrStopped is returned.
func (g *Gateway) CallCancellable(ctx context.Context, req Request, probe cancel.Probe) (*Completion, error) {
	if probe == nil {
		probe = cancel.Never
	}
	if probe() {
		return nil, cancel.ErrStopped
	}

	callCtx, abort := context.WithCancel(ctx)
	defer abort()

	done := make(chan callResult, 1)
	go func() {
		c, err := g.Call(callCtx, req)
		done <- callResult{completion: c, err: err}
	}()

	interval := g.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case r := <-done:
			if probe() {
				return nil, cancel.ErrStopped
			}
			return r.completion, r.err
		case <-ticker.C:
			if probe() {
				abort()
				return nil, cancel.ErrStopped
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TestConnection checks that the provider is reachable and serves the model.
func (g *Gateway) TestConnection(ctx context.Context) (string, error) {
	return g.provider.Test(ctx)
}

// ListModels lists the models the provider serves.
func (g *Gateway) ListModels(ctx context.Context) ([]string, error) {
	return g.provider.ListModels(ctx)
}
