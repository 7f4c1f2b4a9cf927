package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/api"
	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/form"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/resume"
	"go-easyapply-automation/internal/session"
	"go-easyapply-automation/internal/status"
	"go-easyapply-automation/internal/tracker"
)

// plan is everything a session needs, resolved before it starts.
type plan struct {
	user     models.User
	settings models.AISettings
	resume   *resume.Context
	resumeID string
}

// StartAutoApply prepares a session and runs it in the background. Only one session runs at a time.
func (b *Background) StartAutoApply(ctx context.Context, m StartAutoApply) StateReply {
	b.mu.Lock()
	if b.running {
		st := b.stateLocked()
		b.mu.Unlock()
		return StateReply{Result: failed(ErrSessionRunning), State: st}
	}
	token := cancel.NewToken()
	b.running = true
	b.token = token
	b.mu.Unlock()

	p, err := b.prepare(ctx, m)
	if err == nil && token.Cancelled() {
		err = cancel.ErrStopped
	}
	if err != nil {
		log.Printf("❌ Could not start auto-apply: %v", err)
		b.mu.Lock()
		b.running = false
		st := b.stateLocked()
		b.mu.Unlock()
		return StateReply{Result: failed(err), State: st}
	}

	b.mu.Lock()
	b.events = &status.Recorder{}
	b.startedAt = b.opts.Now()
	b.done = make(chan struct{})
	done := b.done
	st := b.stateLocked()
	b.mu.Unlock()

	log.Printf("🚀 Starting auto-apply for %s with %s/%s", p.user.Email, p.settings.Provider, p.settings.Model)
	go b.runSession(p, token, done)
	return StateReply{Result: ok(), State: st}
}

func (b *Background) prepare(ctx context.Context, m StartAutoApply) (*plan, error) {
	if b.opts.OpenBoard == nil {
		return nil, errors.New("no job board configured")
	}

	var user *models.User
	if m.LoginData != nil && m.LoginData.Email != "" {
		u, err := b.login(ctx, m.LoginData.Email, m.LoginData.Password)
		if err != nil {
			return nil, err
		}
		user = u
	} else {
		user = b.currentUser()
	}
	if user == nil || user.ID == "" {
		return nil, ErrNotLoggedIn
	}

	settings, err := b.aiSettings(ctx, user.ID, m.AISettings)
	if err != nil {
		return nil, err
	}

	rc, resumeID, err := b.loadResume(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if b.opts.Storage != nil {
		if err := b.opts.Storage.SetCurrentResumeID(resumeID); err != nil {
			log.Printf("⚠️ Could not persist résumé id: %v", err)
		}
	}

	if llm.Kind(settings.Provider) == llm.KindOllama {
		reply := b.TestOllama(ctx, TestOllama{Endpoint: settings.Endpoint, Model: settings.Model})
		if !reply.Success {
			return nil, &RemoteError{Message: "Ollama is not available: " + reply.Error, Troubleshooting: reply.Troubleshooting}
		}
		log.Printf("✅ %s", reply.Message)
	}

	return &plan{user: *user, settings: settings, resume: rc, resumeID: resumeID}, nil
}

func (b *Background) aiSettings(ctx context.Context, userID string, given *models.AISettings) (models.AISettings, error) {
	var settings models.AISettings
	switch {
	case given != nil:
		settings = *given
	case b.opts.API != nil:
		b.io.Lock()
		s, err := b.opts.API.DefaultAISettings(ctx, userID)
		b.io.Unlock()
		switch {
		case err == nil:
			settings = *s
		case errors.Is(err, api.ErrNotFound):
			log.Printf("ℹ️ No default AI settings, using local Ollama")
		default:
			return settings, fmt.Errorf("failed to load AI settings: %w", err)
		}
	}

	kind := llm.Kind(settings.Provider)
	switch {
	case kind == "":
		return settings, fmt.Errorf("unknown AI provider %q", settings.Provider)
	case kind != llm.KindOllama && settings.ID == "":
		return settings, fmt.Errorf("%s needs saved AI settings with an API key", settings.Provider)
	}
	if settings.Provider == "" {
		settings.Provider = llm.KindOllama
	}
	if kind == llm.KindOllama && settings.Model == "" {
		settings.Model = llm.DefaultOllamaModel
	}
	return settings, nil
}

func (b *Background) loadResume(ctx context.Context, userID string) (*resume.Context, string, error) {
	if b.opts.API != nil {
		b.io.Lock()
		r, err := b.opts.API.DefaultResume(ctx, userID)
		b.io.Unlock()
		switch {
		case err == nil:
			return resume.New(r.Structured, r.Text), r.ID, nil
		case !errors.Is(err, api.ErrNotFound):
			return nil, "", fmt.Errorf("failed to load résumé: %w", err)
		}
	}
	if b.opts.Resume != nil {
		return b.opts.Resume, "", nil
	}
	return nil, "", ErrNoResume
}

func (b *Background) runSession(p *plan, token *cancel.Token, done chan struct{}) {
	ctx := context.Background()
	sink := Sink{bg: b}
	em := status.Emitter{Sink: sink, Now: b.opts.Now}

	defer close(done)
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Session panicked: %v", r)
			em.Error("Auto-apply crashed: %v", r)
			sink.Complete(status.Summary{Reason: fmt.Sprint(r)})
		}
	}()

	brd, release, err := b.opts.OpenBoard(ctx)
	if err != nil {
		em.Error("Could not open the job board: %v", err)
		sink.Complete(status.Summary{Reason: err.Error()})
		return
	}
	if release != nil {
		defer release()
	}

	ctrl := b.controller(brd, p, sink)
	if _, err := ctrl.Run(ctx, token.Probe()); err != nil {
		log.Printf("⚠️ Session ended early: %v", err)
	}
}

// controller wires the page-side engine. All of its external calls travel back as messages.
func (b *Background) controller(brd board.Board, p *plan, sink status.Sink) *session.Controller {
	gw := llm.NewGateway(&RemoteProvider{bg: b, settings: p.settings}, p.settings)

	var store tracker.Store
	var data answer.DataSource
	if b.opts.API != nil {
		client := api.New(b.opts.API.BaseURL(), &http.Client{Transport: &messageTransport{bg: b}})
		store, data = client, client
	} else {
		store = tracker.NewMemoryStore()
	}

	tr := tracker.New(store, tracker.Identity{
		UserID:       p.user.ID,
		AISettingsID: p.settings.ID,
		ResumeID:     p.resumeID,
	})
	drv := form.NewDriver(brd, answer.New(gw, p.resume, data, p.resumeID), tr, sink)
	drv.Now = b.opts.Now
	if b.opts.DialogTimeout > 0 {
		drv.DialogTimeout = b.opts.DialogTimeout
	}
	if b.opts.ReviewTimeout > 0 {
		drv.ReviewTimeout = b.opts.ReviewTimeout
	}

	var jobs session.JobContext
	if b.opts.Storage != nil {
		jobs = b.opts.Storage
	}
	return session.NewController(brd, drv, sink, jobs)
}

// StopAutoApply trips the session's stop flag. It never waits for the session to wind down.
func (b *Background) StopAutoApply(context.Context, StopAutoApply) StateReply {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running && b.token != nil {
		b.token.Cancel("stopped by user")
		log.Printf("⏹️ Stop requested")
	}
	return StateReply{Result: ok(), State: b.stateLocked()}
}

func (b *Background) GetAutoApplyState(context.Context, GetAutoApplyState) StateReply {
	b.mu.Lock()
	defer b.mu.Unlock()
	return StateReply{Result: ok(), State: b.stateLocked()}
}

func (b *Background) stateLocked() State {
	events := b.events.Events()
	st := State{Running: b.running, Events: len(events)}
	if !b.startedAt.IsZero() {
		started := b.startedAt.Format(time.RFC3339)
		st.StartedAt = &started
	}
	if n := len(events); n > 0 {
		last := events[n-1]
		st.LastStatus = &last
	}
	if sum, done := b.events.Summary(); done {
		st.Summary = &sum
	}
	return st
}

// Wait blocks until the current session, if any, has ended.
func (b *Background) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops a running session.
func (b *Background) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running && b.token != nil {
		b.token.Cancel("shutdown")
	}
}
