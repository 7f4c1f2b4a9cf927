package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"go-easyapply-automation/internal/api"
	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/localstore"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/resume"
	"go-easyapply-automation/internal/status"
)

var (
	ErrSessionRunning = errors.New("an auto-apply session is already running")
	ErrNotLoggedIn    = errors.New("please log in first")
	ErrNoResume       = errors.New("no résumé available: upload one or set resume_path")
	ErrPageOnly       = errors.New("action is only accepted from the running session")
)

// BoardFactory opens the job board for one session. release is called when the session ends.
type BoardFactory func(ctx context.Context) (b board.Board, release func(), err error)

type Options struct {
	API     *api.Client
	Storage *localstore.Store
	// OpenBoard is required to start sessions.
	OpenBoard  BoardFactory
	HTTPClient *http.Client
	// OllamaEndpoint is used when a message names none.
	OllamaEndpoint string
	// Resume is used when the service has no default résumé for the user.
	Resume *resume.Context
	// Sinks also receive every status event, e.g. the Telegram notifier.
	Sinks         []status.Sink
	DialogTimeout time.Duration
	ReviewTimeout time.Duration
	Now           func() time.Time
}

// Background owns the session state. State handlers lock mu; handlers that talk to
// the outside world are serialised by io, so stopping never waits for a slow request.
type Background struct {
	opts Options

	io sync.Mutex

	mu        sync.Mutex
	running   bool
	token     *cancel.Token
	startedAt time.Time
	events    *status.Recorder
	done      chan struct{}
}

func NewBackground(opts Options) *Background {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if opts.OllamaEndpoint == "" {
		opts.OllamaEndpoint = llm.DefaultOllamaEndpoint
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &Background{opts: opts, events: &status.Recorder{}}

	if opts.API != nil && opts.Storage != nil {
		if u := opts.Storage.CurrentUser(); u != nil && u.Token != "" {
			opts.API.SetToken(u.Token)
		}
	}
	return b
}

// Handle dispatches a decoded message to its handler and returns the reply.
func (b *Background) Handle(ctx context.Context, msg Message) any {
	if v := reflect.ValueOf(msg); v.Kind() == reflect.Pointer && !v.IsNil() {
		msg = v.Elem().Interface().(Message)
	}

	switch m := msg.(type) {
	case APIRequest:
		return b.APIRequest(ctx, m)
	case CallOllama:
		return b.CallOllama(ctx, m)
	case TestOllama:
		return b.TestOllama(ctx, m)
	case OllamaRequest:
		return b.OllamaRequest(ctx, m)
	case CallOpenAI:
		return b.CallOpenAI(ctx, m)
	case TestOpenAI:
		return b.TestOpenAI(ctx, m)
	case CallGemini:
		return b.CallGemini(ctx, m)
	case StartAutoApply:
		return b.StartAutoApply(ctx, m)
	case StopAutoApply:
		return b.StopAutoApply(ctx, m)
	case GetAutoApplyState:
		return b.GetAutoApplyState(ctx, m)
	case UploadResume:
		return b.UploadResume(ctx, m)
	case DownloadResume:
		return b.DownloadResume(ctx, m)
	case RegisterUser:
		return b.RegisterUser(ctx, m)
	case LoginUser:
		return b.LoginUser(ctx, m)
	case LogoutUser:
		return b.LogoutUser(ctx, m)
	case GetCurrentUser:
		return b.GetCurrentUser(ctx, m)
	case GetUserProfile:
		return b.GetUserProfile(ctx, m)
	case UpdateUserProfile:
		return b.UpdateUserProfile(ctx, m)
	case StatusUpdate:
		return b.StatusUpdate(ctx, m)
	case ProcessComplete:
		return b.ProcessComplete(ctx, m)
	}
	return failed(fmt.Errorf("%w: %T", ErrUnknownAction, msg))
}

// Service API

func (b *Background) APIRequest(ctx context.Context, m APIRequest) DataReply {
	if b.opts.API == nil {
		return DataReply{Result: failed(errors.New("service API is not configured"))}
	}
	b.io.Lock()
	defer b.io.Unlock()

	method := strings.ToUpper(m.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body any
	if len(m.Data) > 0 {
		body = m.Data
	}
	data, err := b.opts.API.Raw(ctx, method, m.URL, body)
	if err != nil {
		reply := DataReply{Result: failed(err), Status: http.StatusBadGateway}
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			reply.Status = apiErr.Code
		}
		return reply
	}
	return DataReply{Result: ok(), Status: http.StatusOK, Data: data}
}

// LLM providers

func (b *Background) ollama(endpoint, model string) *llm.Ollama {
	if endpoint == "" {
		endpoint = b.opts.OllamaEndpoint
	}
	return llm.NewOllama(endpoint, model, b.opts.HTTPClient)
}

func (b *Background) keySource(settingsID string) (llm.KeySource, error) {
	if settingsID == "" {
		return nil, errors.New("missing AI settings id for hosted provider")
	}
	if b.opts.API == nil {
		return nil, errors.New("service API is not configured")
	}
	return b.opts.API.KeySource(settingsID), nil
}

func (b *Background) complete(ctx context.Context, p llm.Provider, req llm.Request) CompletionReply {
	b.io.Lock()
	defer b.io.Unlock()

	out, err := p.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return CompletionReply{Result: failed(err), Stopped: true}
		}
		return CompletionReply{Result: failed(err)}
	}
	return CompletionReply{Result: ok(), Completion: out}
}

func (b *Background) CallOllama(ctx context.Context, m CallOllama) CompletionReply {
	return b.complete(ctx, b.ollama(m.Endpoint, m.Data.Model), m.Data)
}

func (b *Background) TestOllama(ctx context.Context, m TestOllama) TestReply {
	b.io.Lock()
	defer b.io.Unlock()

	model := m.Model
	if model == "" {
		model = llm.DefaultOllamaModel
	}
	o := b.ollama(m.Endpoint, model)
	msg, err := o.Test(ctx)
	if err != nil {
		reply := TestReply{Result: failed(err)}
		if reply.Troubleshooting == "" {
			reply.Troubleshooting = "Make sure Ollama is running (ollama serve) and reachable at " + o.Endpoint()
		}
		return reply
	}
	names, _ := o.ListModels(ctx)
	return TestReply{Result: ok(), Message: msg, Models: names}
}

func (b *Background) OllamaRequest(ctx context.Context, m OllamaRequest) DataReply {
	b.io.Lock()
	defer b.io.Unlock()

	method := strings.ToUpper(m.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body any
	if len(m.Data) > 0 {
		body = m.Data
	}
	data, err := b.ollama(m.Endpoint, "").Raw(ctx, method, m.URL, body)
	if err != nil {
		reply := DataReply{Result: failed(err), Status: http.StatusBadGateway}
		var se *llm.StatusError
		if errors.As(err, &se) {
			reply.Status = se.Code
		}
		return reply
	}
	return DataReply{Result: ok(), Status: http.StatusOK, Data: data}
}

func (b *Background) CallOpenAI(ctx context.Context, m CallOpenAI) CompletionReply {
	key, err := b.keySource(m.SettingsID)
	if err != nil {
		return CompletionReply{Result: failed(err)}
	}
	return b.complete(ctx, llm.NewOpenAI(m.Endpoint, m.Data.Model, key, b.opts.HTTPClient), m.Data)
}

func (b *Background) TestOpenAI(ctx context.Context, m TestOpenAI) TestReply {
	key, err := b.keySource(m.SettingsID)
	if err != nil {
		return TestReply{Result: failed(err)}
	}
	b.io.Lock()
	defer b.io.Unlock()

	msg, err := llm.NewOpenAI(m.Endpoint, m.Model, key, b.opts.HTTPClient).Test(ctx)
	if err != nil {
		return TestReply{Result: failed(err)}
	}
	return TestReply{Result: ok(), Message: msg}
}

func (b *Background) CallGemini(ctx context.Context, m CallGemini) CompletionReply {
	key, err := b.keySource(m.SettingsID)
	if err != nil {
		return CompletionReply{Result: failed(err)}
	}
	return b.complete(ctx, llm.NewGemini(m.Data.Model, key), m.Data)
}

// Users and résumés

func (b *Background) RegisterUser(ctx context.Context, m RegisterUser) UserReply {
	if b.opts.API == nil {
		return UserReply{Result: failed(errors.New("service API is not configured"))}
	}
	b.io.Lock()
	defer b.io.Unlock()

	u, err := b.opts.API.Register(ctx, m.RegisterRequest)
	if err != nil {
		return UserReply{Result: failed(err)}
	}
	return UserReply{Result: ok(), User: u}
}

func (b *Background) LoginUser(ctx context.Context, m LoginUser) UserReply {
	u, err := b.login(ctx, m.Email, m.Password)
	if err != nil {
		return UserReply{Result: failed(err)}
	}
	return UserReply{Result: ok(), User: u, Token: u.Token}
}

func (b *Background) login(ctx context.Context, email, password string) (*models.User, error) {
	if b.opts.API == nil {
		return nil, errors.New("service API is not configured")
	}
	b.io.Lock()
	defer b.io.Unlock()

	resp, err := b.opts.API.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	u := resp.User
	u.Token = resp.Token
	if b.opts.Storage != nil {
		if err := b.opts.Storage.SaveLogin(u); err != nil {
			log.Printf("⚠️ Could not persist login: %v", err)
		}
	}
	log.Printf("✅ Logged in as %s", u.Email)
	return &u, nil
}

func (b *Background) LogoutUser(ctx context.Context, _ LogoutUser) Result {
	b.mu.Lock()
	if b.running {
		b.token.Cancel("logged out")
	}
	b.mu.Unlock()

	if b.opts.API != nil {
		b.opts.API.SetToken("")
	}
	if b.opts.Storage != nil {
		if err := b.opts.Storage.Logout(); err != nil {
			return failed(err)
		}
	}
	return ok()
}

func (b *Background) currentUser() *models.User {
	if b.opts.Storage == nil {
		return nil
	}
	return b.opts.Storage.CurrentUser()
}

func (b *Background) GetCurrentUser(context.Context, GetCurrentUser) UserReply {
	u := b.currentUser()
	if u == nil {
		return UserReply{Result: failed(ErrNotLoggedIn)}
	}
	u.Token = ""
	return UserReply{Result: ok(), User: u}
}

func (b *Background) userID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if u := b.currentUser(); u != nil {
		return u.ID, nil
	}
	return "", ErrNotLoggedIn
}

func (b *Background) GetUserProfile(ctx context.Context, m GetUserProfile) ProfileReply {
	id, err := b.userID(m.UserID)
	if err != nil || b.opts.API == nil {
		return ProfileReply{Result: failed(errors.Join(err, b.requireAPI()))}
	}
	b.io.Lock()
	defer b.io.Unlock()

	p, err := b.opts.API.GetProfile(ctx, id)
	if err != nil {
		return ProfileReply{Result: failed(err)}
	}
	return ProfileReply{Result: ok(), Profile: p}
}

func (b *Background) UpdateUserProfile(ctx context.Context, m UpdateUserProfile) UserReply {
	id, err := b.userID(m.UserID)
	if err != nil || b.opts.API == nil {
		return UserReply{Result: failed(errors.Join(err, b.requireAPI()))}
	}
	b.io.Lock()
	defer b.io.Unlock()

	u, err := b.opts.API.UpdateUser(ctx, id, m.Data)
	if err != nil {
		return UserReply{Result: failed(err)}
	}
	return UserReply{Result: ok(), User: u}
}

func (b *Background) UploadResume(ctx context.Context, m UploadResume) ResumeReply {
	id, err := b.userID(m.UserID)
	if err != nil || b.opts.API == nil {
		return ResumeReply{Result: failed(errors.Join(err, b.requireAPI()))}
	}
	if len(m.FileData) == 0 {
		return ResumeReply{Result: failed(errors.New("empty résumé file"))}
	}
	b.io.Lock()
	defer b.io.Unlock()

	r, err := b.opts.API.UploadResume(ctx, id, m.FileName, m.FileData, m.FormData)
	if err != nil {
		return ResumeReply{Result: failed(err)}
	}
	return ResumeReply{Result: ok(), Resume: r}
}

func (b *Background) DownloadResume(ctx context.Context, m DownloadResume) FileReply {
	if err := b.requireAPI(); err != nil {
		return FileReply{Result: failed(err)}
	}
	b.io.Lock()
	defer b.io.Unlock()

	data, err := b.opts.API.DownloadResume(ctx, m.ResumeID)
	if err != nil {
		return FileReply{Result: failed(err)}
	}
	name := m.FileName
	if name == "" {
		name = "resume-" + m.ResumeID
	}
	return FileReply{Result: ok(), FileName: name, Data: data}
}

func (b *Background) requireAPI() error {
	if b.opts.API == nil {
		return errors.New("service API is not configured")
	}
	return nil
}

// Status from the page side

func (b *Background) StatusUpdate(_ context.Context, m StatusUpdate) Result {
	sev := m.Status
	if sev == "" {
		sev = status.Info
	}
	e := status.Event{Text: m.Text, Severity: sev, Time: b.opts.Now()}

	b.mu.Lock()
	events := b.events
	b.mu.Unlock()

	events.Emit(e)
	for _, s := range b.opts.Sinks {
		s.Emit(e)
	}
	return ok()
}

// ProcessComplete records the session summary. The session slot is released by
// the session goroutine itself, once the board has been released.
func (b *Background) ProcessComplete(_ context.Context, m ProcessComplete) Result {
	b.mu.Lock()
	events := b.events
	b.mu.Unlock()

	events.Complete(m.Summary)
	for _, s := range b.opts.Sinks {
		s.Complete(m.Summary)
	}
	return ok()
}

// Events returns buffered status events after seq, for the launcher's polling.
func (b *Background) Events(since int) []status.Event {
	b.mu.Lock()
	events := b.events
	b.mu.Unlock()
	return events.Since(since)
}
