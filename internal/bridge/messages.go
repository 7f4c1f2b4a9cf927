// Package bridge is the privileged side of the engine: it owns the session state,
// performs every external call and answers tagged messages from the page side.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-easyapply-automation/internal/api"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/status"
)

var ErrUnknownAction = errors.New("unknown action")

// Message is one request variant. Action is the envelope tag.
type Message interface {
	Action() string
}

// Result is embedded in every reply.
type Result struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	Troubleshooting string `json:"troubleshooting,omitempty"`
}

func ok() Result { return Result{Success: true} }

func failed(err error) Result {
	r := Result{Error: err.Error()}
	var se *llm.StatusError
	if errors.As(err, &se) {
		r.Troubleshooting = se.Troubleshooting
	}
	return r
}

type APIRequest struct {
	Method string          `json:"method"`
	URL    string          `json:"url"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type CallOllama struct {
	Endpoint string      `json:"endpoint,omitempty"`
	Data     llm.Request `json:"data"`
}

type TestOllama struct {
	Endpoint string `json:"endpoint,omitempty"`
	Model    string `json:"model,omitempty"`
}

type OllamaRequest struct {
	Endpoint string          `json:"endpoint,omitempty"`
	Method   string          `json:"method"`
	URL      string          `json:"url"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// CallOpenAI names the AI settings whose sealed key is fetched for this call only.
type CallOpenAI struct {
	SettingsID string      `json:"settingsId"`
	Endpoint   string      `json:"endpoint,omitempty"`
	Data       llm.Request `json:"data"`
}

type TestOpenAI struct {
	SettingsID string `json:"settingsId"`
	Endpoint   string `json:"endpoint,omitempty"`
	Model      string `json:"model,omitempty"`
}

type CallGemini struct {
	SettingsID string      `json:"settingsId"`
	Data       llm.Request `json:"data"`
}

type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StartAutoApply falls back to the stored login and the user's default AI settings.
type StartAutoApply struct {
	LoginData  *LoginData         `json:"loginData,omitempty"`
	AISettings *models.AISettings `json:"aiSettings,omitempty"`
}

type StopAutoApply struct{}

type GetAutoApplyState struct{}

type UploadResume struct {
	UserID   string            `json:"userId"`
	FileName string            `json:"fileName"`
	FileData []byte            `json:"fileData"`
	FormData map[string]string `json:"formData,omitempty"`
}

type DownloadResume struct {
	ResumeID string `json:"resumeId"`
	FileName string `json:"fileName,omitempty"`
}

type RegisterUser struct {
	api.RegisterRequest
}

type LoginUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LogoutUser struct{}

type GetCurrentUser struct{}

type GetUserProfile struct {
	UserID string `json:"userId,omitempty"`
}

type UpdateUserProfile struct {
	UserID string         `json:"userId,omitempty"`
	Data   api.UserUpdate `json:"data"`
}

type StatusUpdate struct {
	Text   string          `json:"text"`
	Status status.Severity `json:"status"`
}

type ProcessComplete struct {
	Summary status.Summary `json:"summary"`
}

func (APIRequest) Action() string        { return "apiRequest" }
func (CallOllama) Action() string        { return "callOllama" }
func (TestOllama) Action() string        { return "testOllama" }
func (OllamaRequest) Action() string     { return "ollamaRequest" }
func (CallOpenAI) Action() string        { return "callOpenAI" }
func (TestOpenAI) Action() string        { return "testOpenAI" }
func (CallGemini) Action() string        { return "callGemini" }
func (StartAutoApply) Action() string    { return "startAutoApply" }
func (StopAutoApply) Action() string     { return "stopAutoApply" }
func (GetAutoApplyState) Action() string { return "getAutoApplyState" }
func (UploadResume) Action() string      { return "uploadResume" }
func (DownloadResume) Action() string    { return "downloadResume" }
func (RegisterUser) Action() string      { return "registerUser" }
func (LoginUser) Action() string         { return "loginUser" }
func (LogoutUser) Action() string        { return "logoutUser" }
func (GetCurrentUser) Action() string    { return "getCurrentUser" }
func (GetUserProfile) Action() string    { return "getUserProfile" }
func (UpdateUserProfile) Action() string { return "updateUserProfile" }
func (StatusUpdate) Action() string      { return "STATUS_UPDATE" }
func (ProcessComplete) Action() string   { return "PROCESS_COMPLETE" }

var variants = map[string]func() Message{}

func register(fns ...func() Message) {
	for _, fn := range fns {
		variants[fn().Action()] = fn
	}
}

func init() {
	register(
		func() Message { return &APIRequest{} },
		func() Message { return &CallOllama{} },
		func() Message { return &TestOllama{} },
		func() Message { return &OllamaRequest{} },
		func() Message { return &CallOpenAI{} },
		func() Message { return &TestOpenAI{} },
		func() Message { return &CallGemini{} },
		func() Message { return &StartAutoApply{} },
		func() Message { return &StopAutoApply{} },
		func() Message { return &GetAutoApplyState{} },
		func() Message { return &UploadResume{} },
		func() Message { return &DownloadResume{} },
		func() Message { return &RegisterUser{} },
		func() Message { return &LoginUser{} },
		func() Message { return &LogoutUser{} },
		func() Message { return &GetCurrentUser{} },
		func() Message { return &GetUserProfile{} },
		func() Message { return &UpdateUserProfile{} },
		func() Message { return &StatusUpdate{} },
		func() Message { return &ProcessComplete{} },
	)
}

// Decode reads an {"action": ..., ...} envelope into its variant.
// The returned Message is a pointer to the variant struct.
func Decode(data []byte) (Message, error) {
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	fn, found := variants[env.Action]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
	msg := fn()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", env.Action, err)
	}
	return msg, nil
}

// Encode writes m as an envelope with its action tag.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Action(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Action(), err)
	}
	tag, _ := json.Marshal(m.Action())
	fields["action"] = tag
	return json.Marshal(fields)
}

// Replies

// DataReply carries the upstream status code so page-side clients can tell a 404 from an outage.
type DataReply struct {
	Result
	Status int             `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type CompletionReply struct {
	Result
	Stopped    bool            `json:"stopped,omitempty"`
	Completion *llm.Completion `json:"completion,omitempty"`
}

type TestReply struct {
	Result
	Message string   `json:"message,omitempty"`
	Models  []string `json:"models,omitempty"`
}

type UserReply struct {
	Result
	User  *models.User `json:"user,omitempty"`
	Token string       `json:"token,omitempty"`
}

type ProfileReply struct {
	Result
	Profile map[string]any `json:"profile,omitempty"`
}

type ResumeReply struct {
	Result
	Resume *models.Resume `json:"resume,omitempty"`
}

type FileReply struct {
	Result
	FileName string `json:"fileName,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// State is what the launcher polls while a session runs.
type State struct {
	Running    bool            `json:"running"`
	StartedAt  *string         `json:"startedAt,omitempty"`
	Events     int             `json:"events"`
	LastStatus *status.Event   `json:"lastStatus,omitempty"`
	Summary    *status.Summary `json:"summary,omitempty"`
}

type StateReply struct {
	Result
	State State `json:"state"`
}
