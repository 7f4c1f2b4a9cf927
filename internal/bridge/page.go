package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/status"
)

// The types in this file run on the page side and reach the outside world only through messages.

// RemoteError is a failed reply seen from the page side.
type RemoteError struct {
	Message         string
	Troubleshooting string
}

func (e *RemoteError) Error() string {
	if e.Troubleshooting == "" {
		return e.Message
	}
	return e.Message + " (" + e.Troubleshooting + ")"
}

func replyError(r Result) error {
	return &RemoteError{Message: r.Error, Troubleshooting: r.Troubleshooting}
}

// Sink forwards engine status as STATUS_UPDATE and PROCESS_COMPLETE messages.
type Sink struct {
	bg *Background
}

func (s Sink) Emit(e status.Event) {
	s.bg.Handle(context.Background(), StatusUpdate{Text: e.Text, Status: e.Severity})
}

func (s Sink) Complete(sum status.Summary) {
	s.bg.Handle(context.Background(), ProcessComplete{Summary: sum})
}

// messageTransport turns service API requests into APIRequest messages, so
// the page side never holds the bearer token.
type messageTransport struct {
	bg *Background
}

func (t *messageTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var data json.RawMessage
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(body) > 0 {
			data = body
		}
	}

	reply := t.bg.APIRequest(req.Context(), APIRequest{Method: req.Method, URL: req.URL.String(), Data: data})

	code, body := reply.Status, []byte(reply.Data)
	if !reply.Success {
		if code == 0 {
			code = http.StatusBadGateway
		}
		body, _ = json.Marshal(map[string]string{"error": reply.Error})
	}
	if code == 0 {
		code = http.StatusOK
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", code, http.StatusText(code)),
		StatusCode:    code,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {"application/json"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// RemoteProvider is the llm.Provider the page side uses. Hosted keys stay in the background.
type RemoteProvider struct {
	bg       *Background
	settings models.AISettings
}

func (p *RemoteProvider) Name() string {
	return llm.Kind(p.settings.Provider)
}

func (p *RemoteProvider) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	var reply CompletionReply
	switch llm.Kind(p.settings.Provider) {
	case llm.KindOllama:
		reply = p.bg.CallOllama(ctx, CallOllama{Endpoint: p.settings.Endpoint, Data: req})
	case llm.KindOpenAI:
		reply = p.bg.CallOpenAI(ctx, CallOpenAI{SettingsID: p.settings.ID, Endpoint: p.settings.Endpoint, Data: req})
	case llm.KindGemini:
		reply = p.bg.CallGemini(ctx, CallGemini{SettingsID: p.settings.ID, Data: req})
	default:
		return nil, fmt.Errorf("unknown AI provider %q", p.settings.Provider)
	}
	if reply.Stopped {
		return nil, cancel.ErrStopped
	}
	if !reply.Success {
		return nil, replyError(reply.Result)
	}
	return reply.Completion, nil
}

func (p *RemoteProvider) Test(ctx context.Context) (string, error) {
	var reply TestReply
	switch llm.Kind(p.settings.Provider) {
	case llm.KindOllama:
		reply = p.bg.TestOllama(ctx, TestOllama{Endpoint: p.settings.Endpoint, Model: p.settings.Model})
	case llm.KindOpenAI:
		reply = p.bg.TestOpenAI(ctx, TestOpenAI{SettingsID: p.settings.ID, Endpoint: p.settings.Endpoint, Model: p.settings.Model})
	default:
		return "", llm.ErrNotSupported
	}
	if !reply.Success {
		return "", replyError(reply.Result)
	}
	return reply.Message, nil
}

func (p *RemoteProvider) ListModels(ctx context.Context) ([]string, error) {
	if llm.Kind(p.settings.Provider) != llm.KindOllama {
		return nil, llm.ErrNotSupported
	}
	reply := p.bg.TestOllama(ctx, TestOllama{Endpoint: p.settings.Endpoint, Model: p.settings.Model})
	if !reply.Success {
		return nil, replyError(reply.Result)
	}
	return reply.Models, nil
}

var (
	_ llm.Provider = (*RemoteProvider)(nil)
	_ status.Sink  = Sink{}
)
