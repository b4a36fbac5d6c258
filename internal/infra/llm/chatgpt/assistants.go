package chatgpt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Run statuses reported by the assistants API.
const (
	RunStatusQueued         = "queued"
	RunStatusInProgress     = "in_progress"
	RunStatusRequiresAction = "requires_action"
	RunStatusCompleted      = "completed"
	RunStatusFailed         = "failed"
	RunStatusCancelled      = "cancelled"
	RunStatusExpired        = "expired"
)

// Thread is a stateful assistant conversation.
type Thread struct {
	ID string `json:"id"`
}

// ThreadMessage is one message stored on a thread.
type ThreadMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// Text joins the textual content blocks of a thread message.
func (m ThreadMessage) Text() string {
	out := ""
	for _, block := range m.Content {
		if block.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += block.Text.Value
	}
	return out
}

// Run is one assistant execution over a thread.
type Run struct {
	ID             string `json:"id"`
	ThreadID       string `json:"thread_id"`
	Status         string `json:"status"`
	LastError      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action"`
}

// PendingToolCalls returns the tool calls a requires_action run is waiting on.
func (r Run) PendingToolCalls() []ToolCall {
	if r.RequiredAction == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// ErrorMessage returns the provider-reported failure message, if any.
func (r Run) ErrorMessage() string {
	if r.LastError == nil {
		return ""
	}
	return r.LastError.Message
}

// Terminal reports whether the run can make no further progress.
func (r Run) Terminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// ToolOutput is the result of executing one requested tool call.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// CreateThread starts an empty assistant thread.
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var out Thread
	body, err := c.do(ctx, http.MethodPost, "/threads", map[string]any{})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode thread: %w", err)
	}
	return out, nil
}

// AddThreadMessage appends a message to a thread.
func (c *Client) AddThreadMessage(ctx context.Context, threadID, role, content string) error {
	_, err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", map[string]any{
		"role":    role,
		"content": content,
	})
	return err
}

// CreateRun queues an assistant run on the thread. A non-empty tools slice
// overrides the assistant's configured tool set for this run.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string, tools []Tool) (Run, error) {
	var out Run
	payload := map[string]any{"assistant_id": assistantID}
	if len(tools) > 0 {
		payload["tools"] = tools
	}
	body, err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode run: %w", err)
	}
	return out, nil
}

// RetrieveRun fetches the current run state.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	var out Run
	body, err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode run: %w", err)
	}
	return out, nil
}

// SubmitToolOutputs answers every pending tool call of a run in one batch.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Run, error) {
	var out Run
	body, err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", map[string]any{
		"tool_outputs": outputs,
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode run: %w", err)
	}
	return out, nil
}

// CancelRun asks the provider to stop an in-flight run.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	_, err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/cancel", map[string]any{})
	return err
}

// LatestAssistantMessage returns the newest assistant text on the thread, or "".
func (c *Client) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=desc&limit=10", nil)
	if err != nil {
		return "", err
	}
	var wire struct {
		Data []ThreadMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", fmt.Errorf("decode messages: %w", err)
	}
	for _, msg := range wire.Data {
		if msg.Role == "assistant" {
			if text := msg.Text(); text != "" {
				return text, nil
			}
		}
	}
	return "", nil
}
