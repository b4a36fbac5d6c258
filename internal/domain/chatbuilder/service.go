package chatbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	apperr "github.com/wanderpaws/wanderpaws/pkg/errors"
)

// systemUpdatePrefix marks a client-originated state notification. Such turns
// update the thread context without ever starting an assistant run.
const systemUpdatePrefix = "SYSTEM_UPDATE:"

const timeoutReply = "I'm sorry, that took longer than expected. Your trip details are safe; please try again."

const failureReply = "I'm sorry, something went wrong on my side. Your trip details are safe; please try again."

const unavailableReply = "The trip assistant is not available right now. Please try again later."

// Service drives one conversational trip-building turn at a time.
type Service interface {
	Converse(ctx context.Context, userID string, req Request) (Response, error)
}

type service struct {
	cfg      Config
	assist   AssistantClient
	search   SearchClient
	policies PolicyRepository
	profiles ProfileRepository
	logger   *slog.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewService(cfg Config, assist AssistantClient, search SearchClient, policies PolicyRepository, profiles ProfileRepository, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		assist:   assist,
		search:   search,
		policies: policies,
		profiles: profiles,
		logger:   logger.With("component", "chatbuilder.service"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Converse runs one turn: ensure a thread, post context and the user message,
// then poll the run until it finishes, executing tool calls along the way.
// The returned Response is meaningful even alongside an error.
func (s *service) Converse(ctx context.Context, userID string, req Request) (Response, error) {
	resp := Response{ThreadID: req.ThreadID}

	if strings.HasPrefix(req.MessageContent, systemUpdatePrefix) {
		return s.handleSystemUpdate(ctx, req)
	}
	if !s.assist.Configured() {
		resp.Reply = unavailableReply
		return resp, apperr.Wrap("llm_unconfigured", "assistant client is not configured", nil)
	}

	sess := &session{state: req.CurrentTripData, userID: userID}
	s.loadProfile(ctx, sess)

	threadID, err := s.ensureThread(ctx, req.ThreadID)
	if err != nil {
		resp.Reply = failureReply
		return resp, apperr.Wrap("chat_failed", "could not open conversation thread", err)
	}
	resp.ThreadID = threadID

	if !sess.state.IsEmpty() {
		if err := s.assist.AddThreadMessage(ctx, threadID, "user", s.contextMessage(sess.state)); err != nil {
			resp.Reply = failureReply
			return resp, apperr.Wrap("chat_failed", "could not post trip context", err)
		}
	}
	if message := strings.TrimSpace(req.MessageContent); message != "" {
		if err := s.assist.AddThreadMessage(ctx, threadID, "user", message); err != nil {
			resp.Reply = failureReply
			return resp, apperr.Wrap("chat_failed", "could not post user message", err)
		}
	}

	run, err := s.assist.CreateRun(ctx, threadID, s.cfg.AssistantID, ToolDefinitions())
	if err != nil {
		resp.Reply = failureReply
		return resp, apperr.Wrap("chat_failed", "could not start assistant run", err)
	}

	run, err = s.pollRun(ctx, threadID, run, sess)
	if err != nil {
		if apperr.IsCode(err, "chat_timeout") {
			resp.Reply = timeoutReply
		} else {
			resp.Reply = failureReply
		}
		s.attachState(&resp, sess)
		return resp, err
	}

	switch run.Status {
	case chatgpt.RunStatusCompleted:
		reply, err := s.assist.LatestAssistantMessage(ctx, threadID)
		if err != nil {
			resp.Reply = failureReply
			s.attachState(&resp, sess)
			return resp, apperr.Wrap("chat_failed", "could not read assistant reply", err)
		}
		resp.Reply = reply
	default:
		s.logger.Warn("assistant run ended abnormally",
			"thread", threadID, "run", run.ID, "status", run.Status, "lastError", run.ErrorMessage())
		resp.Reply = failureReply
		s.attachState(&resp, sess)
		return resp, apperr.Wrap("chat_failed", fmt.Sprintf("assistant run ended with status %q", run.Status), nil)
	}

	s.attachState(&resp, sess)
	resp.TriggerItineraryGeneration = sess.trigger
	return resp, nil
}

// handleSystemUpdate records a client-side state change on the thread and
// returns synchronously. It never creates a run and never blocks on the LLM.
func (s *service) handleSystemUpdate(ctx context.Context, req Request) (Response, error) {
	resp := Response{ThreadID: req.ThreadID}
	if req.ThreadID == "" || !s.assist.Configured() {
		return resp, nil
	}
	note := strings.TrimSpace(strings.TrimPrefix(req.MessageContent, systemUpdatePrefix))
	if note == "" {
		return resp, nil
	}
	if err := s.assist.AddThreadMessage(ctx, req.ThreadID, "user", "[System note] "+note); err != nil {
		s.logger.Warn("system update not recorded", "thread", req.ThreadID, "error", err)
	}
	return resp, nil
}

func (s *service) ensureThread(ctx context.Context, threadID string) (string, error) {
	if threadID != "" {
		return threadID, nil
	}
	thread, err := s.assist.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// loadProfile folds stored preferences into the session for authenticated
// users. Failures degrade to an anonymous-style session.
func (s *service) loadProfile(ctx context.Context, sess *session) {
	if sess.userID == "" {
		return
	}
	prefs, err := s.profiles.LoadPreferences(ctx, sess.userID)
	if err != nil {
		s.logger.Warn("profile load failed", "user", sess.userID, "error", err)
		return
	}
	if len(prefs) > 0 {
		sess.state.LearnedPreferences = trip.DedupLearnedPreferences(append(prefs, sess.state.LearnedPreferences...))
	}
}

// pollRun advances the run state machine until a terminal status or the run
// deadline. requires_action executes every requested tool and submits the
// outputs as one batch. On deadline the run is cancelled best-effort.
func (s *service) pollRun(ctx context.Context, threadID string, run chatgpt.Run, sess *session) (chatgpt.Run, error) {
	deadline := s.now().Add(s.cfg.RunDeadline)
	for {
		if run.Terminal() {
			return run, nil
		}
		// The ceiling covers tool execution too, not just polling waits.
		if s.now().After(deadline) {
			s.cancelRun(threadID, run.ID)
			return run, apperr.Wrap("chat_timeout", "assistant run exceeded its deadline", nil)
		}
		if run.Status == chatgpt.RunStatusRequiresAction {
			outputs := s.executeTools(ctx, sess, run)
			next, err := s.assist.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
			if err != nil {
				return run, apperr.Wrap("chat_failed", "could not submit tool outputs", err)
			}
			run = next
			continue
		}
		if err := s.sleep(ctx, s.cfg.PollInterval); err != nil {
			s.cancelRun(threadID, run.ID)
			return run, apperr.Wrap("chat_timeout", "conversation cancelled while waiting", err)
		}
		next, err := s.assist.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return run, apperr.Wrap("chat_failed", "could not poll assistant run", err)
		}
		run = next
	}
}

func (s *service) cancelRun(threadID, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.assist.CancelRun(ctx, threadID, runID); err != nil {
		s.logger.Warn("run cancellation failed", "thread", threadID, "run", runID, "error", err)
	}
}

// executeTools runs every requested tool call. Unknown tools and handler
// panics degrade to error payloads so the batch stays complete; the assistant
// API rejects partial submissions.
func (s *service) executeTools(ctx context.Context, sess *session, run chatgpt.Run) []chatgpt.ToolOutput {
	calls := run.PendingToolCalls()
	outputs := make([]chatgpt.ToolOutput, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		handler, ok := toolRegistry[name]
		if !ok {
			s.logger.Warn("assistant requested unknown tool", "tool", name)
			outputs = append(outputs, chatgpt.ToolOutput{
				ToolCallID: call.ID,
				Output:     toolError(fmt.Sprintf("unknown tool %q", name)),
			})
			continue
		}
		result := handler.handle(ctx, s, sess, json.RawMessage(call.Function.Arguments))
		s.logger.Info("tool executed", "tool", name)
		outputs = append(outputs, chatgpt.ToolOutput{ToolCallID: call.ID, Output: result})
	}
	return outputs
}

func (s *service) attachState(resp *Response, sess *session) {
	if !sess.dirty {
		return
	}
	state := sess.state
	resp.UpdatedTripData = &state
}

// contextMessage summarizes the draft trip for the assistant, truncated to the
// configured token budget so long conversations keep fitting the window.
func (s *service) contextMessage(state trip.State) string {
	var b strings.Builder
	b.WriteString("Current trip state for reference, do not repeat it back:\n")
	encoded, err := json.Marshal(state)
	if err != nil {
		return b.String()
	}
	b.Write(encoded)
	return s.truncateToBudget(b.String())
}

func (s *service) truncateToBudget(text string) string {
	budget := s.cfg.ContextTokenBudget
	if budget <= 0 {
		return text
	}
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// rough rune fallback, ~4 chars per token
		runes := []rune(text)
		if len(runes) > budget*4 {
			return string(runes[:budget*4])
		}
		return text
	}
	tokens := encoding.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return encoding.Decode(tokens[:budget])
}
