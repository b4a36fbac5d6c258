package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/config"
	apperrors "github.com/wanderpaws/wanderpaws/pkg/errors"
)

const testJWTSecret = "test-secret"

type stubItinerary struct {
	generateFn func(ctx context.Context, req trip.Request) (itinerary.Result, error)
}

func (s *stubItinerary) Generate(ctx context.Context, req trip.Request) (itinerary.Result, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, req)
	}
	return itinerary.Result{}, nil
}

type stubChatBuilder struct {
	converseFn func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error)
}

func (s *stubChatBuilder) Converse(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
	if s.converseFn != nil {
		return s.converseFn(ctx, userID, req)
	}
	return chatbuilder.Response{}, nil
}

func newRouterUnderTest(t *testing.T, itinerarySvc itinerary.Service, chatSvc chatbuilder.Service) *http.Server {
	t.Helper()
	handler := NewHandler(itinerarySvc, chatSvc, time.Minute, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth: config.AuthConfig{JWTSecret: testJWTSecret},
	}
	return NewRouter(cfg, handler, newTestLogger())
}

func performRequest(path, body string, server *http.Server) *httptest.ResponseRecorder {
	return performAuthedRequest(path, body, "", server)
}

func performAuthedRequest(path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func validTripJSON() string {
	return `{
		"origin":"Boston","originCountry":"United States",
		"destination":"Lisbon","destinationCountry":"Portugal",
		"startDate":"2025-06-01","endDate":"2025-06-04",
		"adults":2,"pets":1,"petDetails":[{"type":"Dog","size":"Medium"}],
		"budget":"Moderate","accommodation":"Boutique Hotel",
		"interests":["Sightseeing"]
	}`
}

func TestRouter_Healthz(t *testing.T) {
	server := newRouterUnderTest(t, &stubItinerary{}, &stubChatBuilder{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_EnhancedItinerarySuccess(t *testing.T) {
	expected := itinerary.Result{DestinationSlug: "portugal"}
	svc := &stubItinerary{
		generateFn: func(ctx context.Context, req trip.Request) (itinerary.Result, error) {
			require.Equal(t, "Lisbon", req.Destination)
			_, hasDeadline := ctx.Deadline()
			require.True(t, hasDeadline, "generation context must carry the deadline")
			return expected, nil
		},
	}

	recorder := performRequest("/api/ai/enhanced-itinerary", validTripJSON(), newRouterUnderTest(t, svc, &stubChatBuilder{}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got itinerary.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "portugal", got.DestinationSlug)
}

func TestRouter_EnhancedItineraryInvalidInput(t *testing.T) {
	svc := &stubItinerary{
		generateFn: func(ctx context.Context, req trip.Request) (itinerary.Result, error) {
			return itinerary.Result{}, apperrors.Wrap("invalid_input", "destination is required", nil)
		},
	}

	recorder := performRequest("/api/ai/enhanced-itinerary", `{"origin":"Boston"}`, newRouterUnderTest(t, svc, &stubChatBuilder{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_input", errBody["error"]["code"])
}

func TestRouter_EnhancedItineraryMalformedJSON(t *testing.T) {
	recorder := performRequest("/api/ai/enhanced-itinerary", `{"adults":"two"}`, newRouterUnderTest(t, &stubItinerary{}, &stubChatBuilder{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_ChatBuilderSuccess(t *testing.T) {
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			require.Empty(t, userID)
			require.Equal(t, "hello", req.MessageContent)
			return chatbuilder.Response{Reply: "hi!", ThreadID: "thread-1"}, nil
		},
	}

	recorder := performRequest("/api/chat-builder", `{"messageContent":"hello"}`, newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got chatbuilder.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "hi!", got.Reply)
	require.Equal(t, "thread-1", got.ThreadID)
}

func TestRouter_ChatBuilderUnconfigured(t *testing.T) {
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			resp := chatbuilder.Response{Reply: "The trip assistant is not available right now."}
			return resp, apperrors.Wrap("llm_unconfigured", "assistant client is not configured", nil)
		},
	}

	recorder := performRequest("/api/chat-builder", `{"messageContent":"hello"}`, newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var got chatbuilder.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.NotEmpty(t, got.Reply)
}

func TestRouter_ChatBuilderTimeoutKeepsPartialState(t *testing.T) {
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			resp := chatbuilder.Response{
				Reply:           "I'm sorry, that took longer than expected.",
				ThreadID:        "thread-1",
				UpdatedTripData: &trip.State{Destination: "Lisbon"},
			}
			return resp, apperrors.Wrap("chat_timeout", "assistant run exceeded its deadline", nil)
		},
	}

	recorder := performRequest("/api/chat-builder", `{"messageContent":"hello"}`, newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusGatewayTimeout, recorder.Code)

	var got chatbuilder.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.NotEmpty(t, got.Reply)
	require.Equal(t, "thread-1", got.ThreadID)
	require.Equal(t, "Lisbon", got.UpdatedTripData.Destination)
}

func TestRouter_ChatBuilderFailureKeepsReplyShape(t *testing.T) {
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			resp := chatbuilder.Response{ThreadID: "thread-1"}
			return resp, apperrors.Wrap("chat_failed", "assistant run ended with status \"failed\"", nil)
		},
	}

	recorder := performRequest("/api/chat-builder", `{"messageContent":"hello"}`, newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var got chatbuilder.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.NotEmpty(t, got.Reply, "a missing service reply is backfilled")
	require.Equal(t, "thread-1", got.ThreadID)
}

func TestRouter_IdentityFromBearerToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-42"}).
		SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	var seenUserID string
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			seenUserID = userID
			return chatbuilder.Response{Reply: "ok"}, nil
		},
	}

	recorder := performAuthedRequest("/api/chat-builder", `{"messageContent":"hello"}`, token, newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "user-42", seenUserID)
}

func TestRouter_IdentityIgnoresBadToken(t *testing.T) {
	var seenUserID string
	svc := &stubChatBuilder{
		converseFn: func(ctx context.Context, userID string, req chatbuilder.Request) (chatbuilder.Response, error) {
			seenUserID = userID
			return chatbuilder.Response{Reply: "ok"}, nil
		},
	}

	recorder := performAuthedRequest("/api/chat-builder", `{"messageContent":"hello"}`, "not-a-jwt", newRouterUnderTest(t, &stubItinerary{}, svc))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, seenUserID)
}
