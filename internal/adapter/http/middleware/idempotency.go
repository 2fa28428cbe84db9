package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	processingPlaceholder = "processing"
)

// storedResponse is what a completed request leaves under its key.
type storedResponse struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a request that was
// already served under the same Idempotency-Key. Keys are scoped to the
// method and path, and a replay must carry the same body.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		clientKey := r.Header.Get(IdempotencyKeyHeader)
		if clientKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := scopedKey(r, clientKey)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		requestHash := hashBody(body)

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if exists {
			m.replay(w, key, requestHash, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		m.serve(recorder, r, next, key)

		// The request may be cancelled once the response is written.
		ctx := context.WithoutCancel(r.Context())

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			// Failed requests may be retried with the same key.
			m.release(ctx, key)
			return
		}

		record, err := json.Marshal(storedResponse{
			RequestHash: requestHash,
			Status:      recorder.statusCode,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err == nil {
			err = m.store.Update(ctx, key, record, m.ttl)
		}
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
		}
	})
}

// serve runs next and releases key if it panics, so the key does not stay
// in progress until it expires.
func (m *IdempotencyMiddleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler, key string) {
	defer func() {
		if p := recover(); p != nil {
			m.release(context.WithoutCancel(r.Context()), key)
			panic(p)
		}
	}()

	next.ServeHTTP(w, r)
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, key, requestHash string, cached []byte) {
	if cached == nil || string(cached) == processingPlaceholder {
		http.Error(w, "request with this idempotency key is in progress", http.StatusConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil {
		m.logger.Error().Err(err).Str("idempotency_key", key).Msg("corrupt idempotent response")
		http.Error(w, "idempotency check failed", http.StatusInternalServerError)
		return
	}

	if stored.RequestHash != requestHash {
		http.Error(w, "idempotency key was used with a different request", http.StatusUnprocessableEntity)
		return
	}

	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Idempotency-Replay", "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}

func (m *IdempotencyMiddleware) release(ctx context.Context, key string) {
	if err := m.store.Release(ctx, key); err != nil {
		m.logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
	}
}

// scopedKey ties a client key to the endpoint it was first used on.
// /api/v1/accounts and /api/v1/accounts/ share a scope.
func scopedKey(r *http.Request, key string) string {
	return r.Method + " " + strings.TrimSuffix(r.URL.Path, "/") + ":" + key
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
