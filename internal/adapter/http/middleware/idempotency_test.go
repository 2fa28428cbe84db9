package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	releaseFn     func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, key)
	}
	return nil
}

const transferBody = `{"accountFromId":"A","accountToId":"B","amount":10}`

func newTransferRequest(key string) *http.Request {
	return newTransferRequestWithBody(key, transferBody)
}

func newTransferRequestWithBody(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/transfer", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newTransferRequest("key-err"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func storedRecord(t *testing.T, body string, status int, response string) []byte {
	t.Helper()

	record, err := json.Marshal(storedResponse{
		RequestHash: hashBody([]byte(body)),
		Status:      status,
		ContentType: "application/json",
		Body:        []byte(response),
	})
	if err != nil {
		t.Fatalf("failed to encode record: %v", err)
	}
	return record
}

func TestIdempotencyMiddleware_ScopesKeyToEndpoint(t *testing.T) {
	var claimed string
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			claimed = key
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), newTransferRequest("key-1"))

	if claimed != "POST /api/v1/accounts/transfer:key-1" {
		t.Fatalf("unexpected scoped key %q", claimed)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyOnFailedResponse(t *testing.T) {
	var updated bool
	var released string
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			released = key
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})).ServeHTTP(rr, newTransferRequest("key-fail"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if released != "POST /api/v1/accounts/transfer:key-fail" {
		t.Fatalf("expected key-fail to be released, got %q", released)
	}
}

func TestIdempotencyMiddleware_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	var released string
	store := &fakeIdempotencyStore{
		releaseFn: func(ctx context.Context, key string) error {
			released = key
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() {
			if p := recover(); p != "boom" {
				t.Fatalf("expected panic to propagate, got %v", p)
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), newTransferRequest("key-panic"))
	}()

	if released != "POST /api/v1/accounts/transfer:key-panic" {
		t.Fatalf("expected key to be released after panic, got %q", released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatalf("store should not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/Id-1", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_SkipsRequestsWithoutKey(t *testing.T) {
	mw := NewIdempotencyMiddleware(&fakeIdempotencyStore{}, time.Hour, zerolog.Nop())

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(httptest.NewRecorder(), newTransferRequest(""))

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "created", status: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeIdempotencyStore{
				checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
					return true, storedRecord(t, transferBody, tt.status, `{"transactionId":"01J"}`), nil
				},
			}
			mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

			rr := httptest.NewRecorder()
			mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("handler should not be called when cached response exists")
			})).ServeHTTP(rr, newTransferRequest("key-123"))

			if rr.Code != tt.status {
				t.Fatalf("expected replayed status %d, got %d", tt.status, rr.Code)
			}
			if rr.Header().Get("X-Idempotency-Replay") != "true" {
				t.Fatalf("expected X-Idempotency-Replay header to be set")
			}
			if got := rr.Body.String(); got != `{"transactionId":"01J"}` {
				t.Fatalf("unexpected cached body: %s", got)
			}
		})
	}
}

func TestIdempotencyMiddleware_RejectsDifferentPayload(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, storedRecord(t, transferBody, http.StatusOK, `{"transactionId":"01J"}`), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run for a reused key")
	})).ServeHTTP(rr, newTransferRequestWithBody("key-123", `{"accountFromId":"A","accountToId":"B","amount":99}`))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_InProgressKeyConflicts(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(processingPlaceholder), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the key is in progress")
	})).ServeHTTP(rr, newTransferRequest("key-busy"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	var record []byte
	var updatedTTL time.Duration
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			record = append([]byte(nil), response...)
			updatedTTL = ttl
			return nil
		},
		releaseFn: func(ctx context.Context, key string) error {
			t.Fatalf("successful responses must not release the key")
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 30*time.Minute, zerolog.Nop())

	var seenBody string
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seenBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(rr, newTransferRequest("key-456"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}
	if seenBody != transferBody {
		t.Fatalf("handler must still see the request body, got %q", seenBody)
	}

	var stored storedResponse
	if err := json.Unmarshal(record, &stored); err != nil {
		t.Fatalf("stored record is not json: %v", err)
	}
	if stored.Status != http.StatusCreated || string(stored.Body) != `{"ok":true}` {
		t.Fatalf("unexpected stored response %+v", stored)
	}
	if stored.RequestHash != hashBody([]byte(transferBody)) {
		t.Fatalf("expected request hash to be stored")
	}
	if updatedTTL != 30*time.Minute {
		t.Fatalf("expected configured ttl, got %s", updatedTTL)
	}
}
