package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func okResponse() MockResponse {
	return MockResponse{Content: json.RawMessage(`{"ok":true}`)}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		okResponse(),
	)
	p := WithRetry(mock, fastRetry(3))

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("content = %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{}},
		MockResponse{Err: &ErrProviderUnavailable{}},
		okResponse(),
	)
	p := WithRetry(mock, fastRetry(2))

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}}, okResponse())
	p := WithRetry(mock, fastRetry(3))

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}},
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad again")}},
		okResponse(),
	)
	p := WithRetry(mock, fastRetry(5))

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error after second invalid response")
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}}, okResponse())
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetry_RateLimitUsesRetryAfter(t *testing.T) {
	r := &RetryProvider{config: fastRetry(3)}
	got := r.backoff(0, &ErrRateLimit{RetryAfter: 7 * time.Second})
	if got != 7*time.Second {
		t.Errorf("backoff = %v, want 7s", got)
	}
}

func TestRetry_AuthAndFilteredNotRetried(t *testing.T) {
	for _, err := range []error{&ErrProviderAuth{Err: errors.New("bad key")}, &ErrContentFiltered{Reason: "SAFETY"}} {
		mock := NewMockProvider(MockResponse{Err: err}, okResponse())
		p := WithRetry(mock, fastRetry(3))
		if _, got := p.Generate(context.Background(), Request{}); got != err {
			t.Errorf("err = %v, want %v", got, err)
		}
		if len(mock.Calls) != 1 {
			t.Errorf("%T: calls = %d, want 1", err, len(mock.Calls))
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("sdk")

	var rl *ErrRateLimit
	if err := classifyStatus(http.StatusTooManyRequests, 3*time.Second, base); !errors.As(err, &rl) || rl.RetryAfter != 3*time.Second {
		t.Errorf("429 = %#v", err)
	}
	var auth *ErrProviderAuth
	if err := classifyStatus(http.StatusUnauthorized, 0, base); !errors.As(err, &auth) {
		t.Errorf("401 = %#v", err)
	}
	var down *ErrProviderUnavailable
	if err := classifyStatus(http.StatusBadGateway, 0, base); !errors.As(err, &down) {
		t.Errorf("502 = %#v", err)
	}
	if err := classifyStatus(0, 0, base); !errors.Is(err, base) {
		t.Errorf("no status should wrap the cause, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	if got := parseRetryAfter(h); got != 12*time.Second {
		t.Errorf("got %v", got)
	}
	h.Set("Retry-After", "Wed, 21 Oct 2026 07:28:00 GMT")
	if got := parseRetryAfter(h); got != 0 {
		t.Errorf("dates are not supported, got %v", got)
	}
	if got := parseRetryAfter(nil); got != 0 {
		t.Errorf("nil header = %v", got)
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(slowProvider{}, 10*time.Millisecond)
	if _, err := p.Generate(context.Background(), Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if WithTimeout(slowProvider{}, 0) != (slowProvider{}) {
		t.Error("zero timeout should return the provider unchanged")
	}
}
