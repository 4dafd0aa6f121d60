package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(config *Config) (*Limiter, *manualClock) {
	clock := &manualClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.Now
	return l, clock
}

func TestTokenBucket_Take(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(10, 1.0, now)

	for i := 0; i < 10; i++ {
		if ok, _, _ := bucket.take(now); !ok {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}
	if ok, _, _ := bucket.take(now); ok {
		t.Error("Expected 11th request to be denied")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(10, 1.0, now)
	for i := 0; i < 10; i++ {
		bucket.take(now)
	}

	later := now.Add(1100 * time.Millisecond)
	if ok, _, _ := bucket.take(later); !ok {
		t.Error("Expected request to be allowed after refill")
	}
	if ok, _, _ := bucket.take(later); ok {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestTokenBucket_ResetTime(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(10, 1.0, now)
	for i := 0; i < 4; i++ {
		bucket.take(now)
	}

	_, remaining, reset := bucket.take(now)
	if remaining != 5 {
		t.Errorf("Expected 5 remaining tokens, got %d", remaining)
	}
	if want := now.Add(5 * time.Second); !reset.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, reset)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", http.MethodGet)
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", http.MethodGet)
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
}

func TestLimiter_RefillOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/quiz", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 1},
		},
	})
	defer limiter.Stop()

	if ok, _ := limiter.Allow("c", "/quiz", http.MethodPost); !ok {
		t.Fatal("Expected first request to be allowed")
	}
	if ok, _ := limiter.Allow("c", "/quiz", http.MethodPost); ok {
		t.Fatal("Expected second request to be denied")
	}

	clock.Advance(time.Second)
	if ok, _ := limiter.Allow("c", "/quiz", http.MethodPost); !ok {
		t.Error("Expected request to be allowed after one second")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/summarize", http.MethodPost)
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", info.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/summarize", http.MethodPost); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_DisabledByDefault(t *testing.T) {
	limiter := NewLimiter(DefaultConfig())
	defer limiter.Stop()

	if limiter.Enabled() {
		t.Fatal("Expected default config to be disabled")
	}
	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/process-pdf", http.MethodPost)
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", info.Limit)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	limiter, _ := newTestLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("c", "/process-pdf", http.MethodPost)
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
	}
	if allowed, _ := limiter.Allow("c", "/process-pdf", http.MethodPost); allowed {
		t.Error("Expected 3rd upload to be denied")
	}

	// separate bucket per path
	if allowed, _ := limiter.Allow("c", "/process-docx", http.MethodPost); !allowed {
		t.Error("Expected other upload route to be allowed")
	}

	allowed, info := limiter.Allow("c", "/summarize", http.MethodPost)
	if !allowed || info.Limit != 60 {
		t.Errorf("Expected /summarize limit 60, got allowed=%v limit=%d", allowed, info.Limit)
	}

	allowed, info = limiter.Allow("c", "/other", http.MethodGet)
	if !allowed || info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got allowed=%v limit=%d", allowed, info.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
		unlimited    bool
	}{
		{path: "/health", method: http.MethodGet, unlimited: true},
		{path: "/metrics", method: http.MethodGet, unlimited: true},
		{path: "/", method: http.MethodGet, unlimited: true},
		{path: "/summarize", method: http.MethodPost, wantPath: "/summarize"},
		{path: "/summarize-offline", method: http.MethodPost, wantPath: "/summarize-"},
		{path: "/summarize-pdf", method: http.MethodPost, wantPath: "/summarize-"},
		{path: "/process-txt", method: http.MethodPost, wantPath: "/process-"},
		{path: "/token", method: http.MethodPost, wantPath: "/token"},
		{path: "/token", method: http.MethodGet},
		{path: "/unknown", method: http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			switch {
			case tt.unlimited:
				if got == nil || got.Limit != 0 {
					t.Errorf("Expected unlimited config, got %+v", got)
				}
			case tt.wantPath == "":
				if got != nil {
					t.Errorf("Expected no match, got %+v", got)
				}
			default:
				if got == nil || got.Path != tt.wantPath {
					t.Errorf("Expected match on %s, got %+v", tt.wantPath, got)
				}
			}
		})
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", http.MethodGet); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", http.MethodGet)
	}

	clock.Advance(30 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", http.MethodGet)
	}

	clock.Advance(31 * time.Minute)
	if removed := limiter.cleanup(); removed != 5 {
		t.Errorf("Expected 5 idle buckets removed, got %d", removed)
	}
	if n := len(limiter.buckets); n != 5 {
		t.Errorf("Expected 5 buckets left, got %d", n)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/summarize", http.MethodPost)
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestParseIPList(t *testing.T) {
	got := ParseIPList(" 10.0.0.1, ,10.0.0.2 ")
	if len(got) != 2 || !got["10.0.0.1"] || !got["10.0.0.2"] {
		t.Errorf("unexpected parse result: %v", got)
	}
	if len(ParseIPList("")) != 0 {
		t.Error("Expected empty set")
	}
}
