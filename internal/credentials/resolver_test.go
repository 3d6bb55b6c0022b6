package credentials

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mapGetenv(env map[string]string) config.Getenv {
	return func(key string) string {
		return env[key]
	}
}

func TestResolveKey_LookupOrder(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		headers map[string]string
		want    string
		wantErr bool
	}{
		{
			name: "Environment key wins over headers",
			env:  map[string]string{config.EnvAzureAPIKey: "env-key"},
			headers: map[string]string{
				"Authorization": "Bearer header-key",
				"api-key":       "other-key",
			},
			want: "env-key",
		},
		{
			name:    "Bearer token from Authorization header",
			headers: map[string]string{"Authorization": "Bearer header-key"},
			want:    "header-key",
		},
		{
			name:    "Bearer scheme matches case-insensitively",
			headers: map[string]string{"Authorization": "bearer header-key"},
			want:    "header-key",
		},
		{
			name:    "Bearer wins over api-key header",
			headers: map[string]string{"Authorization": "Bearer header-key", "api-key": "other-key"},
			want:    "header-key",
		},
		{
			name:    "api-key header as last resort",
			headers: map[string]string{"api-key": "plain-key"},
			want:    "plain-key",
		},
		{
			name:    "Malformed Authorization falls through to api-key",
			headers: map[string]string{"Authorization": "Basic dXNlcg==", "api-key": "plain-key"},
			want:    "plain-key",
		},
		{
			name:    "Nothing anywhere",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(NewCache(DefaultTTL), mapGetenv(tt.env), testLogger())

			req := httptest.NewRequest("POST", "/v1/chat/completions", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			key, err := resolver.ResolveKey(req, SlotAzure)
			if tt.wantErr {
				if err != ErrMissingCredential {
					t.Fatalf("Expected ErrMissingCredential, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveKey() error = %v", err)
			}
			if key != tt.want {
				t.Errorf("ResolveKey() = %q, want %q", key, tt.want)
			}
		})
	}
}

func TestResolveKey_CachesWithinTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(DefaultTTL)
	cache.SetClock(func() time.Time { return now })

	resolver := NewResolver(cache, mapGetenv(map[string]string{config.EnvAzureAPIKey: "env-key"}), testLogger())

	calls := 0
	resolver.SetValidator(func(key string) bool {
		calls++
		return key != ""
	})

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	if _, err := resolver.ResolveKey(req, SlotAzure); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	// Second request three minutes later must reuse the cached key.
	now = now.Add(3 * time.Minute)
	key, err := resolver.ResolveKey(req, SlotAzure)
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if key != "env-key" {
		t.Errorf("Expected cached key 'env-key', got %q", key)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one validation within the TTL, got %d", calls)
	}
}

func TestResolveKey_RevalidatesAfterExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(DefaultTTL)
	cache.SetClock(func() time.Time { return now })

	resolver := NewResolver(cache, mapGetenv(map[string]string{config.EnvAzureAPIKey: "env-key"}), testLogger())

	calls := 0
	resolver.SetValidator(func(key string) bool {
		calls++
		return key != ""
	})

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	if _, err := resolver.ResolveKey(req, SlotAzure); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	now = now.Add(DefaultTTL + time.Second)
	if _, err := resolver.ResolveKey(req, SlotAzure); err != nil {
		t.Fatalf("Resolve after expiry failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected a fresh validation after TTL expiry, got %d calls", calls)
	}
}

func TestCache_ExpiredEntryEvicted(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute)
	cache.SetClock(func() time.Time { return now })

	cache.Put(SlotAzure, "stale-key")

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(SlotAzure); ok {
		t.Fatal("Expected expired entry to be evicted")
	}
}
