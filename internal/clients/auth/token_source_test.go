package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	var fetches int

	src := NewTokenSource(func(context.Context) (models.AuthToken, error) {
		fetches++
		return models.AuthToken{Value: "t" + string(rune('0'+fetches)), ExpiresAt: now.Add(10 * time.Minute)}, nil
	}, func() time.Time { return now })

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", token)

	now = now.Add(5 * time.Minute)
	token, err = src.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", token)
	require.Equal(t, 1, fetches)

	// within the expiry skew
	now = now.Add(4*time.Minute + 45*time.Second)
	token, err = src.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t2", token)

	src.Invalidate()
	token, err = src.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t3", token)
}

func TestClientCredentialsDeduplicatesRefresh(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release

		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") != "id" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "abc", "token_type": "bearer", "expires_in": 3600})
	}))
	defer server.Close()

	src := NewClientCredentials(server.Client(), server.URL, "id", "secret", "metrics:write")

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	errs := make([]error, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = src.Token(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range tokens {
		require.NoError(t, errs[i])
		require.Equal(t, "abc", tokens[i])
	}
	require.Equal(t, int32(1), calls.Load())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, src.Authorize(context.Background(), req))
	require.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	require.Equal(t, int32(1), calls.Load())
}

func TestProviderLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid email and password combination"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "provider-token", "company_id": 7})
	}))
	defer server.Close()

	ok := NewProviderLogin(server.Client(), server.URL, "ops@example.com", "right")
	token, err := ok.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "provider-token", token)

	current := ok.current.Load()
	require.NotNil(t, current)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), current.ExpiresAt, time.Minute)

	bad := NewProviderLogin(server.Client(), server.URL, "ops@example.com", "wrong")
	_, err = bad.Token(context.Background())
	require.ErrorIs(t, err, internalErrors.ErrAuthentication)

	var remoteErr *internalErrors.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
}

func TestAPIKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	key := NewAPIKey("", "k-123")
	require.NoError(t, key.Authorize(context.Background(), req))
	key.Invalidate()

	require.Equal(t, "k-123", req.Header.Get(DefaultAPIKeyHeader))
}
