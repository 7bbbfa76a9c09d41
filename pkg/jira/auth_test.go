package jira

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHeaderValue(t *testing.T) {
	assert.Equal(t, "Bearer abc", Token{Value: "abc"}.HeaderValue())
	assert.Equal(t, "Basic abc", Token{Scheme: "Basic", Value: "abc"}.HeaderValue())
}

func TestStaticAndBasicProviders(t *testing.T) {
	ctx := context.Background()

	tok, err := StaticTokenProvider{}.Token(ctx, AuthSpec{Token: "pat"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer pat", tok.HeaderValue())

	_, err = StaticTokenProvider{}.Token(ctx, AuthSpec{})
	assert.Error(t, err)

	tok, err = BasicAuthProvider{}.Token(ctx, AuthSpec{Email: "me@example.com", APIToken: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Basic", tok.Scheme)
	raw, err := base64.StdEncoding.DecodeString(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com:secret", string(raw))

	_, err = BasicAuthProvider{}.Token(ctx, AuthSpec{Email: "me@example.com"})
	assert.Error(t, err)
}

func TestJWTProvider(t *testing.T) {
	p := NewJWTProvider()
	fixed := time.Now().Truncate(time.Second)
	p.now = func() time.Time { return fixed }

	tok, err := p.Token(context.Background(), AuthSpec{Issuer: "com.example.app", SharedSecret: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "JWT", tok.Scheme)

	parsed, err := jwt.Parse(tok.Value, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "com.example.app", claims["iss"])
	assert.Equal(t, "context-qsh", claims["qsh"])
	assert.Equal(t, float64(fixed.Add(defaultJWTLifetime).Unix()), claims["exp"])

	_, err = p.Token(context.Background(), AuthSpec{Issuer: "com.example.app"})
	assert.Error(t, err)
}

func newTokenServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestOAuthProvider(t *testing.T) {
	t.Run("exchanges and caches", func(t *testing.T) {
		srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "id", r.PostForm.Get("client_id"))
			assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
			assert.Equal(t, "read:jira-work", r.PostForm.Get("scope"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at-1","token_type":"bearer","expires_in":3600}`))
		})
		spec := AuthSpec{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL, Scopes: []string{"read:jira-work"}}
		p := NewOAuthProvider()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := p.Token(context.Background(), spec)
				assert.NoError(t, err)
				assert.Equal(t, "Bearer at-1", tok.HeaderValue())
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("refreshes after expiry", func(t *testing.T) {
		srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"at","expires_in":60}`))
		})
		spec := AuthSpec{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL}
		p := NewOAuthProvider()
		now := time.Now()
		p.now = func() time.Time { return now }

		_, err := p.Token(context.Background(), spec)
		require.NoError(t, err)
		_, err = p.Token(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())

		now = now.Add(time.Minute)
		_, err = p.Token(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("retries server errors", func(t *testing.T) {
		var n atomic.Int32
		srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			if n.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"access_token":"at","expires_in":60}`))
		})
		p := NewOAuthProvider(WithOAuthRetry(3, time.Millisecond))
		tok, err := p.Token(context.Background(), AuthSpec{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})
		require.NoError(t, err)
		assert.Equal(t, "at", tok.Value)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry rejected credentials", func(t *testing.T) {
		srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"access_denied","error_description":"Unauthorized"}`))
		})
		p := NewOAuthProvider(WithOAuthRetry(3, time.Millisecond))
		_, err := p.Token(context.Background(), AuthSpec{ClientID: "id", ClientSecret: "bad", TokenURL: srv.URL})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unauthorized")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("fetch for one client does not block another", func(t *testing.T) {
		fast, _ := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"fast","expires_in":3600}`))
		})
		release := make(chan struct{})
		stalled, stalledCalls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			w.Write([]byte(`{"access_token":"slow","expires_in":3600}`))
		})
		t.Cleanup(func() { close(release) })

		p := NewOAuthProvider(WithOAuthRetry(1, time.Millisecond))
		fastSpec := AuthSpec{ClientID: "b", ClientSecret: "secret", TokenURL: fast.URL}
		slowSpec := AuthSpec{ClientID: "a", ClientSecret: "secret", TokenURL: stalled.URL}

		_, err := p.Token(context.Background(), fastSpec)
		require.NoError(t, err)

		leaderCtx, cancelLeader := context.WithCancel(context.Background())
		defer cancelLeader()
		leaderDone := make(chan error, 1)
		go func() {
			_, err := p.Token(leaderCtx, slowSpec)
			leaderDone <- err
		}()
		require.Eventually(t, func() bool { return stalledCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		start := time.Now()
		tok, err := p.Token(ctx, fastSpec)
		require.NoError(t, err)
		assert.Equal(t, "fast", tok.Value)
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		// a second caller for the stalled client waits on the shared fetch
		// but honours its own deadline
		waitCtx, cancelWait := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancelWait()
		start = time.Now()
		_, err = p.Token(waitCtx, slowSpec)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, int32(1), stalledCalls.Load())

		cancelLeader()
		select {
		case err := <-leaderDone:
			assert.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("leader did not return after cancellation")
		}
	})

	t.Run("waiter retries when the shared fetch is abandoned", func(t *testing.T) {
		var n atomic.Int32
		srv, calls := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			if n.Add(1) == 1 {
				<-r.Context().Done()
				return
			}
			w.Write([]byte(`{"access_token":"second","expires_in":3600}`))
		})
		spec := AuthSpec{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL}
		p := NewOAuthProvider(WithOAuthRetry(1, time.Millisecond))

		leaderCtx, cancelLeader := context.WithCancel(context.Background())
		go p.Token(leaderCtx, spec)
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		waiter := make(chan Token, 1)
		go func() {
			tok, err := p.Token(context.Background(), spec)
			assert.NoError(t, err)
			waiter <- tok
		}()
		time.Sleep(20 * time.Millisecond)
		cancelLeader()

		select {
		case tok := <-waiter:
			assert.Equal(t, "second", tok.Value)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter did not take over the fetch")
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := NewOAuthProvider().Token(context.Background(), AuthSpec{ClientID: "id"})
		assert.Error(t, err)
	})
}

func TestProviderFor(t *testing.T) {
	tests := []struct {
		typ  AuthType
		want any
	}{
		{"", StaticTokenProvider{}},
		{AuthTypeBearer, StaticTokenProvider{}},
		{AuthTypeBasic, BasicAuthProvider{}},
		{AuthTypeJWT, &JWTProvider{}},
		{AuthTypeOAuth, &OAuthProvider{}},
	}
	for _, tt := range tests {
		p, err := ProviderFor(AuthSpec{Type: tt.typ})
		require.NoError(t, err, tt.typ)
		assert.IsType(t, tt.want, p, tt.typ)
	}

	_, err := ProviderFor(AuthSpec{Type: "kerberos"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestClientWithBasicAuthAgainstServer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	spec := AuthSpec{Type: AuthTypeBasic, Email: "me@example.com", APIToken: "secret"}
	p, err := ProviderFor(spec)
	require.NoError(t, err)
	c, err := NewClient(Config{Host: srv.URL, Authentication: spec}, p)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), RequestDescriptor{Method: "GET", Path: "/rest/api/2/statuscategory"})
	require.NoError(t, err)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("me@example.com:secret")), gotAuth)
}
