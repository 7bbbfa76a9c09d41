package jira

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
)

// refresh this long before the server-reported expiry
const oauthExpiryLeeway = 30 * time.Second

type cachedToken struct {
	token   Token
	expires time.Time
}

// oauthFetch is a token request in progress. done is closed once token and
// err are set.
type oauthFetch struct {
	done  chan struct{}
	token cachedToken
	err   error
}

// OAuthProvider exchanges client credentials for an access token and caches
// it until shortly before it expires. Token endpoint calls are retried with
// backoff on network errors and 5xx responses. Concurrent calls for the same
// credentials share one request; calls for other credentials never wait on it.
type OAuthProvider struct {
	httpClient HTTPDoer
	attempts   uint
	delay      time.Duration
	now        func() time.Time

	mu       sync.Mutex
	cache    map[string]cachedToken
	inflight map[string]*oauthFetch
}

// OAuthOption configures an OAuthProvider.
type OAuthOption func(*OAuthProvider)

// WithOAuthHTTPClient sets the client used to reach the token endpoint.
func WithOAuthHTTPClient(c HTTPDoer) OAuthOption {
	return func(p *OAuthProvider) {
		p.httpClient = c
	}
}

// WithOAuthRetry sets the number of attempts and the initial backoff delay.
func WithOAuthRetry(attempts uint, delay time.Duration) OAuthOption {
	return func(p *OAuthProvider) {
		p.attempts = attempts
		p.delay = delay
	}
}

// NewOAuthProvider creates an OAuthProvider using http.DefaultClient.
func NewOAuthProvider(opts ...OAuthOption) *OAuthProvider {
	p := &OAuthProvider{
		httpClient: http.DefaultClient,
		attempts:   3,
		delay:      200 * time.Millisecond,
		now:        time.Now,
		cache:      make(map[string]cachedToken),
		inflight:   make(map[string]*oauthFetch),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a cached token or fetches a new one. A caller waiting on a
// fetch started by another call gives up when its own ctx is done.
func (p *OAuthProvider) Token(ctx context.Context, spec AuthSpec) (Token, error) {
	if spec.ClientID == "" || spec.ClientSecret == "" || spec.TokenURL == "" {
		return Token{}, errMissingCredential
	}
	key := spec.TokenURL + "|" + spec.ClientID

	for {
		p.mu.Lock()
		if c, ok := p.cache[key]; ok && p.now().Before(c.expires) {
			p.mu.Unlock()
			return c.token, nil
		}
		f, waiting := p.inflight[key]
		if !waiting {
			f = &oauthFetch{done: make(chan struct{})}
			p.inflight[key] = f
		}
		p.mu.Unlock()

		if !waiting {
			return p.lead(ctx, key, spec, f)
		}

		select {
		case <-ctx.Done():
			return Token{}, ctx.Err()
		case <-f.done:
		}
		if f.err == nil {
			return f.token.token, nil
		}
		// the fetch was abandoned by its own caller; try again with ours
		if errors.Is(f.err, context.Canceled) || errors.Is(f.err, context.DeadlineExceeded) {
			continue
		}
		return Token{}, f.err
	}
}

// lead performs the fetch registered as f and publishes its outcome.
func (p *OAuthProvider) lead(ctx context.Context, key string, spec AuthSpec, f *oauthFetch) (Token, error) {
	var fetched cachedToken
	err := retry.Do(func() error {
		var err error
		fetched, err = p.fetch(ctx, spec)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	p.mu.Lock()
	delete(p.inflight, key)
	if err == nil {
		p.cache[key] = fetched
	}
	f.token, f.err = fetched, err
	close(f.done)
	p.mu.Unlock()

	if err != nil {
		return Token{}, err
	}
	return fetched.token, nil
}

func (p *OAuthProvider) fetch(ctx context.Context, spec AuthSpec) (cachedToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", spec.ClientID)
	form.Set("client_secret", spec.ClientSecret)
	if len(spec.Scopes) > 0 {
		form.Set("scope", strings.Join(spec.Scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return cachedToken{}, retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return cachedToken{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedToken{}, err
	}

	if resp.StatusCode >= 500 {
		return cachedToken{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(body, "error_description").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "error").String()
		}
		return cachedToken{}, retry.Unrecoverable(fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, msg))
	}

	accessToken := gjson.GetBytes(body, "access_token").String()
	if accessToken == "" {
		return cachedToken{}, retry.Unrecoverable(fmt.Errorf("token endpoint response has no access_token"))
	}
	scheme := gjson.GetBytes(body, "token_type").String()
	if scheme == "" || strings.EqualFold(scheme, "bearer") {
		scheme = "Bearer"
	}

	expiresIn := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second
	expires := p.now().Add(expiresIn - oauthExpiryLeeway)

	return cachedToken{
		token:   Token{Scheme: scheme, Value: accessToken},
		expires: expires,
	}, nil
}
