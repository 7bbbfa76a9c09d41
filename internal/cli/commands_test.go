package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/jiraclient/internal/config"
	"github.com/tansive/jiraclient/internal/jiratest"
	"github.com/tansive/jiraclient/pkg/jira"
	"github.com/tidwall/gjson"
)

var jiraEnv = []string{
	"JIRA_HOST", "JIRA_TIMEOUT", "JIRA_LOG_LEVEL", "JIRA_AUTH_TYPE", "JIRA_TOKEN",
	"JIRA_EMAIL", "JIRA_API_TOKEN", "JIRA_CLIENT_ID", "JIRA_CLIENT_SECRET",
	"JIRA_TOKEN_URL", "JIRA_JWT_ISSUER", "JIRA_SHARED_SECRET",
}

// setup starts a fake server and writes a config file pointing at it.
func setup(t *testing.T) (*jiratest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range jiraEnv {
		t.Setenv(name, "")
	}

	srv := jiratest.NewServer("Bearer cli-token")
	t.Cleanup(srv.Close)

	path := filepath.Join(dir, "jira.toml")
	content := fmt.Sprintf("host = %q\n[auth]\ntype = \"bearer\"\ntoken = \"cli-token\"\n", srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return srv, path
}

func run(t *testing.T, opts *rootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = &rootOptions{}
	}
	cmd := newRootCmd(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestStatusCategoryList(t *testing.T) {
	srv, cfgPath := setup(t)

	out, _, err := run(t, nil, "--config", cfgPath, "status-category", "list")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, int64(4), gjson.Get(out, "#").Int())
	assert.Equal(t, "undefined", gjson.Get(out, "0.key").String())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer cli-token", reqs[0].Header.Get("Authorization"))
}

func TestStatusCategoryListFilterYAML(t *testing.T) {
	_, cfgPath := setup(t)

	out, _, err := run(t, nil, "--config", cfgPath, "-o", "yaml", "--filter", "#.key", "status-category", "list")
	require.NoError(t, err)
	assert.Equal(t, "- undefined\n- new\n- indeterminate\n- done\n", out)

	_, _, err = run(t, nil, "--config", cfgPath, "--filter", "nothing.here", "status-category", "list")
	assert.ErrorContains(t, err, "matched nothing")
}

func TestStatusCategoryGet(t *testing.T) {
	srv, cfgPath := setup(t)

	out, _, err := run(t, nil, "--config", cfgPath, "status-category", "get", "done", "2", "indeterminate")
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "new", "indeterminate"}, keys(gjson.Get(out, "#.key").Array()))
	assert.Len(t, srv.Requests(), 3)

	out, _, err = run(t, nil, "--config", cfgPath, "status-category", "get", "done")
	require.NoError(t, err)
	assert.Equal(t, "Done", gjson.Get(out, "name").String())
}

func TestStatusCategoryGetNotFound(t *testing.T) {
	_, cfgPath := setup(t)

	_, _, err := run(t, nil, "--config", cfgPath, "status-category", "get", "done", "gone")
	require.ErrorIs(t, err, jira.ErrTransport)
	assert.ErrorContains(t, err, `status category "gone"`)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "server returned 404")
}

func TestRequestCommand(t *testing.T) {
	srv, cfgPath := setup(t)

	out, _, err := run(t, nil, "--config", cfgPath,
		"request", "post", "/rest/api/2/echo",
		"--set", "fields.summary=Hello world",
		"--set", "fields.priority.id=3",
		"--set", `fields.labels=["a","b"]`,
		"--query", "notifyUsers=false",
	)
	require.NoError(t, err)
	assert.Equal(t, "POST", gjson.Get(out, "method").String())
	assert.Equal(t, "false", gjson.Get(out, "query.notifyUsers.0").String())
	assert.Equal(t, "Hello world", gjson.Get(out, "body.fields.summary").String())
	assert.Equal(t, int64(3), gjson.Get(out, "body.fields.priority.id").Int())
	assert.Equal(t, "b", gjson.Get(out, "body.fields.labels.1").String())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "/rest/api/2/echo?notifyUsers=false", reqs[0].URL)
}

func TestRequestCommandNoContent(t *testing.T) {
	_, cfgPath := setup(t)

	out, stderr, err := run(t, nil, "--config", cfgPath, "request", "GET", "/rest/api/2/empty")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "No content")
}

func TestRequestCommandErrors(t *testing.T) {
	_, cfgPath := setup(t)

	_, _, err := run(t, nil, "--config", cfgPath, "request", "GET", "/x", "--set", "novalue")
	assert.ErrorContains(t, err, "expected key=value")

	_, _, err = run(t, nil, "--config", cfgPath, "request", "GET", "/x", "--data", "{oops")
	assert.ErrorContains(t, err, "not valid JSON")

	_, _, err = run(t, nil, "--config", cfgPath, "request", "GET", "https://elsewhere.test/x")
	assert.ErrorIs(t, err, jira.ErrInvalidRequest)

	_, _, err = run(t, nil, "--config", cfgPath, "request", "GET", "/rest/api/2/broken")
	assert.ErrorIs(t, err, jira.ErrParse)

	_, _, err = run(t, nil, "--config", cfgPath, "-o", "xml", "status-category", "list")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestRequestCommandCustomExecutor(t *testing.T) {
	_, cfgPath := setup(t)

	var got *jira.OutboundRequest
	opts := &rootOptions{clientOpts: []jira.ClientOption{
		jira.WithExecutor(jira.ExecutorFunc(func(_ context.Context, r *jira.OutboundRequest) (string, error) {
			got = r
			return `{"accountId":"abc"}`, nil
		})),
	}}
	out, _, err := run(t, opts, "--config", cfgPath, "--filter", "accountId", "request", "get", "/rest/api/2/myself")
	require.NoError(t, err)
	assert.Equal(t, "\"abc\"\n", out)
	require.NotNil(t, got)
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "Bearer cli-token", got.Header.Get("Authorization"))
}

func TestBuildBody(t *testing.T) {
	body, err := buildBody(`{"a":1}`, []string{"b.c=x", "d=true"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"c":"x"},"d":true}`, body)

	body, err = buildBody("", nil)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	_, cfgPath := setup(t)

	out, _, err := run(t, nil, "--config", cfgPath, "-o", "yaml", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "****")
	assert.Contains(t, out, "type: bearer")
	assert.NotContains(t, out, "cli-token")
}

func TestConfigCreate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "out", "jira.toml")

	out, _, err := run(t, nil, "--config", path, "config", "create",
		"--host", "https://example.atlassian.net",
		"--auth-type", "basic", "--email", "me@example.com", "--api-token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", c.Host)
	assert.Equal(t, "secret", c.Auth.APIToken)

	_, _, err = run(t, nil, "--config", path, "config", "create", "--host", "not a url")
	assert.ErrorIs(t, err, jira.ErrConfiguration)
}

func TestMissingConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range jiraEnv {
		t.Setenv(name, "")
	}

	_, _, err := run(t, nil, "status-category", "list")
	assert.ErrorContains(t, err, "host is required")

	out, _, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, getCLIVersion(), gjson.Get(out, "version").String())
}

func keys(results []gjson.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.String()
	}
	return out
}
