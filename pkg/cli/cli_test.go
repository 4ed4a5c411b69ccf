package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/push"
	"github.com/DeBrosOfficial/overlay/pkg/relay"
	"github.com/DeBrosOfficial/overlay/pkg/session"
)

// writeConfig writes a config file into a fresh temp dir with logging sent
// to a file, and returns the config path and the dir.
func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := "logging:\n  level: error\n  output_file: " + filepath.Join(dir, "overlay.log") + "\n" + body
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	root := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123"})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "overlay 1.2.3 (commit abc123)\n", out)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")
}

func TestInvalidConfigIsReported(t *testing.T) {
	path, _ := writeConfig(t, "client:\n  endpoint: ftp://example.com\n")
	_, err := run(t, "--config", path, "session", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "client.endpoint")
}

func TestSessionShow_SeedsFromConfig(t *testing.T) {
	path, _ := writeConfig(t, "session:\n  topics: [orders, alerts]\n")

	out, err := run(t, "--config", path, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "STORE")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "alerts")
	assert.Contains(t, out, "orders")
}

func TestSessionShow_JSON(t *testing.T) {
	path, dir := writeConfig(t, "")
	sessionPath := filepath.Join(dir, "session.yaml")
	require.NoError(t, session.NewFileStore(sessionPath).Save(context.Background(),
		session.State{IsRouter: true, Topics: []string{"b", "a"}}))

	cfgPath := filepath.Join(dir, "file.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, []byte("session:\n  store: file\n  path: "+sessionPath+"\n")...)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o600))

	out, err := run(t, "--config", cfgPath, "--format", "json", "session", "show")
	require.NoError(t, err)

	var st session.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.IsRouter)
	assert.Equal(t, []string{"a", "b"}, st.Topics)
}

func TestSessionShow_SavedEmptyIsNotReseeded(t *testing.T) {
	_, dir := writeConfig(t, "")
	sessionPath := filepath.Join(dir, "session.yaml")
	require.NoError(t, session.NewFileStore(sessionPath).Save(context.Background(), session.State{}))

	cfg := "logging:\n  level: error\n  output_file: " + filepath.Join(dir, "overlay.log") +
		"\nsession:\n  store: file\n  path: " + sessionPath + "\n  topics: [orders]\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := run(t, "--config", cfgPath, "--format", "json", "session", "show")
	require.NoError(t, err)

	var st session.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Empty(t, st.Topics)

	// with nothing saved yet the config topics seed the session
	require.NoError(t, os.Remove(sessionPath))
	out, err = run(t, "--config", cfgPath, "--format", "json", "session", "show")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, []string{"orders"}, st.Topics)
}

func TestSessionClear(t *testing.T) {
	_, dir := writeConfig(t, "")
	sessionPath := filepath.Join(dir, "session.yaml")
	store := session.NewFileStore(sessionPath)
	require.NoError(t, store.Save(context.Background(),
		session.State{IsRouter: true, Topics: []string{"a", "b"}}))

	cfg := "logging:\n  level: error\n  output_file: " + filepath.Join(dir, "overlay.log") +
		"\nsession:\n  store: file\n  path: " + sessionPath + "\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := run(t, "--config", cfgPath, "session", "clear", "--keep-role")
	require.NoError(t, err)
	assert.Equal(t, "Cleared 2 topic(s)\n", out)

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Len())
	assert.True(t, sess.IsRouter())

	_, err = run(t, "--config", cfgPath, "session", "clear")
	require.NoError(t, err)
	sess, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.IsRouter())
}

func TestSessionClear_NoStore(t *testing.T) {
	path, _ := writeConfig(t, "")
	_, err := run(t, "--config", path, "session", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to clear")
}

func TestPublishHTTP(t *testing.T) {
	var (
		gotPath string
		gotBody []byte
	)
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer node.Close()

	path, _ := writeConfig(t, "")
	out, err := run(t, "--config", path, "publish", "--http", "--node-url", node.URL+"/", "orders", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Published 5 bytes to topic: orders\n", out)
	assert.Equal(t, "/send", gotPath)
	assert.Equal(t, protocol.MustEncode(protocol.NewMessage("orders", []byte("hello"))), gotBody)
}

func TestListen_PrintsMessages(t *testing.T) {
	logger, err := logging.New(logging.Options{Level: "error"})
	require.NoError(t, err)
	s, err := relay.NewServer(relay.Config{}, logger)
	require.NoError(t, err)
	node := httptest.NewServer(s.Handler())
	defer node.Close()
	defer s.Shutdown(context.Background())

	path, _ := writeConfig(t, "")
	endpoint := "ws" + strings.TrimPrefix(node.URL, "http") + "/ws"

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(t, "--config", path, "--endpoint", endpoint, "listen", "--count", "1", "orders")
		done <- result{out, err}
	}()

	// Publish until the listener has subscribed and printed one message.
	p := push.New(time.Second, nil)
	msg := protocol.NewMessage("orders", []byte("hello"))
	for {
		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.Contains(t, r.out, "orders: hello")
			return
		case <-time.After(50 * time.Millisecond):
			require.NoError(t, p.Send(context.Background(), node.URL+"/", msg))
		}
	}
}

func TestPublish_InvalidTopic(t *testing.T) {
	path, _ := writeConfig(t, "")
	_, err := run(t, "--config", path, "publish", "--http", "bad\x00topic", "x")
	require.Error(t, err)
}

func TestFormatPackage(t *testing.T) {
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		pkg  protocol.Package
		want string
	}{
		{name: "message", pkg: protocol.NewMessage("orders", []byte("hi")), want: "[15:04:05] orders: hi"},
		{name: "subscribe", pkg: protocol.NewSubscribe("orders", true), want: "[15:04:05] subscribe orders"},
		{name: "unsubscribe", pkg: protocol.NewSubscribe("orders", false), want: "[15:04:05] unsubscribe orders"},
		{name: "router", pkg: protocol.Registration{IsRouter: true}, want: "[15:04:05] registration router"},
		{name: "client", pkg: protocol.Registration{}, want: "[15:04:05] registration client"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPackage(tt.pkg, now))
		})
	}
}

func TestJSONPrinter(t *testing.T) {
	var buf bytes.Buffer
	printPkg := newPrinter(&buf, "json")
	require.NoError(t, printPkg(protocol.NewSubscribe("orders", false)))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, protocol.KindSubscribe.String(), rec["kind"])
	assert.Equal(t, "orders", rec["topic"])
	assert.Equal(t, false, rec["subscribe"])
	assert.NotContains(t, rec, "router")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
