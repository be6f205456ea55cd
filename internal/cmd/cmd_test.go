package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SatelliteQE/rendezvous/internal/errors"
	"github.com/SatelliteQE/rendezvous/internal/logging"
	"github.com/SatelliteQE/rendezvous/internal/sharedresource"
	"github.com/spf13/viper"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(t *testing.T, args ...string) (output string, err error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupTestEnvironment isolates config lookup and logging, and returns a
// state directory.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RENDEZVOUS_LOGGING_ENABLED", "false")
	t.Setenv("RENDEZVOUS_RESOURCE_READY_POLL_INTERVAL", "20ms")
	t.Setenv("RENDEZVOUS_RESOURCE_POLL_INTERVAL", "20ms")
	t.Setenv("RENDEZVOUS_WATCH_REFRESH_INTERVAL", "50ms")
	return t.TempDir()
}

func writeStateFile(t *testing.T, dir, name string, st *sharedresource.State) {
	t.Helper()
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sharedresource.Path(dir, name), append(data, '\n'), 0644); err != nil {
		t.Fatal(err)
	}
}

func activeState() *sharedresource.State {
	return &sharedresource.State{
		Watchers:    []string{"w1", "w2"},
		Statuses:    map[string]sharedresource.WatcherStatus{"w1": sharedresource.StatusReady, "w2": sharedresource.StatusPending},
		MainWatcher: "w1",
		MainStatus:  sharedresource.MainWaiting,
	}
}

func failedState() *sharedresource.State {
	return &sharedresource.State{
		Watchers:    []string{"w1"},
		Statuses:    map[string]sharedresource.WatcherStatus{"w1": sharedresource.StatusError},
		MainWatcher: "w1",
		MainStatus:  sharedresource.MainError,
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	if root.Use != "rendezvous" {
		t.Errorf("root.Use = %q, want %q", root.Use, "rendezvous")
	}

	expected := []string{"join", "inspect", "list", "clean", "watch", "logs", "config"}
	cmdMap := make(map[string]bool)
	for _, c := range root.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}

	for _, flag := range []string{"config", "dir", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag --%s", flag)
		}
	}
}

func TestJoin_SingleParticipant(t *testing.T) {
	dir := setupTestEnvironment(t)
	marker := filepath.Join(dir, "ran")

	out, err := executeCommand(t, "join", "db", "--dir", dir, "--id", "w-1",
		"--", "/bin/sh", "-c", `echo "$RENDEZVOUS_NAME $RENDEZVOUS_WATCHER_ID $RENDEZVOUS_RECOVERING" > `+marker)
	if err != nil {
		t.Fatalf("join failed: %v\n%s", err, out)
	}

	for _, want := range []string{"joined db as leader (w-1)", "db done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("action did not run: %v", err)
	}
	if got, want := strings.TrimSpace(string(data)), "db w-1 false"; got != want {
		t.Errorf("action env = %q, want %q", got, want)
	}

	if _, err := os.Stat(sharedresource.Path(dir, "db")); !os.IsNotExist(err) {
		t.Error("state file should be removed after the last participant finishes")
	}
}

func TestJoin_Setup(t *testing.T) {
	dir := setupTestEnvironment(t)
	marker := filepath.Join(dir, "setup")

	out, err := executeCommand(t, "join", "db", "--dir", dir, "--id", "w-setup",
		"--setup", `echo "$RENDEZVOUS_WATCHER_ID" > `+marker,
		"--", "/bin/true")
	if err != nil {
		t.Fatalf("join failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("setup did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "w-setup" {
		t.Errorf("setup saw watcher id %q, want %q", got, "w-setup")
	}
}

func TestJoin_SetupFailure(t *testing.T) {
	dir := setupTestEnvironment(t)

	out, err := executeCommand(t, "join", "db", "--dir", dir, "--setup", "exit 4", "--", "/bin/true")
	if err == nil {
		t.Fatalf("expected setup failure, got output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "setup failed") {
		t.Errorf("error = %v, want setup failure", err)
	}

	st, inspectErr := sharedresource.Inspect(dir, "db")
	if inspectErr != nil {
		t.Fatalf("state file should be kept after a failure: %v", inspectErr)
	}
	if st.MainStatus != sharedresource.MainError {
		t.Errorf("main_status = %q, want %q", st.MainStatus, sharedresource.MainError)
	}
}

func TestJoin_ActionFailure(t *testing.T) {
	dir := setupTestEnvironment(t)

	out, err := executeCommand(t, "join", "db", "--dir", dir, "--", "/bin/sh", "-c", "exit 3")
	if err == nil {
		t.Fatalf("expected action failure, got output:\n%s", out)
	}
	if !errors.Is(err, errors.ErrActionFailed) {
		t.Errorf("error = %v, want ErrActionFailed", err)
	}
	if !strings.Contains(err.Error(), "exited with status 3") {
		t.Errorf("error = %v, want exit status", err)
	}
	if !strings.Contains(out, "db failed") {
		t.Errorf("output missing failure line:\n%s", out)
	}
}

func TestJoin_Arguments(t *testing.T) {
	dir := setupTestEnvironment(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no dash", []string{"join", "db", "/bin/true"}},
		{"no command", []string{"join", "db", "--"}},
		{"missing name", []string{"join", "--", "/bin/true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(t, append([]string{"--dir", dir}, tt.args...)...); err == nil {
				t.Error("expected usage error")
			}
		})
	}
}

func TestJoin_InvalidName(t *testing.T) {
	dir := setupTestEnvironment(t)

	_, err := executeCommand(t, "join", "a/b", "--dir", dir, "--", "/bin/true")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestInspect(t *testing.T) {
	dir := setupTestEnvironment(t)
	writeStateFile(t, dir, "db", activeState())

	out, err := executeCommand(t, "inspect", "db", "--dir", dir)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"db", "waiting", "w1", "w2", "1 ready", "1 pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCommand(t, "status", "db", "--dir", dir, "--json")
	if err != nil {
		t.Fatalf("status --json failed: %v", err)
	}
	var st sharedresource.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if st.MainWatcher != "w1" || len(st.Watchers) != 2 {
		t.Errorf("decoded state = %+v", st)
	}
}

func TestInspect_Missing(t *testing.T) {
	dir := setupTestEnvironment(t)

	_, err := executeCommand(t, "inspect", "nope", "--dir", dir)
	var notFound *errors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestList(t *testing.T) {
	dir := setupTestEnvironment(t)

	out, err := executeCommand(t, "list", "--dir", dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No shared resources") {
		t.Errorf("empty list output = %q", out)
	}

	writeStateFile(t, dir, "alpha", activeState())
	writeStateFile(t, dir, "beta", failedState())
	if err := os.WriteFile(sharedresource.Path(dir, "broken"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err = executeCommand(t, "ls", "--dir", dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"alpha", "beta", "broken", "unreadable", "1 error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "alpha") > strings.Index(out, "beta") {
		t.Error("resources should be listed by name")
	}
}

func TestClean(t *testing.T) {
	dir := setupTestEnvironment(t)
	writeStateFile(t, dir, "active", activeState())
	writeStateFile(t, dir, "failed", failedState())

	if _, err := executeCommand(t, "clean", "active", "--dir", dir); !errors.Is(err, errors.ErrResourceActive) {
		t.Errorf("clean active = %v, want ErrResourceActive", err)
	}
	if _, err := os.Stat(sharedresource.Path(dir, "active")); err != nil {
		t.Error("active state file should be kept")
	}

	out, err := executeCommand(t, "clean", "failed", "--dir", dir)
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if !strings.Contains(out, "Removed") {
		t.Errorf("output = %q", out)
	}

	if _, err := executeCommand(t, "clean", "active", "--dir", dir, "--force"); err != nil {
		t.Fatalf("clean --force: %v", err)
	}
	for _, name := range []string{"active", "failed"} {
		if _, err := os.Stat(sharedresource.Path(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", name)
		}
	}

	var notFound *errors.NotFoundError
	if _, err := executeCommand(t, "clean", "failed", "--dir", dir); !errors.As(err, &notFound) {
		t.Errorf("clean missing = %v, want NotFoundError", err)
	}
}

func TestWatch_Plain(t *testing.T) {
	dir := setupTestEnvironment(t)
	writeStateFile(t, dir, "db", activeState())

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = os.Remove(sharedresource.Path(dir, "db"))
	}()

	out, err := executeCommand(t, "watch", "db", "--dir", dir, "--plain")
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	for _, want := range []string{"leader=w1 status=waiting", "db finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "leader=w1"); n != 1 {
		t.Errorf("unchanged state printed %d times, want 1", n)
	}
}

func TestLogs(t *testing.T) {
	dir := setupTestEnvironment(t)
	logDir := t.TempDir()
	t.Setenv("RENDEZVOUS_LOGGING_DIR", logDir)

	lines := []string{
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"registered","resource":"db","watcher_id":"w1","role":"leader"}`,
		`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"takeover","resource":"db","watcher_id":"w2","role":"leader"}`,
		`{"time":"2026-01-02T10:00:02Z","level":"INFO","msg":"registered","resource":"cache","watcher_id":"w3","role":"follower"}`,
	}
	if err := os.WriteFile(filepath.Join(logDir, logging.LogFileName), []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, "logs", "--dir", dir, "--resource", "db", "--format", "json")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	var entries []logging.LogEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}

	out, err = executeCommand(t, "logs", "--dir", dir, "--grep", "^take", "--level", "warn")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "takeover") || strings.Contains(out, "registered") {
		t.Errorf("filtered output:\n%s", out)
	}

	if _, err := executeCommand(t, "logs", "--dir", dir, "--grep", "("); err == nil {
		t.Error("expected invalid pattern error")
	}
}

func TestLogs_NoLogDir(t *testing.T) {
	dir := setupTestEnvironment(t)

	out, err := executeCommand(t, "logs", "--dir", dir)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "set logging.dir") {
		t.Errorf("output = %q", out)
	}
}

func TestFormatLogEntry(t *testing.T) {
	entry := &logging.LogEntry{
		Timestamp: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Level:     "INFO",
		Message:   "registered",
		Resource:  "db",
		WatcherID: "0123456789abcdef",
		Attrs:     map[string]any{"path": "/tmp/db.shared"},
	}

	got := formatLogEntry(entry)
	for _, want := range []string{"[10:00:00.000]", "[INFO]", "registered", "resource=db", "watcher=01234567", "path=", "/tmp/db.shared"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatLogEntry() missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "role=") {
		t.Error("empty role should be omitted")
	}
}

func TestConfigShow(t *testing.T) {
	dir := setupTestEnvironment(t)

	out, err := executeCommand(t, "config", "--dir", dir, "--log-level", "debug")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"resource:", "dir: " + dir, "poll_interval: 20ms", "level: debug", "refresh_interval: 50ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("output = %q", out)
	}
}
