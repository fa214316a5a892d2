package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/devnode"
	"github.com/five82/tally/internal/votenode"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tally", cmd.Use)
	assert.Contains(t, cmd.Long, "polls")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"watch", "list", "vote", "count", "create", "logs", "devnode"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "", config.DefValue)
}

// nodeFixture serves a devnode and writes a config pointing at it.
func nodeFixture(t *testing.T) (*devnode.Node, string) {
	t.Helper()
	node := devnode.New("alice")
	srv := httptest.NewServer(devnode.Handler(node, votenode.Paths{}, nil))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := "api_bind = \"" + srv.URL + "\"\n" +
		"log_file = \"" + filepath.Join(dir, "tally.log") + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return node, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand_Text(t *testing.T) {
	node, cfg := nodeFixture(t)
	_, err := node.Create("Lunch?", []string{"alice", "bob"})
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "vote+count")
	assert.Contains(t, lines[1], "Lunch?")
}

func TestListCommand_JSON(t *testing.T) {
	node, cfg := nodeFixture(t)
	_, err := node.Create("Lunch?", []string{"alice"})
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"question": "Lunch?"`)
	assert.Contains(t, out, `"id": 1`)
}

func TestListCommand_RejectsUnknownFormat(t *testing.T) {
	_, cfg := nodeFixture(t)
	_, err := execute(t, "--config", cfg, "list", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestVoteAndCountCommands(t *testing.T) {
	node, cfg := nodeFixture(t)
	id, err := node.Create("Lunch?", []string{"alice"})
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "vote", "1", "yes")
	require.NoError(t, err)
	assert.Contains(t, out, "sent vote")
	assert.Equal(t, []string{"alice"}, node.Voted(id))

	_, err = execute(t, "--config", cfg, "count", "1")
	require.NoError(t, err)
	polls := node.Polls()
	require.Len(t, polls, 1)
	require.NotNil(t, polls[0].Result)
	assert.Equal(t, int64(1), polls[0].Result.Count)
}

func TestVoteCommand_Failures(t *testing.T) {
	node, cfg := nodeFixture(t)

	_, err := execute(t, "--config", cfg, "vote", "1", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vote")

	// Rejections are logged by the dispatcher; the command still succeeds.
	out, err := execute(t, "--config", cfg, "vote", "42", "no")
	require.NoError(t, err)
	assert.Contains(t, out, "sent vote")
	assert.Empty(t, node.Polls())
}

func TestCreateCommand(t *testing.T) {
	node, cfg := nodeFixture(t)

	_, err := execute(t, "--config", cfg, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--question")

	_, err = execute(t, "--config", cfg, "create", "-q", "Ship it?", "--voter", "alice,bob", "--voter", " ")
	require.NoError(t, err)

	polls := node.Polls()
	require.Len(t, polls, 1)
	assert.Equal(t, "Ship it?", polls[0].Question)
	assert.Equal(t, []string{"alice", "bob"}, polls[0].Voters)
}

func TestLogsCommand(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tally.log")
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_file = \""+logPath+"\"\n"), 0o644))
	lines := []string{
		"time=2026-10-19T12:00:00Z level=debug msg=tick",
		"time=2026-10-19T12:00:01Z level=warn msg=\"poll failed\" stream=polls",
		"time=2026-10-19T12:00:02Z level=info msg=\"command sent\"",
	}
	require.NoError(t, os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	out, err := execute(t, "--config", cfgPath, "logs", "--level", "info")
	require.NoError(t, err)
	assert.NotContains(t, out, "msg=tick")
	assert.Contains(t, out, "poll failed")
	assert.Contains(t, out, "command sent")

	out, err = execute(t, "--config", cfgPath, "logs", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, lines[2]+"\n", out)
}

func TestSeed(t *testing.T) {
	node := devnode.New("dev")
	require.NoError(t, seed(node))
	polls := node.Polls()
	require.Len(t, polls, 3)
	assert.True(t, polls[0].CanVote)
	assert.False(t, polls[2].CanVote)
}
