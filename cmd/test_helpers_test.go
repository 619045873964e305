package cmd

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/config"
)

// captureOutput runs f with os.Stdout and os.Stderr redirected to pipes
// and returns what was written. Pipes are drained concurrently so large
// outputs do not block f.
func captureOutput(f func()) (stdout, stderr string) {
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() { os.Stdout, os.Stderr = oldOut, oldErr }()

	collect := func(target **os.File) (done func() string) {
		r, w, _ := os.Pipe()
		*target = w
		ch := make(chan string, 1)
		go func() {
			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)
			r.Close()
			ch <- buf.String()
		}()
		return func() string {
			w.Close()
			return <-ch
		}
	}
	outDone := collect(&os.Stdout)
	errDone := collect(&os.Stderr)

	f()
	return outDone(), errDone()
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("expected output to contain %q, got:\n%s", want, output)
	}
}

func assertNotContains(t *testing.T, output, unwanted string) {
	t.Helper()
	if strings.Contains(output, unwanted) {
		t.Errorf("expected output to NOT contain %q, got:\n%s", unwanted, output)
	}
}

// assertErrorFormat checks for the "keysender: cmd[action]:" prefix that
// PrintRuntimeErr produces.
func assertErrorFormat(t *testing.T, output, cmd, action string) {
	t.Helper()
	prefix := "keysender: " + cmd + "[" + action + "]:"
	if !strings.Contains(output, prefix) {
		t.Errorf("expected error prefix %q, got:\n%s", prefix, output)
	}
}

// newContext creates a CLI context for testing commands.
func newContext(app *cli.App, args []string, name string) *cli.Context {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	_ = set.Parse(args)
	app.HelpName = "keysender"
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

// useConfigDir points the commands at a fresh config directory on the real
// filesystem and restores the package state when the test ends.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldDir, oldFs := configDir, appFs
	configDir = func() (string, error) { return dir, nil }
	appFs = afero.NewOsFs()
	prevHelp := common.SetShowCommandHelp(func(*cli.Context, string) error { return nil })
	t.Cleanup(func() {
		configDir, appFs = oldDir, oldFs
		common.SetShowCommandHelp(prevHelp)
	})
	return dir
}

// writeOptions saves opts as the options file in dir.
func writeOptions(t *testing.T, dir string, opts *config.Options) {
	t.Helper()
	if err := config.Save(afero.NewOsFs(), config.Path(dir), opts); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// resetFlags restores the command flag variables after the test.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		listenChannel, listenEventLog = "", false
		hookChannel, hookKey, hookStdin = "", 0, false
		toggleChannel = ""
		playOnce, playDryRun, playDuration = false, false, 0
		configForce = false
		historyLimit, historyPrune = 0, 0
	})
}
