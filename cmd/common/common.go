// Package common provides shared helpers for the keysender commands:
// progress bar setup, error printing, help display and text formatting.
package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// VersionCmdStr is printed by the version command. Execute fills it from
// the build information.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// InitPlayBar creates a progress bar counting the key events of a single
// pass. total is the number of events in the pass.
func InitPlayBar(p *mpb.Progress, prefix string, total int64) *mpb.Bar {
	name := prefix + "Playing"
	return p.New(total,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "done"),
		),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d events")),
	)
}

// Help shows the application help, or the help of the command named by the
// first argument.
func Help(ctx *cli.Context) error {
	switch arg := ctx.Args().First(); arg {
	case "", "help":
		fmt.Printf("%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	default:
		return showCommandHelp(ctx, arg)
	}
}

// GetVersion prints VersionCmdStr.
func GetVersion(*cli.Context) error {
	fmt.Println(VersionCmdStr)
	return nil
}

// PrintRuntimeErr prints err as "<prog>: <cmd>[<action>]: <err>". ctx may
// be nil, in which case os.Args[0] names the program.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		fmt.Printf("%s: %s[%s]: no error\n", progName(ctx), cmd, action)
		return
	}
	fmt.Printf("%s: %s[%s]: %v\n", progName(ctx), cmd, action, err)
}

// PrintErrWithCmdHelp prints err followed by the current command's help.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return reportUsage(ctx, err, func() {
		if herr := showCommandHelp(ctx, ctx.Command.Name); herr != nil {
			fmt.Println(herr)
		}
	})
}

// PrintErrWithHelp prints err followed by the application help and exits
// with status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return reportUsage(ctx, err, func() { showAppHelpAndExit(ctx, 1) })
}

// UsageErrorCallback is the OnUsageError hook of the app and its commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name == "" {
		return PrintErrWithHelp(ctx, err)
	}
	return PrintErrWithCmdHelp(ctx, err)
}

// reportUsage turns flag-package pseudo errors for -help and -version into
// the matching output; anything else is printed before showHelp runs.
func reportUsage(ctx *cli.Context, err error, showHelp func()) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case msg == "flag: help requested":
		return Help(ctx)
	case strings.Contains(msg, "-version"):
		return GetVersion(ctx)
	}
	fmt.Printf("%s: %v\n\n", progName(ctx), err)
	showHelp()
	return nil
}

func progName(ctx *cli.Context) string {
	if ctx == nil || ctx.App == nil {
		return os.Args[0]
	}
	return ctx.App.HelpName
}

// Beaut centers s in a field n wide. An odd remainder goes to the right.
func Beaut(s string, n int) string {
	gap := max(n-len(s), 0)
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

// Fit truncates s to n columns with a trailing ellipsis, or centers it.
func Fit(s string, n int) string {
	if len(s) > n {
		if n <= 3 {
			return s[:n]
		}
		return s[:n-3] + "..."
	}
	return Beaut(s, n)
}

// SetShowAppHelpAndExit replaces the app help printer and returns the
// previous one. Intended for tests of packages that drive commands.
func SetShowAppHelpAndExit(fn func(*cli.Context, int)) func(*cli.Context, int) {
	prev := showAppHelpAndExit
	showAppHelpAndExit = fn
	return prev
}

// SetShowCommandHelp replaces the command help printer and returns the
// previous one.
func SetShowCommandHelp(fn func(*cli.Context, string) error) func(*cli.Context, string) error {
	prev := showCommandHelp
	showCommandHelp = fn
	return prev
}
