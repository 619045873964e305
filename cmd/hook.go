package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/keyhook"
	"github.com/keysender/keysender/internal/trigger"
	"github.com/keysender/keysender/pkg/logger"
)

var (
	hookChannel string
	hookKey     int
	hookStdin   bool

	hookFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "channel, c",
			Usage:       "trigger channel name (default: from options or KEYSENDER_CHANNEL)",
			Destination: &hookChannel,
		},
		cli.IntFlag{
			Name:        "key, k",
			Usage:       "trigger keycode, overrides the options file",
			Destination: &hookKey,
		},
		cli.BoolFlag{
			Name:        "stdin",
			Usage:       "read keycodes from stdin, one per line, instead of the keyboard",
			Destination: &hookStdin,
		},
	}
)

// newKeySource returns the system-wide keycode source. Replaced in tests.
var newKeySource = func(log logger.Logger) keyhook.Source {
	return keyhook.NewGoHook(log)
}

// hookStdinReader is read by --stdin. Replaced in tests.
var hookStdinReader io.Reader = os.Stdin

func hookCmd(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, _, err := loadOptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "hook", "load_options", err)
		return nil
	}
	if hookKey != 0 {
		opts.TriggerKey = hookKey
	}
	key, err := opts.Trigger()
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	channel := opts.ChannelName()
	if hookChannel != "" {
		channel = hookChannel
	}

	log := newLogger()
	h := trigger.NewHook(channel, key, log)
	defer h.Close()

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	if hookStdin {
		err = forwardLines(sctx, h, hookStdinReader, log)
	} else {
		err = forwardHook(sctx, h, newKeySource(log))
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "hook", "run", err)
		return nil
	}
	log.Info("Hook stopped: %d signals sent, %d dropped", h.Sent(), h.Dropped())
	return nil
}

// forwardHook feeds a live keycode source into the hook.
func forwardHook(ctx context.Context, h *trigger.Hook, src keyhook.Source) error {
	codes, err := src.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Watching for trigger key %s\n", h.Key())
	return h.Run(ctx, codes)
}

// forwardLines signals synchronously for every trigger keycode read from r,
// so no signal is lost when r ends.
func forwardLines(ctx context.Context, h *trigger.Hook, r io.Reader, log logger.Logger) error {
	src := keyhook.ReaderSource{
		R: r,
		OnError: func(line string, err error) {
			log.Warning("Ignoring %q: %v", line, err)
		},
	}
	codes, err := src.Start(ctx)
	if err != nil {
		return err
	}
	for code := range codes {
		if !h.Key().Matches(code) {
			continue
		}
		if err := h.Signal(ctx); err != nil {
			log.Error("Signal failed: %v", err)
		}
	}
	return nil
}
