package cmd

import (
	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
	daemonpkg "github.com/keysender/keysender/internal/daemon"
	"github.com/keysender/keysender/pkg/logger"
)

var (
	listenChannel  string
	listenEventLog bool

	listenFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "channel, c",
			Usage:       "trigger channel name (default: from options or KEYSENDER_CHANNEL)",
			Destination: &listenChannel,
		},
		cli.BoolFlag{
			Name:        "eventlog",
			Usage:       "also write messages to the Windows Event Log",
			Destination: &listenEventLog,
		},
	}
)

// listen runs the listener in the foreground until interrupted.
func listen(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	log, closeLog := listenLogger(listenEventLog)
	defer closeLog()

	dir, err := configDir()
	if err != nil {
		common.PrintRuntimeErr(ctx, "listen", "config_dir", err)
		return nil
	}
	comps, err := initDaemonComponents(log, dir, listenChannel)
	if err != nil {
		common.PrintRuntimeErr(ctx, "listen", "init", err)
		return nil
	}
	defer func() {
		if err := comps.Close(); err != nil {
			log.Error("Shutdown: %v", err)
		}
	}()

	sctx, cancel := setupShutdownHandler()
	defer cancel()
	if err := comps.Runner.Start(sctx); err != nil {
		common.PrintRuntimeErr(ctx, "listen", "serve", err)
		return cli.NewExitError("", 1)
	}
	return nil
}

// listenLogger returns the console logger, teed into the Windows Event Log
// when withEventLog is set and the source can be opened.
func listenLogger(withEventLog bool) (logger.Logger, func()) {
	log := newLogger()
	if !withEventLog {
		return log, func() {}
	}
	el, err := logger.NewEventLogger(daemonpkg.DefaultEventSource)
	if err != nil {
		log.Warning("Event Log unavailable: %v", err)
		return log, func() {}
	}
	return logger.NewMultiLogger(log, el), func() { _ = el.Close() }
}
