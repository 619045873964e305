package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	shared "github.com/keysender/keysender/common"
	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/trigger"
)

var (
	toggleChannel string

	toggleFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "channel, c",
			Usage:       "trigger channel name (default: from options or KEYSENDER_CHANNEL)",
			Destination: &toggleChannel,
		},
	}
)

func toggle(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, _, err := loadOptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "toggle", "load_options", err)
		return nil
	}
	channel := opts.ChannelName()
	if toggleChannel != "" {
		channel = toggleChannel
	}
	key, err := opts.Trigger()
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}

	h := trigger.NewHook(channel, key, newLogger())
	defer h.Close()
	sctx, cancel := context.WithTimeout(context.Background(), shared.DefaultDialTimeout)
	defer cancel()
	if err := h.Signal(sctx); err != nil {
		common.PrintRuntimeErr(ctx, "toggle", "signal", err)
		return cli.NewExitError("", 1)
	}
	fmt.Println("Toggle signal sent.")
	return nil
}
