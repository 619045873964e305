package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "keysender",
		HelpName:              "keysender",
		Usage:                 "Replays key sequences, toggled by a global hotkey.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "keysender <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "listen",
				Aliases:            []string{"daemon"},
				Usage:              "runs the sender and waits for toggle signals",
				Description:        ListenDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             getListenAction(),
				Flags:              listenFlags,
			},
			{
				Name:               "hook",
				Usage:              "watches the trigger key and signals the listener",
				Description:        HookDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             hookCmd,
				Flags:              hookFlags,
			},
			{
				Name:               "toggle",
				Aliases:            []string{"t"},
				Usage:              "sends one toggle signal to the listener",
				Description:        ToggleDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             toggle,
				Flags:              toggleFlags,
			},
			{
				Name:                   "play",
				Aliases:                []string{"p"},
				Usage:                  "plays the configured keys in this process",
				Description:            PlayDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 play,
				UseShortOptionHandling: true,
				Flags:                  playFlags,
			},
			{
				Name:  "config",
				Usage: "manages the options file",
				Subcommands: []cli.Command{
					{
						Name:   "init",
						Usage:  "writes the default options file",
						Action: configInit,
						Flags:  configInitFlags,
					},
					{
						Name:   "show",
						Usage:  "prints the effective options",
						Action: configShow,
					},
					{
						Name:   "validate",
						Usage:  "checks the options file",
						Action: configValidate,
					},
				},
			},
			{
				Name:                   "history",
				Aliases:                []string{"l"},
				Usage:                  "displays recent runs",
				Description:            HistoryDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 historyCmd,
				UseShortOptionHandling: true,
				Flags:                  historyFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of keysender",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
