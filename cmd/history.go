package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/config"
	"github.com/keysender/keysender/internal/history"
)

var (
	historyLimit int
	historyPrune time.Duration

	historyFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "number of runs to display",
			Value:       DEF_HISTORY_LIMIT,
			Destination: &historyLimit,
		},
		cli.DurationFlag{
			Name:        "prune",
			Usage:       "delete finished runs older than this before listing (e.g. 720h)",
			Destination: &historyPrune,
		},
	}
)

// historyNow is the reference time for relative timestamps.
var historyNow = time.Now

func historyCmd(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	dir, err := configDir()
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "config_dir", err)
		return nil
	}
	path := filepath.Join(dir, config.HistoryFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("keysender: no runs recorded")
		return nil
	}
	store, err := history.Open(path, newLogger())
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "open", err)
		return nil
	}
	defer store.Close()

	if historyPrune > 0 {
		n, err := store.Prune(context.Background(), historyNow().Add(-historyPrune))
		if err != nil {
			common.PrintRuntimeErr(ctx, "history", "prune", err)
			return nil
		}
		fmt.Printf("Pruned %d runs.\n", n)
	}
	runs, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "recent", err)
		return nil
	}
	if len(runs) == 0 {
		fmt.Println("keysender: no runs recorded")
		return nil
	}
	fmt.Println(formatRuns(runs, historyNow()))
	return nil
}

func formatRuns(runs []history.Run, now time.Time) string {
	txt := "Here are your recent runs:"
	txt += "\n\n-----------------------------------------------------------------"
	txt += "\n|Num|    Started     |  Duration  |  Policy  |      Result      |"
	txt += "\n|---|----------------|------------|----------|------------------|"
	for i, r := range runs {
		dur, result := "running", "active"
		if !r.Active() {
			dur = r.Duration().Round(time.Second).String()
			result = string(r.Reason)
		}
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|%s|",
			common.Fit(fmt.Sprint(i+1), 3),
			common.Fit(humanize.RelTime(r.StartedAt, now, "ago", "from now"), 16),
			common.Fit(dur, 12),
			common.Fit(string(r.Kind), 10),
			common.Fit(result, 18),
		)
	}
	txt += "\n-----------------------------------------------------------------"
	return txt
}
