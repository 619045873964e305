package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/config"
)

var (
	configForce bool

	configInitFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "force, f",
			Usage:       "overwrite an existing options file (default: false)",
			Destination: &configForce,
		},
	}
)

func configInit(ctx *cli.Context) error {
	dir, err := configDir()
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "config_dir", err)
		return nil
	}
	path := config.Path(dir)
	if _, err := appFs.Stat(path); err == nil && !configForce {
		return common.PrintErrWithCmdHelp(ctx, fmt.Errorf("%s already exists, use --force to overwrite", path))
	}
	if err := config.Save(appFs, path, config.Default()); err != nil {
		common.PrintRuntimeErr(ctx, "config", "save", err)
		return nil
	}
	fmt.Println("Options written to", path)
	return nil
}

func configShow(ctx *cli.Context) error {
	opts, dir, err := loadOptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "load", err)
		return nil
	}
	b, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "marshal", err)
		return nil
	}
	fmt.Printf("# %s\n%s\n", config.Path(dir), b)
	return nil
}

func configValidate(ctx *cli.Context) error {
	dir, err := configDir()
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "config_dir", err)
		return nil
	}
	path := config.Path(dir)
	opts, err := config.Load(appFs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Printf("%s does not exist, defaults apply\n", path)
		return nil
	case err != nil:
		common.PrintRuntimeErr(ctx, "config", "validate", err)
		return cli.NewExitError("", 1)
	}
	policy, _ := opts.Policy()
	key, _ := opts.Trigger()
	fmt.Printf("%s is valid\n  policy:  %s\n  trigger: %s\n  channel: %s\n  autostart entries: %d\n",
		path, policy, key, opts.ChannelName(), len(opts.Autostart))
	return nil
}
