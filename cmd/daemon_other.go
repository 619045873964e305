//go:build !windows

package cmd

import "github.com/urfave/cli"

// getListenAction returns the platform-specific listen action.
func getListenAction() cli.ActionFunc {
	return listen
}
