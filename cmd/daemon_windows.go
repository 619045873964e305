//go:build windows

package cmd

import (
	"github.com/urfave/cli"
	"golang.org/x/sys/windows/svc"

	"github.com/keysender/keysender/cmd/common"
	daemonpkg "github.com/keysender/keysender/internal/daemon"
	"github.com/keysender/keysender/internal/service"
)

// getListenAction runs the listener under the Service Control Manager when
// started as a service, and in the foreground otherwise.
func getListenAction() cli.ActionFunc {
	return func(ctx *cli.Context) error {
		isService, err := svc.IsWindowsService()
		if err != nil {
			common.PrintRuntimeErr(ctx, "listen", "detect_service", err)
			return cli.NewExitError("", 1)
		}
		if !isService {
			return listen(ctx)
		}
		if err := serveService(); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
}

// serveService blocks in svc.Run until the SCM stops the service. Services
// have no console, so messages always go to the Event Log as well.
func serveService() error {
	log, closeLog := listenLogger(true)
	defer closeLog()

	dir, err := configDir()
	if err != nil {
		return err
	}
	comps, err := initDaemonComponents(log, dir, listenChannel)
	if err != nil {
		log.Error("Service init: %v", err)
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			log.Error("Shutdown: %v", err)
		}
	}()
	return svc.Run(daemonpkg.DefaultEventSource, service.NewWindowsHandler(comps.Runner, log))
}
