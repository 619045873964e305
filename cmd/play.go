package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/keysender/keysender/cmd/common"
	"github.com/keysender/keysender/internal/dispatch"
	"github.com/keysender/keysender/internal/inject"
	"github.com/keysender/keysender/internal/sender"
)

var (
	playOnce     bool
	playDryRun   bool
	playDuration time.Duration

	playFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "once, o",
			Usage:       "play a key sequence a single time (default: false)",
			Destination: &playOnce,
		},
		cli.BoolFlag{
			Name:        "dry-run, n",
			Usage:       "print key events instead of injecting them (default: false)",
			Destination: &playDryRun,
		},
		cli.DurationFlag{
			Name:        "duration, d",
			Usage:       "stop after this long, 0 plays until interrupted",
			Destination: &playDuration,
		},
	}
)

// playOut receives dry-run output. Replaced in tests.
var playOut io.Writer = os.Stdout

// isTerminal reports whether stdout is a terminal.
var isTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// barEmitter advances a progress bar once per emitted key event.
type barEmitter struct {
	em  sender.Emitter
	bar *mpb.Bar
}

func (b barEmitter) Emit(code byte, keyUp bool) {
	b.em.Emit(code, keyUp)
	b.bar.Increment()
}

func (b barEmitter) EmitCode(code byte, virtual, keyUp bool) {
	if te, ok := b.em.(sender.CodeTypeEmitter); ok {
		te.EmitCode(code, virtual, keyUp)
	} else {
		b.em.Emit(code, keyUp)
	}
	b.bar.Increment()
}

func printEmission(w io.Writer, e inject.Emission) {
	dir := "down"
	if e.KeyUp {
		dir = "up"
	}
	kind := "scan"
	if e.Virtual {
		kind = "vk"
	}
	fmt.Fprintf(w, "%s %-4s %s 0x%02X\n", e.At.Format("15:04:05.000"), dir, kind, e.Code)
}

func play(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, _, err := loadOptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "play", "load_options", err)
		return nil
	}
	if playOnce {
		opts.SinglePass = true
	}
	policy, err := opts.Policy()
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if playOnce && policy.Kind() != sender.KindTimedSequence {
		fmt.Println("keysender: --once only applies to sequence mode, ignoring")
	}

	log := newLogger()
	var em sender.Emitter
	if playDryRun {
		rec := inject.NewRecorder()
		rec.OnEmit = func(e inject.Emission) { printEmission(playOut, e) }
		em = rec
	} else {
		em, err = newEmitter(opts.KeyType, log)
		if err != nil {
			common.PrintRuntimeErr(ctx, "play", "new_emitter", err)
			return nil
		}
	}

	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	if ts, ok := policy.(sender.TimedSequence); ok && ts.SinglePass() && !playDryRun && isTerminal() {
		p = mpb.New(mpb.WithWidth(64))
		bar = common.InitPlayBar(p, "", int64(ts.Sequence().Len()))
		em = barEmitter{em: em, bar: bar}
	}

	completed, err := playPolicy(em, policy, playDuration)
	if p != nil {
		if !bar.Completed() {
			bar.Abort(false)
		}
		p.Wait()
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "play", "start", err)
		return nil
	}
	if completed {
		fmt.Println("Sequence completed.")
	}
	return nil
}

// playPolicy runs policy through a sender until it completes, the process
// is interrupted or d elapses. It reports whether the run completed on its
// own.
func playPolicy(em sender.Emitter, policy sender.Policy, d time.Duration) (bool, error) {
	log := newLogger()
	q := dispatch.NewQueue(log)

	completed := make(chan struct{}, 1)
	s := sender.New(em, q, log)
	s.Subscribe(sender.ObserverFuncs{
		Stopped: func(n sender.Notification) {
			if n.Reason == sender.ReasonCompleted {
				completed <- struct{}{}
			}
		},
	})
	if err := s.StartWith(policy); err != nil {
		_ = q.Close(context.Background())
		return false, err
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()
	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-s.Done():
	case <-sctx.Done():
	case <-timeout:
	}
	s.Stop()
	<-s.Done()

	qctx, qcancel := context.WithTimeout(context.Background(), time.Second)
	defer qcancel()
	_ = q.Close(qctx)
	select {
	case <-completed:
		return true, nil
	default:
		return false, nil
	}
}
