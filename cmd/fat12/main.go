// Command fat12 lists, extracts, and inspects the contents of FAT12 volume
// images without mounting them.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dargueta/fatimg/utilities/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	exitUserError   = 1
	exitSystemError = 2
)

const loggerKey = "logger"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %s\n", err.Error())
		os.Exit(exitCodeFor(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "fat12",
		Usage:     "Read files out of FAT12 disk images",
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log what's being decoded",
			},
		},
		Before: func(ctx *cli.Context) error {
			logger, err := logging.New(ctx.Bool("verbose"))
			if err != nil {
				return err
			}
			ctx.App.Metadata[loggerKey] = logger
			return nil
		},
		After: func(ctx *cli.Context) error {
			// Syncing stderr fails on some platforms, and there's nothing to
			// be done about it.
			_ = loggerFrom(ctx).Sync()
			return nil
		},
		// Errors are reported by main() so that tests can see exit codes.
		ExitErrHandler: func(*cli.Context, error) {},
		OnUsageError:   onUsageError,
		Commands: []*cli.Command{
			listCommand(),
			extractCommand(),
			infoCommand(),
			packCommand(),
			unpackCommand(),
		},
	}
}

func onUsageError(ctx *cli.Context, err error, isSubcommand bool) error {
	return cli.Exit(err.Error(), exitUserError)
}

func usageErrorf(format string, args ...interface{}) error {
	return cli.Exit(fmt.Sprintf(format, args...), exitUserError)
}

func requireArgs(ctx *cli.Context, count int) error {
	if ctx.Args().Len() != count {
		return usageErrorf(
			"%s: expected %d argument(s), got %d\nusage: %s %s",
			ctx.Command.Name,
			count,
			ctx.Args().Len(),
			ctx.Command.Name,
			ctx.Command.ArgsUsage)
	}
	return nil
}

// exitCodeFor maps an error returned by the app to a process exit code.
// Anything that isn't explicitly a usage error is a system error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return exitCoder.ExitCode()
	}
	return exitSystemError
}

func loggerFrom(ctx *cli.Context) *zap.SugaredLogger {
	if logger, ok := ctx.App.Metadata[loggerKey].(*zap.SugaredLogger); ok {
		return logger
	}
	return logging.Nop()
}
