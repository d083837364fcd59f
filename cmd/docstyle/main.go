package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"docstyle/config"
	"docstyle/misc"
	"docstyle/restyle"
	"docstyle/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling - cli.Exit() looks
// non-transparent and unnesessary. Subcommands return regular errors.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "`DIR` to extract archive entries to before processing (default: working directory)"},
		&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when extracting archive entries do not keep archive directory structure"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if extraction destination exists, overwrite files"},
		&cli.StringFlag{Name: "force-zip-cp",
			Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
	}
}

const targetHelp = `
TARGET:
    path to document(s) to process, following formats are supported:
        path to a document: "[path_to_file]file.docx" - reworked in place (push creates it when missing)
        path to a directory: "[path_to_directory]directory" - recursively process all documents under directory in place (symbolic links are not followed)
        path to zip archive: "[path_to_archive]archive.zip" - documents are extracted under --out directory and processed there

REGISTRY:
    style registry file (JSON), if absent - registry_path from configuration
`

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "paragraph style registry and restyling engine for DOCX files",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "pull",
				Usage:        "Extracts paragraph styles from a document into the registry",
				OnUsageError: usageErrorHandler,
				Action:       runPull,
				ArgsUsage:    "SOURCE [REGISTRY]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    document (DOCX) to read paragraph styles from

REGISTRY:
    style registry file (JSON) to merge extracted styles into, if absent - registry_path from configuration
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "list",
				Usage:        "Prints styles stored in the registry",
				OnUsageError: usageErrorHandler,
				Action:       runList,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "natural", Aliases: []string{"n"}, Usage: "sort output using natural string ordering instead of registry order"},
				},
				ArgsUsage: "[REGISTRY]",
			},
			{
				Name:         "set",
				Usage:        "Changes stored properties of a single style",
				OnUsageError: usageErrorHandler,
				Action:       runSet,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "size", Usage: "new font size in `POINTS`"},
					&cli.StringFlag{Name: "color", Usage: "new font color as decimal `\"R G B\"` components"},
				},
				ArgsUsage: "NAME [REGISTRY]",
			},
			{
				Name:         "push",
				Usage:        "Writes all registry styles into document(s)",
				OnUsageError: usageErrorHandler,
				Action:       restyle.Run,
				Flags:        batchFlags(),
				ArgsUsage:    "TARGET [REGISTRY]",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
Pushes every style from the registry into the target document(s), creating
missing styles and overwriting existing ones. Paragraph text is left alone.
`, cli.CommandHelpTemplate, targetHelp),
			},
			{
				Name:         "apply",
				Usage:        "Pushes registry styles and restyles paragraphs by rules",
				OnUsageError: usageErrorHandler,
				Action:       restyle.Run,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "style", Aliases: []string{"s"}, Usage: "assign style `NAME` to every non-empty paragraph"},
					&cli.StringFlag{Name: "heading", Usage: "assign style `NAME` to paragraphs not longer than --max-chars"},
					&cli.StringFlag{Name: "body", Usage: "assign style `NAME` to all remaining non-empty paragraphs"},
					&cli.IntFlag{Name: "max-chars", Usage: "heading length threshold in `CHARS` (default: heading_max_chars from configuration)"},
					&cli.StringFlag{Name: "keyword", Usage: "assign --keyword-style to paragraphs containing `WORD` (checked first, case-insensitive)"},
					&cli.StringFlag{Name: "keyword-style", Usage: "style `NAME` for the --keyword rule"},
				}, batchFlags()...),
				ArgsUsage: "TARGET [REGISTRY]",
				CustomHelpTemplate: fmt.Sprintf(`%s%s
Rules are checked in order keyword, heading, body (or the single --style)
and the first matching rule decides the paragraph style. Empty paragraphs
are never restyled. All rule targets must exist in the registry.
`, cli.CommandHelpTemplate, targetHelp),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
