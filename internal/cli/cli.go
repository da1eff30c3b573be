package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"eectl/internal/api"
	"eectl/internal/config"
	"eectl/internal/logger"
	"eectl/internal/waiter"
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usage(out io.Writer, flagSet *flag.FlagSet) {
	fmt.Fprint(out, `eectl - command line client for the Earth Engine batch-task API.

Usage:
  eectl [options] task wait [wait options] TASK_ID...
  eectl [options] config show
  eectl [options] config set KEY VALUE
  eectl [options] config unset KEY

Options:
`)
	flagSet.PrintDefaults()
}

// Run parses arguments and dispatches to a subcommand. Report output
// goes to out; interactive confirmations read from in.
func Run(args []string, out io.Writer, in io.Reader) error {
	flagSet := flag.NewFlagSet("eectl", flag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.Usage = func() { usage(out, flagSet) }

	configPath := flagSet.String("config", "", "Path to the credentials file.")
	verbose := flagSet.Bool("verbose", false, "Enable debug logging.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}

	log, err := logger.New(*verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log.Debugw("config resolved", "path", cfg.Path(), "url", cfg.URL)

	switch flagSet.Arg(0) {
	case "task":
		return runTask(cfg, log, out, flagSet.Args()[1:])
	case "config":
		return runConfig(cfg, out, in, flagSet.Args()[1:])
	case "":
		flagSet.Usage()
		return &ExitError{Code: 2, Message: "no command given"}
	default:
		flagSet.Usage()
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command: %s", flagSet.Arg(0))}
	}
}

func runTask(cfg *config.Config, log *logger.Logger, out io.Writer, args []string) error {
	if len(args) == 0 || args[0] != "wait" {
		return &ExitError{Code: 2, Message: "usage: eectl task wait [options] TASK_ID..."}
	}

	flagSet := flag.NewFlagSet("task wait", flag.ContinueOnError)
	flagSet.SetOutput(out)
	timeoutSecs := flagSet.Int("timeout", math.MaxInt32, "Seconds to wait for each task before giving up.")
	progress := flagSet.Bool("progress", false, "Force periodic progress lines on, even for many tasks.")
	quiet := flagSet.Bool("quiet", false, "Suppress periodic progress lines.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}

	ids := flagSet.Args()
	if len(ids) == 0 {
		return &ExitError{Code: 2, Message: "task wait requires at least one task id"}
	}

	// Progress reporting defaults on for a single task, off for a batch.
	logProgress := len(ids) == 1
	if *progress {
		logProgress = true
	}
	if *quiet {
		logProgress = false
	}

	ctx := context.Background()
	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.URL,
		Logger:  log,
	})
	if err := client.Initialize(ctx, cfg.Credentials()); err != nil {
		return err
	}

	w := waiter.New(client, out, log)
	return w.WaitForTasks(ctx, ids, time.Duration(*timeoutSecs)*time.Second, logProgress)
}

func runConfig(cfg *config.Config, out io.Writer, in io.Reader, args []string) error {
	if len(args) == 0 {
		return &ExitError{Code: 2, Message: "usage: eectl config show|set|unset"}
	}

	switch args[0] {
	case "show":
		fmt.Fprintf(out, "config file: %s\n", cfg.Path())
		fmt.Fprintf(out, "  url: %s\n", cfg.URL)
		fmt.Fprintf(out, "  account: %s\n", cfg.Account)
		fmt.Fprintf(out, "  private_key: %s\n", Truncate(cfg.PrivateKey, 16))
		fmt.Fprintf(out, "  refresh_token: %s\n", Truncate(cfg.RefreshToken, 16))
		return nil

	case "set":
		if len(args) != 3 {
			return &ExitError{Code: 2, Message: "usage: eectl config set KEY VALUE"}
		}
		key, value := args[1], args[2]
		current, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if current != "" && current != value {
			if !Confirm(in, out, fmt.Sprintf("%s is already set. Overwrite?", key)) {
				return nil
			}
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		return cfg.Save()

	case "unset":
		if len(args) != 2 {
			return &ExitError{Code: 2, Message: "usage: eectl config unset KEY"}
		}
		if err := cfg.Unset(args[1]); err != nil {
			return err
		}
		return cfg.Save()

	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown config command: %s", args[0])}
	}
}
