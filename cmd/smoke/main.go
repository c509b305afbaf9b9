package main

import (
	"os"
	"time"

	"github.com/okian/scicalc/internal/smoke"
	"github.com/okian/scicalc/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Options struct {
	URL      string
	Timeout  time.Duration
	Verbose  bool
	Requests int
	Workers  int
}

func DefaultOptions() *Options {
	return &Options{
		URL:     "http://localhost:5000",
		Timeout: 10 * time.Second,
		Workers: 4,
	}
}

func (o *Options) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.URL, "url", o.URL, "Base URL of the calculator service.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Per-request timeout.")
	fs.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Log every request.")
	fs.IntVar(&o.Requests, "requests", o.Requests, "Calculations to fire in a load phase; 0 skips it.")
	fs.IntVar(&o.Workers, "workers", o.Workers, "Concurrent workers for the load phase.")
}

func main() {
	command := NewSmokeCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewSmokeCommand() *cobra.Command {
	o := DefaultOptions()
	cmd := &cobra.Command{
		Use:          "smoke [flags]",
		Short:        "smoke checks a running calculator service end to end.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *Options) Run(cmd *cobra.Command) error {
	logger.SetOutput(cmd.ErrOrStderr())
	if err := logger.Init(); err != nil {
		return err
	}
	if o.Verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString("error")
	}

	runner := smoke.New(
		smoke.WithURL(o.URL),
		smoke.WithTimeout(o.Timeout),
		smoke.WithOutput(cmd.OutOrStdout()),
		smoke.WithLoad(o.Requests, o.Workers),
	)
	_, err := runner.Run(cmd.Context())
	return err
}
