package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/keeper/pkg/cli"
	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
	"mercator-hq/keeper/pkg/listen"
)

var checkFlags struct {
	output string
	print  bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration without starting",
	Long: `Load and validate the configuration exactly as run would, then exit.

The exit status is 0 when the configuration is valid and 1 otherwise.

Examples:
  # Check a config file
  keeperd check --config keeperd.yaml

  # Print the merged configuration as YAML
  keeperd check --config conf.d --print --output yaml`,
	RunE: checkConfig,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.output, "output", "o", "text", "output format: text, json, yaml")
	checkCmd.Flags().BoolVar(&checkFlags.print, "print", false, "include the merged configuration in the report")
}

// checkReport is the result of the check command.
type checkReport struct {
	Valid   bool               `json:"valid" yaml:"valid"`
	Sources []string           `json:"sources" yaml:"sources"`
	Errors  []*cli.ConfigError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Config  *AppConfig         `json:"config,omitempty" yaml:"config,omitempty"`
}

func (r checkReport) WriteText(w io.Writer) error {
	if r.Valid {
		if _, err := fmt.Fprintf(w, "✓ Configuration valid (%d sources)\n", len(r.Sources)); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, "✗ Configuration invalid")
		for _, e := range r.Errors {
			if e.Field == "" {
				fmt.Fprintf(w, "  - %s\n", e.Message)
				continue
			}
			fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
		}
	}
	if r.Config != nil {
		return cli.NewFormatter(cli.FormatYAML).FormatTo(w, r.Config)
	}
	return nil
}

func checkConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(checkFlags.output)
	if err != nil {
		return err
	}

	loader, err := newLoader()
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}

	report := checkReport{Sources: loader.Sources()}
	cfg, err := loader.Load(cmd.Context())
	if err == nil {
		err = validateAppConfig(&cfg)
	}
	if err != nil {
		report.Errors = cli.ConfigErrors(err)
	} else {
		report.Valid = true
		if checkFlags.print {
			report.Config = &cfg
		}
	}

	if ferr := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); ferr != nil {
		return ferr
	}
	if !report.Valid {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: errors.New("configuration invalid")}
	}
	return nil
}

// validateAppConfig runs the checks the run command registers as validators.
func validateAppConfig(cfg *AppConfig) error {
	if err := config.Validate(&cfg.Daemon, "daemon"); err != nil {
		return err
	}
	return listen.Validate(cfg.Listen)
}
