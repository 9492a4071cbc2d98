package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/keeper/pkg/cli"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionOutput string

type versionReport struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (r versionReport) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "keeperd %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s\n",
		r.Version, r.GitCommit, r.BuildDate, r.GoVersion, r.Platform)
	return err
}

func currentVersion() versionReport {
	return versionReport{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(versionOutput)
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), currentVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "output format: text, json, yaml")
}
