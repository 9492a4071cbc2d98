/*
Package cli provides command-line helpers for the keeperd command.

Output Formatting:

Commands print results as text, JSON or YAML:

	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results that implement TextWriter render their own text form.

Exit Codes:

ExitError carries the process exit code a command wants. ExitCode maps any
error, including the result of lifecycle.Controller.Run, to a code:

	err := rootCmd.Execute()
	os.Exit(cli.ExitCode(err))

ConfigErrors flattens load and validation failures into per-field errors for
display.
*/
package cli
