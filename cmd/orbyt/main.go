package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	orbyt "github.com/orbyt-io/orbyt"
)

var rootCmd = &cobra.Command{
	Use:   "orbyt",
	Short: "Validate declarative workflow definitions",
	Long: `Orbyt validates declarative workflow definitions: structural shape
against the field table, then referential integrity over the step
dependency graph (uniqueness, existence, acyclicity, trigger completeness).

Every failure is classified through the error taxonomy, and the process
exit code reports the category of the highest-severity finding:
  0        success
  100-199  user errors
  200-299  config errors
  300-399  execution errors
  400-499  security errors
  500-599  internal errors
  600-699  system errors`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(validateCmd, errorsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		rep := &orbyt.Report{}
		rep.Add(orbyt.NewError(orbyt.KindInvalidConfig, err.Error()))
		os.Exit(rep.ExitCode())
	}
}
