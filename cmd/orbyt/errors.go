package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	orbyt "github.com/orbyt-io/orbyt"
)

var errorsJSONFlag bool

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List the error taxonomy",
	Long: `List every registered error kind with its component, category,
severity, retry disposition, and exit code. The registry is append-only:
codes and exit codes are assigned once and never reused.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		kinds := orbyt.Kinds()
		if errorsJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(kinds)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tCOMPONENT\tCATEGORY\tSEVERITY\tRETRYABLE\tEXIT")
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n",
				k.Code, k.Component, k.Category, k.Severity, k.Retryable, k.ExitCode)
		}
		_ = w.Flush()
	},
}

func init() {
	errorsCmd.Flags().BoolVar(&errorsJSONFlag, "json", false, "emit the taxonomy as JSON")
}
