package main

import (
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	orbyt "github.com/orbyt-io/orbyt"
	"github.com/orbyt-io/orbyt/workflow"
)

var (
	formatFlag  string
	verboseFlag bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate workflow definition files",
	Long: `Validate one or more workflow definition files (.yaml, .yml, .json).

Both validation layers report every violation they find in one pass. The
exit code is 0 only when every file is accepted; otherwise it is the exit
code of the highest-severity finding across all files.

Examples:
  orbyt validate deploy.yaml
  orbyt validate --format json workflows/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runValidate(args))
	},
}

func init() {
	validateCmd.Flags().StringVar(&formatFlag, "format", "text", "output format: text or json")
	validateCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "log accepted definitions too")
}

// fileResult is one file's outcome in the JSON report.
type fileResult struct {
	File     string               `json:"file"`
	Accepted bool                 `json:"accepted"`
	Issues   orbyt.Issues         `json:"issues,omitempty"`
	Workflow *workflow.Definition `json:"workflow,omitempty"`
}

func runValidate(files []string) int {
	runID := uuid.NewString()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("run", runID)

	rep := &orbyt.Report{}
	results := make([]fileResult, 0, len(files))

	for _, file := range files {
		def, err := workflow.LoadFile(file)
		if err == nil {
			results = append(results, fileResult{File: file, Accepted: true, Workflow: def})
			if verboseFlag {
				log.Info("definition accepted", "file", file, "steps", len(def.Workflow.Steps))
			}
			continue
		}

		res := fileResult{File: file}
		if iss, ok := orbyt.AsIssues(err); ok {
			res.Issues = iss
			for _, it := range iss {
				log.Error("validation failed",
					"file", file,
					"path", it.Path,
					"code", it.Code,
					"msg", it.Message,
					"params", orbyt.Redact(it.Params),
				)
			}
			rep.Add(iss)
		} else {
			e := orbyt.NewError(orbyt.KindDefinitionUnread, fmt.Sprintf("cannot load %s", file)).WithCause(err)
			log.Error("load failed", "file", file, "err", err)
			rep.Add(e)
		}
		results = append(results, res)
	}

	if formatFlag == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			Run     string       `json:"run"`
			Results []fileResult `json:"results"`
		}{Run: runID, Results: results})
	} else {
		printText(results)
	}

	return rep.ExitCode()
}

func printText(results []fileResult) {
	for _, r := range results {
		if r.Accepted {
			fmt.Printf("%s: ok\n", r.File)
			continue
		}
		if len(r.Issues) == 0 {
			fmt.Printf("%s: load failed\n", r.File)
			continue
		}
		fmt.Printf("%s: %d issue(s)\n", r.File, len(r.Issues))
		for _, it := range r.Issues {
			fmt.Printf("  %s (%s): %s\n", it.Path, it.Code, it.Message)
		}
	}
}
