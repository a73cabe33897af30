package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/query"
)

var searchExec string

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Print paths matching the query DSL, one per line",
	Long: `Search parses QUERY against the tag:/attr:/phrase/word grammar (spec
§6) and prints every matching path, one per line, in file-id order.
Exit is nonzero only on a DSL parse error; zero matches is not an
error. With --exec, each matched path runs CMD (with "{}" substituted
for the path, or appended if CMD contains no "{}"), streaming its
output live.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchExec, "exec", "", `command to run per match, "{}" substituted with the path`)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	paths, err := a.engine.Search(ctx, args[0])
	if err != nil {
		return fail(err)
	}

	if searchExec == "" {
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	template := strings.Fields(searchExec)
	res, err := query.RunExec(ctx, paths, template)
	if err != nil {
		return fail(err)
	}
	if res.FirstNonZero != 0 {
		fmt.Printf("--exec: %d run, first failure %q exited %d\n", res.Ran, res.FirstFailed, res.FirstNonZero)
	}
	return nil
}
