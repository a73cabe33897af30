package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/store"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage hierarchical tags on files",
}

var tagAddCmd = &cobra.Command{
	Use:   "add GLOB TAG_PATH",
	Short: "Tag every file matching GLOB with TAG_PATH",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagAdd,
}

var tagRmCmd = &cobra.Command{
	Use:   "rm GLOB TAG_PATH",
	Short: "Remove TAG_PATH from every file matching GLOB",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagRm,
}

var tagLsCmd = &cobra.Command{
	Use:   "ls PATH",
	Short: "List tags applied to PATH",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagLs,
}

func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagAddCmd, tagRmCmd, tagLsCmd)
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	return bulkTagOp(args[0], args[1], func(ctx context.Context, st *store.Store, fileID int64, tagPath string) error {
		return st.AddTag(ctx, fileID, tagPath)
	})
}

func runTagRm(cmd *cobra.Command, args []string) error {
	return bulkTagOp(args[0], args[1], func(ctx context.Context, st *store.Store, fileID int64, tagPath string) error {
		return st.RemoveTag(ctx, fileID, tagPath)
	})
}

// bulkTagOp resolves glob to a set of files and applies op to each,
// logging and counting per-file failures without aborting the rest
// (spec §7's bulk-operation propagation policy).
func bulkTagOp(glob, tagPath string, op func(ctx context.Context, st *store.Store, fileID int64, tagPath string) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	files, err := a.st.ResolveGlob(ctx, glob)
	if err != nil {
		return fail(err)
	}

	var ok, failed int
	for _, f := range files {
		if err := op(ctx, a.st, f.ID, tagPath); err != nil {
			fmt.Printf("error: %s: %v\n", f.Path, err)
			failed++
			continue
		}
		ok++
	}
	fmt.Printf("tagged %d file(s), %d failed\n", ok, failed)
	if ok == 0 && failed > 0 {
		return fail(fmt.Errorf("tag: all %d items failed", failed))
	}
	return nil
}

func runTagLs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	file, err := a.st.GetFileByPath(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	tags, err := a.st.ListTagsForFile(ctx, file.ID)
	if err != nil {
		return fail(err)
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	return nil
}
