package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/store"
)

var linkType string
var linkDirection string

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage typed links between files",
}

var linkAddCmd = &cobra.Command{
	Use:   "add SRC DST",
	Short: "Add a link from SRC to DST",
	Args:  cobra.ExactArgs(2),
	RunE:  runLinkAdd,
}

var linkRmCmd = &cobra.Command{
	Use:   "rm SRC DST",
	Short: "Remove the link from SRC to DST",
	Args:  cobra.ExactArgs(2),
	RunE:  runLinkRm,
}

var linkListCmd = &cobra.Command{
	Use:   "list PATH",
	Short: "List PATH's linked neighbors",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkList,
}

var linkBacklinksCmd = &cobra.Command{
	Use:   "backlinks PATH",
	Short: "List files that link to PATH (shorthand for list --direction in)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkBacklinks,
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkAddCmd, linkRmCmd, linkListCmd, linkBacklinksCmd)
	linkAddCmd.Flags().StringVar(&linkType, "type", "", "link type")
	linkRmCmd.Flags().StringVar(&linkType, "type", "", "link type")
	linkListCmd.Flags().StringVar(&linkDirection, "direction", "out", "out|in|both")
}

func resolveTwoFiles(ctx context.Context, a *app, srcPath, dstPath string) (srcID, dstID int64, err error) {
	src, err := a.st.GetFileByPath(ctx, srcPath)
	if err != nil {
		return 0, 0, err
	}
	dst, err := a.st.GetFileByPath(ctx, dstPath)
	if err != nil {
		return 0, 0, err
	}
	return src.ID, dst.ID, nil
}

func runLinkAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	srcID, dstID, err := resolveTwoFiles(ctx, a, args[0], args[1])
	if err != nil {
		return fail(err)
	}
	if err := a.st.AddLink(ctx, srcID, dstID, linkType); err != nil {
		return fail(err)
	}
	return nil
}

func runLinkRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	srcID, dstID, err := resolveTwoFiles(ctx, a, args[0], args[1])
	if err != nil {
		return fail(err)
	}
	if err := a.st.RemoveLink(ctx, srcID, dstID, linkType); err != nil {
		return fail(err)
	}
	return nil
}

func parseDirection(s string) (store.Direction, error) {
	switch s {
	case "out", "":
		return store.DirectionOut, nil
	case "in":
		return store.DirectionIn, nil
	case "both":
		return store.DirectionBoth, nil
	default:
		return 0, fmt.Errorf("invalid --direction %q: want out, in, or both", s)
	}
}

func runLinkList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	dir, err := parseDirection(linkDirection)
	if err != nil {
		return fail(err)
	}

	file, err := a.st.GetFileByPath(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	neighbors, err := a.st.ListLinks(ctx, file.ID, dir)
	if err != nil {
		return fail(err)
	}
	for _, n := range neighbors {
		fmt.Printf("%s %s\n", n.Path, n.Type)
	}
	return nil
}

func runLinkBacklinks(cmd *cobra.Command, args []string) error {
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
	neighbors, err := a.st.ListLinks(ctx, file.ID, store.DirectionIn)
	if err != nil {
		return fail(err)
	}
	for _, n := range neighbors {
		fmt.Printf("%s %s\n", n.Path, n.Type)
	}
	return nil
}
