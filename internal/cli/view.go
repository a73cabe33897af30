package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved searches",
}

var viewSaveCmd = &cobra.Command{
	Use:   "save NAME QUERY",
	Short: "Save QUERY under NAME",
	Args:  cobra.ExactArgs(2),
	RunE:  runViewSave,
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	Args:  cobra.NoArgs,
	RunE:  runViewList,
}

var viewExecCmd = &cobra.Command{
	Use:   "exec NAME",
	Short: "Run the saved view NAME and print matching paths",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewExec,
}

var viewRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete the saved view NAME",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewRm,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewSaveCmd, viewListCmd, viewExecCmd, viewRmCmd)
}

func runViewSave(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}
	if err := a.st.SaveView(ctx, args[0], args[1]); err != nil {
		return fail(err)
	}
	return nil
}

func runViewList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	views, err := a.st.ListViews(ctx)
	if err != nil {
		return fail(err)
	}
	for _, v := range views {
		fmt.Printf("%s\t%s\n", v.Name, v.Query)
	}
	return nil
}

func runViewExec(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	query, err := a.st.GetView(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	paths, err := a.engine.Search(ctx, query)
	if err != nil {
		return fail(err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runViewRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}
	if err := a.st.RemoveView(ctx, args[0]); err != nil {
		return fail(err)
	}
	return nil
}
