package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var attrCmd = &cobra.Command{
	Use:   "attr",
	Short: "Manage key/value attributes on files",
}

var attrSetCmd = &cobra.Command{
	Use:   "set GLOB KEY VALUE",
	Short: "Upsert KEY=VALUE on every file matching GLOB",
	Args:  cobra.ExactArgs(3),
	RunE:  runAttrSet,
}

var attrRmCmd = &cobra.Command{
	Use:   "rm GLOB KEY",
	Short: "Remove KEY from every file matching GLOB",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttrRm,
}

var attrLsCmd = &cobra.Command{
	Use:   "ls PATH",
	Short: "Print all attributes of PATH",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttrLs,
}

func init() {
	rootCmd.AddCommand(attrCmd)
	attrCmd.AddCommand(attrSetCmd, attrRmCmd, attrLsCmd)
}

func runAttrSet(cmd *cobra.Command, args []string) error {
	glob, key, value := args[0], args[1], args[2]
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
		if err := a.st.SetAttribute(ctx, f.ID, key, value); err != nil {
			fmt.Printf("error: %s: %v\n", f.Path, err)
			failed++
			continue
		}
		ok++
	}
	fmt.Printf("set attribute on %d file(s), %d failed\n", ok, failed)
	if ok == 0 && failed > 0 {
		return fail(fmt.Errorf("attr set: all %d items failed", failed))
	}
	return nil
}

func runAttrRm(cmd *cobra.Command, args []string) error {
	glob, key := args[0], args[1]
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
		if err := a.st.RemoveAttribute(ctx, f.ID, key); err != nil {
			fmt.Printf("error: %s: %v\n", f.Path, err)
			failed++
			continue
		}
		ok++
	}
	fmt.Printf("removed attribute on %d file(s), %d failed\n", ok, failed)
	if ok == 0 && failed > 0 {
		return fail(fmt.Errorf("attr rm: all %d items failed", failed))
	}
	return nil
}

func runAttrLs(cmd *cobra.Command, args []string) error {
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
	attrs, err := a.st.ListAttributes(ctx, file.ID)
	if err != nil {
		return fail(err)
	}
	for _, attr := range attrs {
		fmt.Printf("%s=%s\n", attr.Key, attr.Value)
	}
	return nil
}
