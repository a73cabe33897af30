package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var collCmd = &cobra.Command{
	Use:   "coll",
	Short: "Manage named collections of files",
}

var collCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new, empty collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollCreate,
}

var collAddCmd = &cobra.Command{
	Use:   "add NAME GLOB",
	Short: "Add every file matching GLOB to collection NAME",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollAdd,
}

var collListCmd = &cobra.Command{
	Use:   "list NAME",
	Short: "List the member paths of collection NAME",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollList,
}

var collRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete collection NAME",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollRm,
}

var collRmFileCmd = &cobra.Command{
	Use:   "rm-file NAME PATH",
	Short: "Remove PATH from collection NAME without deleting the collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollRmFile,
}

func init() {
	rootCmd.AddCommand(collCmd)
	collCmd.AddCommand(collCreateCmd, collAddCmd, collListCmd, collRmCmd, collRmFileCmd)
}

func runCollCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}
	if _, err := a.st.CreateCollection(ctx, args[0]); err != nil {
		return fail(err)
	}
	return nil
}

func runCollAdd(cmd *cobra.Command, args []string) error {
	name, glob := args[0], args[1]
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	collID, err := a.st.GetCollectionByName(ctx, name)
	if err != nil {
		return fail(err)
	}
	files, err := a.st.ResolveGlob(ctx, glob)
	if err != nil {
		return fail(err)
	}

	var ok, failed int
	for _, f := range files {
		if err := a.st.AddToCollection(ctx, collID, f.ID); err != nil {
			fmt.Printf("error: %s: %v\n", f.Path, err)
			failed++
			continue
		}
		ok++
	}
	fmt.Printf("added %d file(s) to %s, %d failed\n", ok, name, failed)
	if ok == 0 && failed > 0 {
		return fail(fmt.Errorf("coll add: all %d items failed", failed))
	}
	return nil
}

func runCollList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	collID, err := a.st.GetCollectionByName(ctx, args[0])
	if err != nil {
		return fail(err)
	}
	paths, err := a.st.ListCollectionFiles(ctx, collID)
	if err != nil {
		return fail(err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runCollRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}
	if err := a.st.RemoveCollection(ctx, args[0]); err != nil {
		return fail(err)
	}
	return nil
}

func runCollRmFile(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	collID, err := a.st.GetCollectionByName(ctx, name)
	if err != nil {
		return fail(err)
	}
	file, err := a.st.GetFileByPath(ctx, path)
	if err != nil {
		return fail(err)
	}
	if err := a.st.RemoveFromCollection(ctx, collID, file.ID); err != nil {
		return fail(err)
	}
	return nil
}
