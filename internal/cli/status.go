package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print store path, schema version, and domain counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	counts, version, err := a.st.Status(ctx)
	if err != nil {
		return fail(err)
	}

	if jsonOutput {
		out := map[string]any{
			"path":             a.st.Path(),
			"schema_version":   version,
			"supported_schema": store.SupportedSchemaVersion(),
			"files":            counts.Files,
			"tags":             counts.Tags,
			"attributes":       counts.Attributes,
			"links":            counts.Links,
			"collections":      counts.Collections,
			"saved_views":      counts.SavedViews,
			"dirty_marks":      counts.DirtyMarks,
		}
		b, marshalErr := json.MarshalIndent(out, "", "  ")
		if marshalErr != nil {
			return fail(marshalErr)
		}
		fmt.Println(string(b))
		return nil
	}

	fmt.Printf("store:      %s\n", a.st.Path())
	fmt.Printf("schema:     %d (supported %d)\n", version, store.SupportedSchemaVersion())
	fmt.Printf("files:      %d\n", counts.Files)
	fmt.Printf("tags:       %d\n", counts.Tags)
	fmt.Printf("attributes: %d\n", counts.Attributes)
	fmt.Printf("links:      %d\n", counts.Links)
	fmt.Printf("coll'ns:    %d\n", counts.Collections)
	fmt.Printf("views:      %d\n", counts.SavedViews)
	fmt.Printf("dirty:      %d\n", counts.DirtyMarks)
	return nil
}
