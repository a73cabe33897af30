// Command marlin is the Marlin CLI: init, scan, tag, attr, link, coll,
// view, search, watch, backup, and restore against a local SQLite
// metadata store.
package main

import "github.com/marlin-fs/marlin/internal/cli"

func main() {
	cli.Execute()
}
