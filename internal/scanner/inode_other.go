//go:build !unix

package scanner

import "os"

// Non-POSIX platforms don't expose inode numbers through os.FileInfo;
// fall back to name-based identity, which still breaks simple loops
// within a single directory listing.
func dirKey(info os.FileInfo) string {
	return info.Name()
}
