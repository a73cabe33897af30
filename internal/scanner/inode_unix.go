//go:build unix

package scanner

import (
	"fmt"
	"os"
	"syscall"
)

func dirKey(info os.FileInfo) string {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return fmt.Sprintf("%d:%d", st.Dev, st.Ino)
	}
	return info.Name()
}
