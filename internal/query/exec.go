package query

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecResult summarizes a `search --exec` run: spec's "first nonzero
// exit after stream" semantics mean every matched path still gets its
// command run and its output streamed, but the overall run reports the
// first nonzero exit code encountered, if any.
type ExecResult struct {
	Ran        int
	FirstNonZero int
	FirstFailed  string
}

// RunExec substitutes `{}` for each matched path in template (a shell
// command split the same way the template was written), runs it with
// stdout/stderr streamed live, and accumulates the first failing exit
// code without aborting the remaining paths.
func RunExec(ctx context.Context, paths []string, template []string) (ExecResult, error) {
	var res ExecResult
	if len(template) == 0 {
		return res, fmt.Errorf("--exec requires a command")
	}

	for _, path := range paths {
		args := make([]string, len(template))
		substituted := false
		for i, part := range template {
			if strings.Contains(part, "{}") {
				args[i] = strings.ReplaceAll(part, "{}", path)
				substituted = true
			} else {
				args[i] = part
			}
		}
		if !substituted {
			args = append(args, path)
		}

		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		runErr := cmd.Run()
		res.Ran++

		if runErr != nil {
			code := 1
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
			if res.FirstNonZero == 0 {
				res.FirstNonZero = code
				res.FirstFailed = path
			}
		}
	}
	return res, nil
}
