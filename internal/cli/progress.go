package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/marlin-fs/marlin/internal/scanner"
)

// scanProgress drives an indeterminate spinner for the duration of a
// scan: the Scanner reports only a final Summary (no per-file
// callback), so unlike the teacher's file-count-driven bars this one
// just shows that work is happening and for how long, matching the
// teacher's "discovering/indexing" log lines for the unknown-total case.
type scanProgress struct {
	quiet bool
	bar   *progressbar.ProgressBar
	start time.Time
	stop  chan struct{}
	done  chan struct{}
}

func newScanProgress(quiet bool, description string) *scanProgress {
	p := &scanProgress{quiet: quiet, start: time.Now(), stop: make(chan struct{}), done: make(chan struct{})}
	if quiet {
		close(p.done)
		return p
	}
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
	go p.run()
	return p
}

func (p *scanProgress) run() {
	defer close(p.done)
	ticker := time.NewTicker(65 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.bar.Add(1)
		}
	}
}

// Finish stops the spinner and prints the scan summary.
func (p *scanProgress) Finish(sum scanner.Summary) {
	if !p.quiet {
		close(p.stop)
		<-p.done
		p.bar.Finish()
		fmt.Println()
	}
	elapsed := time.Since(p.start)
	fmt.Printf("scan complete: %s indexed, %s updated, %s skipped, %s errored (%s)\n",
		humanize.Comma(int64(sum.Indexed)),
		humanize.Comma(int64(sum.Updated)),
		humanize.Comma(int64(sum.Skipped)),
		humanize.Comma(int64(sum.Errored)),
		elapsed.Round(time.Millisecond))
}
