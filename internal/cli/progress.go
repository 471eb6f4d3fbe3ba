package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// progressBar renders transfer progress events as a file-count bar and
// collects per-file failures for the summary.
type progressBar struct {
	out    io.Writer
	styles styles
	quiet  bool

	mu       sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
	total    int
	done     int
	failed   []artifacttypes.ProgressEvent
}

func newProgressBar(out io.Writer, quiet bool) *progressBar {
	return &progressBar{
		out:    out,
		styles: newStyles(out),
		quiet:  quiet,
	}
}

// Handle consumes one progress event.
func (p *progressBar) Handle(event artifacttypes.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Kind {
	case artifacttypes.EventStart:
		p.total = event.Total
		if p.quiet || event.Total == 0 {
			return
		}
		p.progress = mpb.New(mpb.WithOutput(p.out), mpb.WithWidth(40))
		p.bar = p.progress.AddBar(int64(event.Total),
			mpb.PrependDecorators(
				decor.Name(event.Operation+" "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	case artifacttypes.EventSuccess:
		p.done++
		p.increment()
	case artifacttypes.EventError:
		p.done++
		p.failed = append(p.failed, event)
		p.increment()
	}
}

func (p *progressBar) increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Finish stops the bar and prints a summary. Bars of aborted runs are
// dropped instead of waiting for completion.
func (p *progressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.progress != nil {
		if !p.bar.Completed() {
			p.bar.Abort(false)
		}
		p.progress.Wait()
	}

	for _, event := range p.failed {
		_, _ = fmt.Fprintf(p.out, "%s %s: %s\n", p.styles.failure.Render("failed"), event.Path, event.Message)
	}
	if p.total > 0 && !p.quiet {
		summary := fmt.Sprintf("%d of %d files transferred", p.done-len(p.failed), p.total)
		_, _ = fmt.Fprintln(p.out, p.styles.success.Render(summary))
	}
}

// Failed returns the number of failed files.
func (p *progressBar) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failed)
}
