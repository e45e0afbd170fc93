package watch

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dersebi/GoSublime/internal/ui/pretty"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// clearScreen clears the terminal and moves the cursor to the top left.
const clearScreen = "\033[2J\033[H"

type published struct {
	entries []bridge.Entry
	index   *textpos.Index
}

// printer serializes terminal output from bridge worker goroutines.
type printer struct {
	w      *Watcher
	out    io.Writer
	styles *pretty.Styles

	mu      sync.Mutex
	results map[session.BufferID]published
	notices []string
	now     func() time.Time
}

func newPrinter(w *Watcher, out io.Writer, styles *pretty.Styles) *printer {
	return &printer{
		w:       w,
		out:     out,
		styles:  styles,
		results: make(map[session.BufferID]published),
		now:     time.Now,
	}
}

func (p *printer) publish(id session.BufferID, entries []bridge.Entry, ix *textpos.Index) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, seen := p.results[id]
	p.results[id] = published{entries: entries, index: ix}

	if p.w.cfg.ClearScreen {
		p.redrawLocked()
		return
	}
	// Clean files stay quiet until they had something to report.
	if len(entries) == 0 && !seen {
		return
	}
	p.writeFileLocked(id, p.results[id], true)
}

func (p *printer) forget(id session.BufferID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.results, id)
}

func (p *printer) notice(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notices = append(p.notices, message)
	if p.w.cfg.ClearScreen {
		p.redrawLocked()
		return
	}
	fmt.Fprintln(p.out, p.styles.Warning.Render(message))
}

// status prints the one-line watch summary.
func (p *printer) status() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.w.cfg.ClearScreen {
		p.redrawLocked()
		return
	}
	fmt.Fprintln(p.out, p.statusLineLocked())
}

func (p *printer) redrawLocked() {
	fmt.Fprint(p.out, clearScreen)

	for _, message := range p.notices {
		fmt.Fprintln(p.out, p.styles.Warning.Render(message))
	}

	ids := make([]session.BufferID, 0, len(p.results))
	for id, res := range p.results {
		if len(res.entries) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p.writeFileLocked(id, p.results[id], false)
	}
	fmt.Fprintln(p.out, p.statusLineLocked())
}

func (p *printer) writeFileLocked(id session.BufferID, res published, stamp bool) {
	path := p.w.rel(string(id))

	header := p.styles.FormatFileHeader(path, len(res.entries))
	if len(res.entries) == 0 {
		header += " " + p.styles.Success.Render("ok")
	}
	if stamp {
		header = p.styles.Timestamp.Render(p.now().Format("15:04:05")) + " " + header
	}
	fmt.Fprintln(p.out, header)

	for _, entry := range res.entries {
		var source string
		if entry.HasRegion {
			source, _ = res.index.LineText(entry.Diagnostic.Line)
		}
		fmt.Fprint(p.out, p.styles.FormatDiagnostic(path, entry.Diagnostic, entry.HasRegion, source))
	}
}

func (p *printer) statusLineLocked() string {
	var issues, files int
	for _, res := range p.results {
		if len(res.entries) > 0 {
			files++
			issues += len(res.entries)
		}
	}

	line := fmt.Sprintf("watching %s: %d %s in %d %s (%d open)",
		p.w.baseDir,
		issues, plural(issues, "issue", "issues"),
		files, plural(files, "file", "files"),
		len(p.w.Tracked()),
	)
	return p.styles.Status.Render(pretty.TruncateStatus(line, p.w.cfg.Width))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
