// ABOUTME: Export guard that detects whether today's data already reached the spreadsheet
// ABOUTME: Any sheet whose name starts with today's UTC date counts as an export
package sheets

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DateLayout is the date prefix sheets are matched on.
const DateLayout = "2006-01-02"

// Guard answers whether an export already happened today.
type Guard struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time
}

// NewGuard creates a guard over backend.
func NewGuard(backend Backend, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Guard{backend: backend, logger: logger, now: time.Now}
}

// Today returns the current UTC date as YYYY-MM-DD.
func (g *Guard) Today() string {
	return g.now().UTC().Format(DateLayout)
}

// AlreadyExportedToday fails open: when the sheet list cannot be read the
// answer is false and the run proceeds without prompting.
func (g *Guard) AlreadyExportedToday(ctx context.Context) bool {
	names, err := g.backend.SheetNames(ctx)
	if err != nil {
		g.logger.Error("error checking existing exports", "err", err)
		return false
	}

	today := g.Today()
	for _, name := range names {
		if strings.HasPrefix(name, today) {
			g.logger.Debug("found export for today", "sheet", name)
			return true
		}
	}
	return false
}
