// ABOUTME: Progress callbacks emitted while a collection run is in flight
// ABOUTME: Lets the CLI, TUI, and metrics follow broadcasts as they finish
package collector

import "github.com/harperreed/heyreport/heymarket"

// Progress describes one finished broadcast task.
type Progress struct {
	BroadcastID heymarket.ID
	Brand       string
	Rows        int
	Skipped     bool
	Err         error
	// Done is the number of reports processed so far, Total the number discovered.
	Done  int
	Total int
}

// Observer receives run progress. Calls may arrive from many goroutines.
type Observer interface {
	Discovered(lists, broadcasts int)
	BroadcastFinished(p Progress)
}

// Observers fans progress out to several observers.
type Observers []Observer

func (o Observers) Discovered(lists, broadcasts int) {
	for _, obs := range o {
		if obs != nil {
			obs.Discovered(lists, broadcasts)
		}
	}
}

func (o Observers) BroadcastFinished(p Progress) {
	for _, obs := range o {
		if obs != nil {
			obs.BroadcastFinished(p)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Discovered(int, int)        {}
func (nopObserver) BroadcastFinished(Progress) {}
