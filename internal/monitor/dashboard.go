package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/webitel/webpush-connection-engine/internal/registry"
)

const historyLength = 120

// Run starts a terminal dashboard polling a running instance's /stats
// endpoint (served by internal/transport/httpapi) every interval, until
// the user quits or ctx is canceled. It is a separate read-only
// process; it never touches the registry directly.
func Run(ctx context.Context, statsURL string, interval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: init terminal: %w", err)
	}
	defer ui.Close()

	summary := widgets.NewParagraph()
	summary.Title = "webpush connection engine"
	summary.SetRect(0, 0, 60, 5)

	plot := widgets.NewPlot()
	plot.Title = "connected mailboxes"
	plot.Data = [][]float64{make([]float64, 0, historyLength)}
	plot.SetRect(0, 5, 60, 20)

	client := &http.Client{Timeout: 2 * time.Second}
	history := make([]float64, 0, historyLength)

	render := func(stats registry.Stats, err error) {
		if err != nil {
			summary.Text = fmt.Sprintf("connected mailboxes: ?\nerror: %v", err)
		} else {
			summary.Text = fmt.Sprintf("connected mailboxes: %d", stats.ConnectedMailboxes)
			history = append(history, float64(stats.ConnectedMailboxes))
			if len(history) > historyLength {
				history = history[len(history)-historyLength:]
			}
			plot.Data[0] = history
		}
		ui.Render(summary, plot)
	}

	poll := func() (registry.Stats, error) {
		var stats registry.Stats
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
		if err != nil {
			return stats, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return stats, err
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return stats, err
		}
		return stats, nil
	}

	render(poll())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	events := ui.PollEvents()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			if e.ID == "q" || e.ID == "<C-c>" {
				return nil
			}
		case <-ticker.C:
			render(poll())
		}
	}
}
