// Package monitor renders a terminal dashboard of the rooms a running
// server currently hosts, polled over the query API.
package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/typeclash/tournament-service/internal/domain/runtime"
)

const pollInterval = 2 * time.Second

type roomsResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    []runtime.Stats `json:"data"`
}

// Run blocks until the user quits with q or Ctrl-C.
func Run(baseURL string) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal ui: %w", err)
	}
	defer ui.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	table := widgets.NewTable()
	table.Title = " tournament rooms "
	table.TextAlignment = ui.AlignLeft
	table.RowSeparator = false

	status := widgets.NewParagraph()
	status.Border = false

	draw := func() {
		w, h := ui.TerminalDimensions()
		table.SetRect(0, 0, w, h-3)
		status.SetRect(0, h-3, w, h)
		ui.Render(table, status)
	}

	refresh := func() {
		stats, err := fetchRooms(client, baseURL)
		if err != nil {
			status.Text = fmt.Sprintf("poll failed: %v (q to quit)", err)
		} else {
			status.Text = fmt.Sprintf("%d room(s), refreshed %s (q to quit)",
				len(stats), time.Now().Format("15:04:05"))
		}
		table.Rows = toRows(stats)
		draw()
	}
	refresh()

	events := ui.PollEvents()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				draw()
			}
		case <-ticker.C:
			refresh()
		}
	}
}

func fetchRooms(client *http.Client, baseURL string) ([]runtime.Stats, error) {
	resp, err := client.Get(baseURL + "/api/v1/rooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body roomsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("server error: %s", body.Message)
	}
	return body.Data, nil
}

func toRows(stats []runtime.Stats) [][]string {
	sort.Slice(stats, func(i, j int) bool { return stats[i].ScheduledFor.Before(stats[j].ScheduledFor) })

	rows := make([][]string, 0, len(stats)+1)
	rows = append(rows, []string{"ID", "TITLE", "STATUS", "PLAYERS", "SCHEDULED", "STARTED"})
	for _, s := range stats {
		started := "-"
		if s.StartedAt != nil {
			started = s.StartedAt.Local().Format("15:04:05")
		}
		rows = append(rows, []string{
			shorten(s.ID),
			s.Title,
			string(s.Status),
			fmt.Sprintf("%d", s.Participants),
			s.ScheduledFor.Local().Format("15:04:05"),
			started,
		})
	}
	return rows
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
