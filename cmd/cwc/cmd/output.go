package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/catalogwatch/collector/internal/api/client"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printItemsTable(items []domain.Item) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tCOLLECTION\tNAME\tLAST UPDATED\n")
	for i := range items {
		tw.writef("%d\t%s\t%s\t%s\n",
			items[i].ID,
			items[i].CollectionID,
			truncate(items[i].ItemName, 50),
			items[i].LastUpdated.Format("2006-01-02 15:04:05"),
		)
	}
	return tw.finish()
}

func printItemDetail(item *domain.Item) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%d\n", item.ID)
	tw.writef("Collection:\t%s\n", item.CollectionID)
	tw.writef("Name:\t%s\n", item.ItemName)
	tw.writef("Last Updated:\t%s\n", item.LastUpdated.Format("2006-01-02 15:04:05"))
	return tw.finish()
}

func printHistoryTable(obs []domain.PriceObservation) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("OBSERVED\tVALUE\tVOLUME\n")
	for i := range obs {
		tw.writef("%s\t%.2f\t%d\n",
			obs[i].ObservedAt.Format("2006-01-02 15:04:05"),
			obs[i].Value,
			obs[i].Volume,
		)
	}
	return tw.finish()
}

func printStateDetail(s *domain.SystemState) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Paused:\t%v\n", s.Paused)
	tw.writef("Stopping:\t%v\n", s.Stopping)
	tw.writef("Queue Depth:\t%d\n", s.QueueDepth)
	tw.writef("Queue Dropped:\t%d\n", s.QueueDropped)
	tw.writef("Workers:\t%s\n", strings.Join(s.Workers, ", "))
	tw.writef("Items:\t%d\n", s.ItemsTotal)
	tw.writef("Observations:\t%d\n", s.ObservationsTotal)
	if s.LastDiscoveryAt != nil {
		tw.writef("Last Discovery:\t%s\n", s.LastDiscoveryAt.Format("2006-01-02 15:04:05"))
	}
	for i := range s.Budgets {
		b := &s.Budgets[i]
		penalized := ""
		if b.Penalized {
			penalized = " (penalized)"
		}
		tw.writef("Budget %s/%s:\t%d/%d%s\n",
			b.Scope, b.Operation, b.Used, b.Limit, penalized)
	}
	return tw.finish()
}

func printControlResponse(r *apiclient.ControlResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Paused:\t%v\n", r.Paused)
	tw.writef("Stopping:\t%v\n", r.Stopping)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
