package cli

import (
	"context"

	"github.com/dmitrijs2005/draped/internal/client/metrics"
)

// Stats prints the client-side request, refresh and polling counters.
func (a *App) Stats(ctx context.Context) error {
	if a.gatherer == nil {
		a.out.Printf("Metrics are not enabled\n")
		return nil
	}
	samples, err := metrics.Snapshot(a.gatherer)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.out.Printf("No requests yet\n")
		return nil
	}
	for _, s := range samples {
		a.out.Printf("%s{%s} %g\n", s.Name, s.Labels, s.Value)
	}
	return nil
}
