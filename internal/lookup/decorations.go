package lookup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Decorations is the extra content shown next to the tracker.
type Decorations struct {
	Rates map[string]float64
	Tip   string
}

// Fetcher runs both lookups concurrently.
type Fetcher struct {
	Rates  *RatesClient
	Advice *AdviceClient
}

func NewFetcher(rates *RatesClient, advice *AdviceClient) *Fetcher {
	return &Fetcher{Rates: rates, Advice: advice}
}

// Decorations returns whatever both lookups produced. It never fails; each
// lookup falls back on its own.
func (f *Fetcher) Decorations(ctx context.Context) Decorations {
	var d Decorations
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Rates = f.Rates.Latest(gctx)
		return nil
	})
	g.Go(func() error {
		d.Tip = f.Advice.Tip(gctx)
		return nil
	})
	_ = g.Wait()
	return d
}
