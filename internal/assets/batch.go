package assets

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// BatchStat looks up every name independently and returns the metadata of
// those that succeeded, in input order. Failures of any kind, missing assets
// included, are dropped: the result may be shorter than names and is never
// accompanied by an error. Duplicate names are looked up once each.
func (s *Store) BatchStat(ctx context.Context, names []string) []Info {
	if len(names) == 0 {
		return []Info{}
	}

	type slot struct {
		info Info
		ok   bool
	}
	results := make([]slot, len(names))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, name := range names {
		g.Go(func() error {
			info, err := s.Stat(ctx, name)
			if err != nil {
				slog.Debug("Skipping asset in batch lookup", "name", name, "kind", KindOf(err), "err", err)
				return nil
			}
			results[i] = slot{info: info, ok: true}
			return nil
		})
	}

	// The per-name closures never return an error.
	_ = g.Wait()

	out := make([]Info, 0, len(names))
	for _, r := range results {
		if r.ok {
			out = append(out, r.info)
		}
	}
	return out
}
