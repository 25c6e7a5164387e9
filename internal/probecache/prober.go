package probecache

import (
	"context"
	"log/slog"
	"os"

	"edlmatch/internal/logging"
	"edlmatch/internal/media/ffprobe"
)

// Prober serves probe results from the cache and falls through to Next on a
// miss. Cache errors are logged and never fail the probe.
type Prober struct {
	Next   ffprobe.Prober
	Store  *Store
	Logger *slog.Logger

	Hits   int
	Misses int
}

// Probe implements ffprobe.Prober.
func (p *Prober) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	info, statErr := os.Stat(path)
	if statErr == nil && p.Store != nil {
		result, ok, err := p.Store.Get(ctx, path, info)
		if err != nil {
			logging.WarnWithContext(logger, "probe cache lookup failed", "probe_cache_error",
				logging.String(logging.FieldMediaPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is probed again"),
			)
		} else if ok {
			p.Hits++
			return result, nil
		}
	}

	p.Misses++
	result, err := p.Next.Probe(ctx, path)
	if err != nil {
		return result, err
	}
	if statErr == nil && p.Store != nil {
		if err := p.Store.Put(ctx, path, info, result); err != nil {
			logging.WarnWithContext(logger, "probe cache store failed", "probe_cache_error",
				logging.String(logging.FieldMediaPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file will be probed again next run"),
			)
		}
	}
	return result, nil
}
