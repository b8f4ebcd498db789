package marketcache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	quotaWarnRatio  = 0.8
	quotaForcedKeep = 0.3
)

// QuotaReport describes store usage against the assumed quota.
type QuotaReport struct {
	Usage   int64   `json:"usage"`
	Quota   int64   `json:"quota"`
	Percent float64 `json:"percent"`
	Evicted int     `json:"evicted"`
}

// CheckQuota measures store usage and, above 80% of the assumed quota, evicts
// down to the 30% most recently used series.
func (c *Cache) CheckQuota(ctx context.Context) (QuotaReport, error) {
	usage, err := c.store.Usage(ctx)
	if err != nil {
		return QuotaReport{}, fmt.Errorf("measure store usage: %w", err)
	}
	r := QuotaReport{
		Usage:   usage,
		Quota:   c.opts.AssumedQuota,
		Percent: float64(usage) / float64(c.opts.AssumedQuota) * 100,
	}
	if float64(usage) <= quotaWarnRatio*float64(c.opts.AssumedQuota) {
		return r, nil
	}

	c.log.WithFields(logrus.Fields{"usage": usage, "quota": r.Quota}).Warn("store usage above 80% of quota")
	evicted, err := c.Evict(ctx, quotaForcedKeep)
	r.Evicted = evicted
	if err != nil {
		return r, fmt.Errorf("evict after quota check: %w", err)
	}
	return r, nil
}
