package demoserver

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"

	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// Collector samples local system metrics into the store.
type Collector struct {
	store    *Store
	interval time.Duration
	log      logger.Logger

	lastSent uint64
	lastRecv uint64
	lastAt   time.Time
}

// NewCollector creates a collector feeding the store.
func NewCollector(store *Store, interval time.Duration, log logger.Logger) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Collector{store: store, interval: interval, log: log}
}

// Run samples until the context is cancelled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.sample(now)
		}
	}
}

// sample reads each metric once; a failing probe is logged and skipped
// so one broken source doesn't stall the others.
func (c *Collector) sample(now time.Time) {
	ts := now.UnixMilli()

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		c.store.Append("cpu", timeseries.Point{TimestampMs: ts, Value: percents[0]})
	} else if err != nil {
		c.log.Debug("cpu probe failed: %v", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		c.store.Append("memory", timeseries.Point{TimestampMs: ts, Value: vm.UsedPercent})
	} else {
		c.log.Debug("memory probe failed: %v", err)
	}

	if usage, err := disk.Usage("/"); err == nil {
		c.store.Append("disk", timeseries.Point{TimestampMs: ts, Value: usage.UsedPercent})
	} else {
		c.log.Debug("disk probe failed: %v", err)
	}

	if counters, err := gopsnet.IOCounters(false); err == nil && len(counters) > 0 {
		c.sampleNet(now, ts, counters[0].BytesSent, counters[0].BytesRecv)
	} else if err != nil {
		c.log.Debug("net probe failed: %v", err)
	}
}

// sampleNet converts cumulative interface counters to a bytes-per-second
// rate across both directions.
func (c *Collector) sampleNet(now time.Time, ts int64, sent, recv uint64) {
	defer func() {
		c.lastSent = sent
		c.lastRecv = recv
		c.lastAt = now
	}()

	if c.lastAt.IsZero() || sent < c.lastSent || recv < c.lastRecv {
		// First sample, or counters reset.
		return
	}
	elapsed := now.Sub(c.lastAt).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := float64((sent-c.lastSent)+(recv-c.lastRecv)) / elapsed
	c.store.Append("net", timeseries.Point{TimestampMs: ts, Value: rate})
}
