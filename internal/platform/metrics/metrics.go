package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64

	batches      uint64
	rowsOK       uint64
	rowsFailed   uint64
	unknownCity  uint64
	negativeRows uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordBatch counts one finished batch run.
func (c *Collector) RecordBatch(ok, failed, negative int, unknownCity bool) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.batches, 1)
	atomic.AddUint64(&c.rowsOK, uint64(ok))
	atomic.AddUint64(&c.rowsFailed, uint64(failed))
	atomic.AddUint64(&c.negativeRows, uint64(negative))
	if unknownCity {
		atomic.AddUint64(&c.unknownCity, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	clientErrs := atomic.LoadUint64(&c.clientErrors)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":           total,
		"errorsTotal":             errs,
		"clientErrorsTotal":       clientErrs,
		"avgDurationMs":           avg,
		"totalDurationMs":         totalMs,
		"batchesTotal":            atomic.LoadUint64(&c.batches),
		"rowsProcessedTotal":      atomic.LoadUint64(&c.rowsOK),
		"rowsFailedTotal":         atomic.LoadUint64(&c.rowsFailed),
		"negativePerformanceRows": atomic.LoadUint64(&c.negativeRows),
		"unknownCityBatches":      atomic.LoadUint64(&c.unknownCity),
	}
}
