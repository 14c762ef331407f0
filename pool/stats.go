// File: pool/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Name        string `json:"name" yaml:"name"`
	Workers     int    `json:"workers" yaml:"workers"`
	LiveWorkers int    `json:"live_workers" yaml:"live_workers"`
	Pending     int    `json:"pending" yaml:"pending"`
	Running     int    `json:"running" yaml:"running"`
	Submitted   uint64 `json:"submitted" yaml:"submitted"`
	Completed   uint64 `json:"completed" yaml:"completed"`
	Failed      uint64 `json:"failed" yaml:"failed"`
	Discarded   uint64 `json:"discarded" yaml:"discarded"`
	Rejected    uint64 `json:"rejected" yaml:"rejected"`
	Shutdown    bool   `json:"shutdown" yaml:"shutdown"`
}

// Stats returns current counters. Queue figures read as zero once the pool
// is destroyed.
func (p *ThreadPool) Stats() Stats {
	s := Stats{
		Name:        p.name,
		Workers:     p.size,
		LiveWorkers: int(p.live.Load()),
		Submitted:   p.submitted.Load(),
		Completed:   p.completed.Load(),
		Failed:      p.failed.Load(),
		Discarded:   p.discarded.Load(),
		Rejected:    p.rejected.Load(),
		Shutdown:    true,
	}
	if p.mu.Lock() == nil {
		s.Pending = p.tasks.len()
		s.Running = p.running
		s.Shutdown = p.shutdown
		_ = p.mu.Unlock()
	}
	return s
}
