package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics counts what happened on one stream. All methods are safe for
// concurrent use.
type Statistics struct {
	created time.Time

	writeAcquires atomic.Int64
	writeReleases atomic.Int64
	readAcquires  atomic.Int64
	readReleases  atomic.Int64
	samplesIn     atomic.Int64
	samplesOut    atomic.Int64
	overflows     atomic.Int64
	drops         atomic.Int64
	queued        atomic.Int64
	peakQueued    atomic.Int64
}

// NewStatistics creates zeroed statistics.
func NewStatistics() *Statistics {
	return &Statistics{created: time.Now()}
}

// AcquireWrite records a successful write acquisition.
func (s *Statistics) AcquireWrite() { s.writeAcquires.Add(1) }

// ReleaseWrite records a published DataSet of n samples.
func (s *Statistics) ReleaseWrite(n int) {
	s.writeReleases.Add(1)
	s.samplesIn.Add(int64(n))
}

// AcquireRead records a successful read acquisition.
func (s *Statistics) AcquireRead() { s.readAcquires.Add(1) }

// ReleaseRead records a consumed DataSet of n samples.
func (s *Statistics) ReleaseRead(n int) {
	s.readReleases.Add(1)
	s.samplesOut.Add(int64(n))
}

// Overflow records a write attempt against a full queue.
func (s *Statistics) Overflow() { s.overflows.Add(1) }

// Drop records a DataSet discarded by DropOldest or Discard.
func (s *Statistics) Drop() { s.drops.Add(1) }

// UpdateSize records the number of queued DataSets and tracks the peak.
func (s *Statistics) UpdateSize(size int64) {
	s.queued.Store(size)
	for {
		peak := s.peakQueued.Load()
		if size <= peak || s.peakQueued.CompareAndSwap(peak, size) {
			return
		}
	}
}

func (s *Statistics) WriteReleases() int64 { return s.writeReleases.Load() }
func (s *Statistics) ReadReleases() int64  { return s.readReleases.Load() }
func (s *Statistics) SamplesOut() int64    { return s.samplesOut.Load() }
func (s *Statistics) Overflows() int64     { return s.overflows.Load() }
func (s *Statistics) Drops() int64         { return s.drops.Load() }

// MaxSize returns the largest number of DataSets queued at once.
func (s *Statistics) MaxSize() int64 { return s.peakQueued.Load() }

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	WriteAcquires int64         `json:"write_acquires"`
	WriteReleases int64         `json:"write_releases"`
	ReadAcquires  int64         `json:"read_acquires"`
	ReadReleases  int64         `json:"read_releases"`
	SamplesIn     int64         `json:"samples_in"`
	SamplesOut    int64         `json:"samples_out"`
	Overflows     int64         `json:"overflows"`
	Drops         int64         `json:"drops"`
	CurrentSize   int64         `json:"current_size"`
	MaxSize       int64         `json:"max_size"`
	Throughput    float64       `json:"throughput"` // published DataSets per second
	Uptime        time.Duration `json:"uptime"`
}

// Summary returns a snapshot. Counters are read one by one, so a summary
// taken while the stream is busy may be off by the operations in flight.
func (s *Statistics) Summary() StatsSummary {
	uptime := time.Since(s.created)
	sum := StatsSummary{
		WriteAcquires: s.writeAcquires.Load(),
		WriteReleases: s.writeReleases.Load(),
		ReadAcquires:  s.readAcquires.Load(),
		ReadReleases:  s.readReleases.Load(),
		SamplesIn:     s.samplesIn.Load(),
		SamplesOut:    s.samplesOut.Load(),
		Overflows:     s.overflows.Load(),
		Drops:         s.drops.Load(),
		CurrentSize:   s.queued.Load(),
		MaxSize:       s.peakQueued.Load(),
		Uptime:        uptime,
	}
	if uptime > 0 {
		sum.Throughput = float64(sum.WriteReleases) / uptime.Seconds()
	}
	return sum
}
