package export

import (
	"fmt"
	"sync"
	"time"
)

var stateOrder = map[JobState]int{
	StateIdle:       0,
	StatePreparing:  1,
	StateCapturing:  2,
	StateAssembling: 3,
	StateDone:       4,
	StateFailed:     4,
}

// ExportJob is one export run. States only move forward.
type ExportJob struct {
	ID        string
	Format    Format
	Entry     string
	StartedAt time.Time

	mu            sync.RWMutex
	regions       []RegionRef
	state         JobState
	current       int
	capturedCount int
	skipped       []RegionRef
}

// NewExportJob creates an idle job.
func NewExportJob(id string, format Format, entry string, now time.Time) *ExportJob {
	return &ExportJob{ID: id, Format: format, Entry: entry, StartedAt: now, state: StateIdle}
}

// SetRegions fixes the job's region list. It is immutable once capturing starts.
func (j *ExportJob) SetRegions(regions []RegionRef) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if stateOrder[j.state] >= stateOrder[StateCapturing] {
		return NewError(KindInternal, "regions are immutable once capturing starts", nil)
	}
	j.regions = append([]RegionRef(nil), regions...)
	return nil
}

// Regions returns a copy of the job regions.
func (j *ExportJob) Regions() []RegionRef {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]RegionRef(nil), j.regions...)
}

// State returns the job state and, while capturing, the 1-based region index.
func (j *ExportJob) State() (JobState, int) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state, j.current
}

// Advance moves the job to next. Capturing may repeat with a higher index.
func (j *ExportJob) Advance(next JobState, index int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	from := j.state
	if from == StateDone || from == StateFailed {
		return NewError(KindInternal, fmt.Sprintf("job %s already %s", j.ID, from), nil)
	}
	switch {
	case next == StateFailed:
	case next == StateCapturing && from == StateCapturing:
		if index <= j.current {
			return NewError(KindInternal, fmt.Sprintf("capturing index must advance past %d", j.current), nil)
		}
	case next == StateDone && from != StateAssembling:
		return NewError(KindInternal, "job can only finish from assembling", nil)
	case stateOrder[next] <= stateOrder[from]:
		return NewError(KindInternal, fmt.Sprintf("invalid job transition %s -> %s", from, next), nil)
	}

	j.state = next
	if next == StateCapturing {
		j.current = index
	}
	return nil
}

// MarkCaptured records one successfully rendered region.
func (j *ExportJob) MarkCaptured() {
	j.mu.Lock()
	j.capturedCount++
	j.mu.Unlock()
}

// MarkSkipped records a region dropped after a capture error.
func (j *ExportJob) MarkSkipped(region RegionRef) {
	j.mu.Lock()
	j.skipped = append(j.skipped, region)
	j.mu.Unlock()
}

// CapturedCount returns the number of regions rendered so far.
func (j *ExportJob) CapturedCount() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.capturedCount
}

// Skipped returns the regions dropped so far.
func (j *ExportJob) Skipped() []RegionRef {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]RegionRef(nil), j.skipped...)
}

// Status returns a point-in-time snapshot of the job.
func (j *ExportJob) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobStatus{
		ID:            j.ID,
		Format:        j.Format,
		State:         j.state,
		Current:       j.current,
		Total:         len(j.regions),
		CapturedCount: j.capturedCount,
		StartedAt:     j.StartedAt,
	}
}
