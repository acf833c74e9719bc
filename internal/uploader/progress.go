package uploader

import "sync"

// Progress milestones, in percent.
const (
	ProgressCompressing = 10
	ProgressCompressed  = 30
	ProgressDone        = 100
)

// Tracker holds a progress value that never decreases.
type Tracker struct {
	mu       sync.Mutex
	value    int
	onChange func(int)
}

func NewTracker(onChange func(int)) *Tracker {
	return &Tracker{onChange: onChange}
}

// Set moves the progress to v. Lower values are ignored.
func (t *Tracker) Set(v int) {
	if v > ProgressDone {
		v = ProgressDone
	}
	t.mu.Lock()
	if v <= t.value {
		t.mu.Unlock()
		return
	}
	t.value = v
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}

// Transfer maps sent/total bytes onto the 30..100 range.
func (t *Tracker) Transfer(sent, total int64) {
	if total <= 0 {
		return
	}
	t.Set(ProgressCompressed + int(float64(ProgressDone-ProgressCompressed)*float64(sent)/float64(total)))
}

func (t *Tracker) Value() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}
