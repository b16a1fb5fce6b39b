package contextengine

import "time"

// OptInt is an integer reading that may be absent when its probe failed.
type OptInt struct {
	Value int
	OK    bool
}

func SomeInt(v int) OptInt { return OptInt{Value: v, OK: true} }

type OptBool struct {
	Value bool
	OK    bool
}

func SomeBool(v bool) OptBool { return OptBool{Value: v, OK: true} }

type OptFloat struct {
	Value float64
	OK    bool
}

func SomeFloat(v float64) OptFloat { return OptFloat{Value: v, OK: true} }

// Snapshot is a best-effort, point-in-time reading of machine state. Every
// field other than Timestamp is independently optional: a failed probe leaves
// the field absent instead of failing the snapshot.
type Snapshot struct {
	Timestamp      time.Time
	ActiveApp      string
	Battery        OptInt
	Charging       OptBool
	CPULoad        OptFloat
	GitBranch      string
	GitDirty       OptBool
	WindowSwitches int
	TerminalError  string
}

// History is a fixed-capacity ring of recent snapshots, overwritten
// oldest-first. It is not safe for concurrent use; the engine guards it.
type History struct {
	buf   []Snapshot
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 12
	}
	return &History{buf: make([]Snapshot, capacity)}
}

func (h *History) Append(s Snapshot) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = s
		h.size++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }

// Snapshots returns the buffered entries ordered oldest to newest.
func (h *History) Snapshots() []Snapshot {
	out := make([]Snapshot, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

func (h *History) Latest() (Snapshot, bool) {
	if h.size == 0 {
		return Snapshot{}, false
	}
	return h.buf[(h.start+h.size-1)%len(h.buf)], true
}
