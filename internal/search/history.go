package search

// historyRecord is one entry in the played-position path: the Zobrist hash
// and whether this position followed an irreversible move (pawn move or
// capture), which bounds repetition counting.
type historyRecord struct {
	hash    uint64
	isReset bool
}

// History is the ordered path of positions reached since the game's start
// position, fed externally via the `position ... moves ...` replay (§6) and
// extended by the search along its current line. Each worker
// gets its own copy of the root's history (§5).
type History struct {
	records []historyRecord
}

// NewHistory returns an empty History; callers Push the Zobrist hash of
// every position played so far, in order, paired with whether that position
// reset the fifty-move counter.
func NewHistory() *History {
	return &History{records: make([]historyRecord, 0, 64)}
}

// Clone returns an independent copy so a worker can push/pop during search
// without perturbing the orchestrator's root history or other workers.
func (h *History) Clone() *History {
	c := &History{records: make([]historyRecord, len(h.records))}
	copy(c.records, h.records)
	return c
}

// Push records a newly reached position.
func (h *History) Push(hash uint64, isReset bool) {
	h.records = append(h.records, historyRecord{hash: hash, isReset: isReset})
}

// Pop removes the most recently pushed position, used when backing out of a
// searched move (§4.6 step 14: "pop history").
func (h *History) Pop() {
	h.records = h.records[:len(h.records)-1]
}

// Len returns the number of positions recorded, i.e. the current ply count.
func (h *History) Len() int { return len(h.records) }

// Occurrences returns the number of times hash appears in the path since the
// most recent reset-flagged entry, inclusive of positions pushed after the
// reset. Used to detect repetition draws.
func (h *History) Occurrences(hash uint64) int {
	count := 0
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].hash == hash {
			count++
		}
		if h.records[i].isReset {
			break
		}
	}
	return count
}
