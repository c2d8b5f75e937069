package round

// HistorySize is the number of round records a game keeps.
const HistorySize = 10

// Record is the immutable result of one locked-in round.
type Record struct {
	City       string  `json:"city"`
	DistanceKm float64 `json:"distanceKm"`
	Points     int     `json:"points"`
}

// History is a fixed-capacity ring of records. Pushing onto a full history
// evicts the oldest record.
type History struct {
	buf  [HistorySize]Record
	next int // slot the next push writes to
	n    int
}

func (h *History) Push(r Record) {
	h.buf[h.next] = r
	h.next = (h.next + 1) % HistorySize
	if h.n < HistorySize {
		h.n++
	}
}

func (h *History) Len() int { return h.n }

// Records returns a copy of the stored records, newest first.
func (h *History) Records() []Record {
	out := make([]Record, h.n)
	for i := range h.n {
		out[i] = h.buf[(h.next-1-i+HistorySize)%HistorySize]
	}
	return out
}

func (h *History) Reset() {
	*h = History{}
}
