package syncer

import "time"

// DateRange is an inclusive [Start, End] date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Chunks splits [start, end] into consecutive windows spanning at most
// maxDays each, the widest window the upstream API accepts. Boundaries
// are contiguous and non-overlapping: each chunk starts exactly one day
// after the previous one ends, and the last chunk is clipped to end.
//
// A single-day window (start == end) yields exactly one chunk, as does a
// window spanning exactly maxDays.
func Chunks(start, end time.Time, maxDays int) []DateRange {
	var chunks []DateRange

	cur := start
	for !cur.After(end) {
		chunkEnd := cur.AddDate(0, 0, maxDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, DateRange{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)
	}

	return chunks
}
