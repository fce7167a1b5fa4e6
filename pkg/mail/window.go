package mail

// Window is the number of most recent messages retrieved per fetch.
// Fixed by product requirements, not configurable through the API.
const Window = 10

// SequenceRange is a closed interval of 1-based message sequence numbers
type SequenceRange struct {
	Start uint32
	End   uint32
}

// Size returns the number of sequence numbers in the range
func (r SequenceRange) Size() int {
	return int(r.End - r.Start + 1)
}

// recentRange selects the window most recent messages of a mailbox holding
// total messages. The second return value is false when the mailbox is
// empty and no fetch should be issued at all.
func recentRange(total, window uint32) (SequenceRange, bool) {
	if total == 0 {
		return SequenceRange{}, false
	}
	start := uint32(1)
	if total > window {
		start = total - window + 1
	}
	return SequenceRange{Start: start, End: total}, true
}
