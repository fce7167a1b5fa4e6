package mail

import (
	"bytes"
	"fmt"
)

// section identifies which of the two per-message data channels a chunk
// belongs to. Header fields and body text stream independently and may
// interleave in any order; chunks within one channel are ordered.
type section int

const (
	sectionHeader section = iota
	sectionBody
)

func (s section) String() string {
	if s == sectionHeader {
		return "header"
	}
	return "body"
}

// fetchEvent is one unit of protocol input to the fetch pipeline: a data
// chunk on one channel of one message, the end of a channel (done), or a
// stream-level failure (err set, everything else ignored).
type fetchEvent struct {
	seq  uint32
	sec  section
	data []byte
	done bool
	err  error
}

type assemblerState int

const (
	statePending assemblerState = iota
	stateAccumulating
	stateHeaderComplete
	stateBodyComplete
	stateFinalized
)

// assembler reconstructs one in-flight message from streamed chunks.
// It is a strict state machine: Pending -> Accumulating ->
// HeaderComplete/BodyComplete -> Finalized, with no mutation allowed
// after Finalized.
type assembler struct {
	seq    uint32
	state  assemblerState
	header bytes.Buffer
	body   bytes.Buffer
}

func newAssembler(seq uint32) *assembler {
	return &assembler{seq: seq}
}

// write appends a chunk to the given channel, preserving arrival order
// within that channel
func (a *assembler) write(sec section, chunk []byte) error {
	switch a.state {
	case stateFinalized:
		return fmt.Errorf("message %d: %s chunk after finalize", a.seq, sec)
	case stateHeaderComplete:
		if sec == sectionHeader {
			return fmt.Errorf("message %d: header chunk after header end", a.seq)
		}
	case stateBodyComplete:
		if sec == sectionBody {
			return fmt.Errorf("message %d: body chunk after body end", a.seq)
		}
	case statePending:
		a.state = stateAccumulating
	}
	if sec == sectionHeader {
		a.header.Write(chunk)
	} else {
		a.body.Write(chunk)
	}
	return nil
}

// finish marks one channel as fully streamed. When both channels have
// finished the assembler transitions to Finalized. An empty channel (no
// chunks before finish) is valid; the server reports no matching header
// that way.
func (a *assembler) finish(sec section) error {
	switch a.state {
	case statePending, stateAccumulating:
		if sec == sectionHeader {
			a.state = stateHeaderComplete
		} else {
			a.state = stateBodyComplete
		}
	case stateHeaderComplete:
		if sec == sectionHeader {
			return fmt.Errorf("message %d: header stream ended twice", a.seq)
		}
		a.state = stateFinalized
	case stateBodyComplete:
		if sec == sectionBody {
			return fmt.Errorf("message %d: body stream ended twice", a.seq)
		}
		a.state = stateFinalized
	case stateFinalized:
		return fmt.Errorf("message %d: %s stream ended after finalize", a.seq, sec)
	}
	return nil
}

func (a *assembler) finalized() bool {
	return a.state == stateFinalized
}

// record returns the reassembled message. Only valid once finalized.
func (a *assembler) record() (rawMessage, error) {
	if a.state != stateFinalized {
		return rawMessage{}, fmt.Errorf("message %d: not finalized", a.seq)
	}
	return rawMessage{
		Seq:    a.seq,
		Header: a.header.Bytes(),
		Body:   a.body.Bytes(),
	}, nil
}
