package mail

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prasanthmj/webmail/pkg/config"
)

// Client retrieves recent mail over IMAP. Every call opens a fresh
// connection and closes it before returning; no connection state is shared
// between calls.
type Client struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewClient creates a new IMAP client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
	}
}

// ListRecent returns summaries of the most recent messages in the
// configured mailbox, newest first. An empty mailbox yields an empty list
// without issuing a fetch. Any protocol failure aborts the whole call; no
// partial listing is ever returned.
func (c *Client) ListRecent() ([]EmailSummary, error) {
	s, err := dialAndSelect(c.cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	rng, ok := recentRange(s.Total(), Window)
	if !ok {
		return []EmailSummary{}, nil
	}

	c.log.WithFields(logrus.Fields{
		"mailbox": c.cfg.Mailbox,
		"total":   s.Total(),
		"start":   rng.Start,
		"end":     rng.End,
	}).Debug("fetching recent messages")

	raw, err := collectRange(s.fetchEvents(rng), rng)
	if err != nil {
		return nil, err
	}

	return normalize(raw), nil
}

// collectRange drains the event stream for one fetch, routing chunks to
// per-message assemblers and counting down until every message in the range
// has finalized. Any stream error, protocol violation, or premature end of
// stream discards the whole batch.
func collectRange(events <-chan fetchEvent, rng SequenceRange) ([]rawMessage, error) {
	pending := make(map[uint32]*assembler, rng.Size())
	for seq := rng.Start; seq <= rng.End; seq++ {
		pending[seq] = newAssembler(seq)
	}

	remaining := rng.Size()
	var failure error
	for ev := range events {
		if failure != nil {
			// Aborted: keep draining so the producer is never blocked.
			continue
		}
		if ev.err != nil {
			failure = ev.err
			continue
		}

		a, ok := pending[ev.seq]
		if !ok {
			// Untagged data for a message outside the requested range.
			continue
		}

		if ev.done {
			if err := a.finish(ev.sec); err != nil {
				failure = err
			} else if a.finalized() {
				remaining--
			}
			continue
		}

		if err := a.write(ev.sec, ev.data); err != nil {
			failure = err
		}
	}

	if failure != nil {
		return nil, &FetchError{Err: failure}
	}
	if remaining != 0 {
		return nil, &FetchError{Err: fmt.Errorf("stream ended with %d of %d messages incomplete", remaining, rng.Size())}
	}

	out := make([]rawMessage, 0, rng.Size())
	for seq := rng.Start; seq <= rng.End; seq++ {
		rec, err := pending[seq].record()
		if err != nil {
			return nil, &FetchError{Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}
