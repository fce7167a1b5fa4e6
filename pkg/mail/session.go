package mail

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/prasanthmj/webmail/pkg/config"
)

// fetchChunkSize is how much of a body section literal is read per event
const fetchChunkSize = 4096

// session owns one live IMAP connection with the target mailbox selected
// read-only. It exists for the duration of a single fetch call and must be
// closed on every exit path; Close is safe to call more than once but the
// logout runs exactly once.
type session struct {
	client *client.Client
	total  uint32
	once   sync.Once
}

// dialAndSelect establishes a TLS connection, authenticates and opens the
// configured mailbox for read access. On any failure no usable session is
// returned and the connection is already torn down.
func dialAndSelect(cfg *config.Config) (*session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.IMAPServer, cfg.IMAPPort)

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	c, err := client.DialWithDialerTLS(dialer, addr, &tls.Config{ServerName: cfg.IMAPServer})
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	// Per-command timeout; a stuck exchange surfaces as an error instead
	// of hanging the call.
	c.Timeout = cfg.Timeout

	return loginAndSelect(c, cfg)
}

// loginAndSelect authenticates an established connection and opens the
// configured mailbox read-only. On failure the connection is torn down and
// the error is typed for the caller.
func loginAndSelect(c *client.Client, cfg *config.Config) (*session, error) {
	if err := c.Login(cfg.EmailAddress, cfg.EmailPassword); err != nil {
		c.Logout()
		return nil, &AuthenticationError{Err: err}
	}

	mbox, err := c.Select(cfg.Mailbox, true)
	if err != nil {
		c.Logout()
		return nil, &MailboxError{Mailbox: cfg.Mailbox, Err: err}
	}

	return &session{
		client: c,
		total:  mbox.Messages,
	}, nil
}

// Total returns the message count reported when the mailbox was selected
func (s *session) Total() uint32 {
	return s.total
}

// Close releases the connection. Logout also closes the underlying socket.
func (s *session) Close() {
	s.once.Do(func() {
		s.client.Logout()
	})
}

// headerFields are the only header lines the listing needs
var headerFields = []string{"From", "Subject", "Date"}

func headerSection() *imap.BodySectionName {
	return &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    headerFields,
		},
		Peek: true,
	}
}

func textSection() *imap.BodySectionName {
	return &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.TextSpecifier},
		Peek:         true,
	}
}

// fetchEvents issues the fetch for the given range and converts the wire
// responses into the pipeline's event stream. Messages arrive in whatever
// order the server schedules them; each message contributes chunk events on
// its two channels followed by a done event per channel. A protocol error
// is emitted as the final event before the stream closes.
func (s *session) fetchEvents(rng SequenceRange) <-chan fetchEvent {
	events := make(chan fetchEvent)

	go func() {
		defer close(events)

		seqSet := new(imap.SeqSet)
		seqSet.AddRange(rng.Start, rng.End)

		header := headerSection()
		text := textSection()
		items := []imap.FetchItem{header.FetchItem(), text.FetchItem()}

		messages := make(chan *imap.Message, Window)
		done := make(chan error, 1)
		go func() {
			done <- s.client.Fetch(seqSet, items, messages)
		}()

		for msg := range messages {
			streamSection(events, msg.SeqNum, sectionHeader, msg.GetBody(header))
			streamSection(events, msg.SeqNum, sectionBody, msg.GetBody(text))
		}

		if err := <-done; err != nil {
			events <- fetchEvent{err: err}
		}
	}()

	return events
}

// streamSection reads one body section literal in fixed-size chunks and
// always terminates the channel with a done event. A nil literal means the
// server had nothing for this section; the channel still closes cleanly so
// the message can finalize with empty content.
func streamSection(events chan<- fetchEvent, seq uint32, sec section, r io.Reader) {
	if r != nil {
		buf := make([]byte, fetchChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				events <- fetchEvent{seq: seq, sec: sec, data: chunk}
			}
			if err != nil {
				break
			}
		}
	}
	events <- fetchEvent{seq: seq, sec: sec, done: true}
}
