package mail

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"
)

// FetchMessage retrieves one message by sequence number from the
// configured mailbox and parses it fully, for the single-message view.
// The plain text part is preferred; an HTML-only message is converted to
// text and the original HTML kept alongside.
func (c *Client) FetchMessage(seq uint32) (*Email, error) {
	s, err := dialAndSelect(c.cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if seq == 0 || seq > s.Total() {
		return nil, &MailboxError{Mailbox: c.cfg.Mailbox, Err: fmt.Errorf("no message %d", seq)}
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seq)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqSet, items, messages)
	}()

	msg := <-messages
	for range messages {
	}
	if err := <-done; err != nil {
		return nil, &FetchError{Err: err}
	}
	if msg == nil || msg.Envelope == nil {
		return nil, &FetchError{Err: fmt.Errorf("message %d not returned", seq)}
	}

	result := &Email{
		ID:      seq,
		From:    formatAddress(msg.Envelope.From),
		To:      formatAddresses(msg.Envelope.To),
		Subject: msg.Envelope.Subject,
		Date:    msg.Envelope.Date,
	}

	if r := msg.GetBody(section); r != nil {
		body, htmlBody := readBodyParts(r)
		result.Body = body
		result.HTMLBody = htmlBody
		if result.Body == "" && result.HTMLBody != "" {
			result.Body = htmlToText(result.HTMLBody)
		}
	}

	return result, nil
}

// readBodyParts walks the MIME structure and picks out the text and HTML
// alternatives. Attachments are skipped; this view is text only.
func readBodyParts(r io.Reader) (body, htmlBody string) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", ""
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		b, _ := io.ReadAll(p.Body)
		ct, _, _ := h.ContentType()
		if strings.Contains(ct, "text/html") {
			htmlBody = string(b)
		} else if strings.Contains(ct, "text/plain") {
			body = string(b)
		}
	}
	return body, htmlBody
}

func formatAddress(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}

func formatAddresses(addrs []*imap.Address) []string {
	var result []string
	for _, addr := range addrs {
		if addr.PersonalName != "" {
			result = append(result, fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName))
		} else {
			result = append(result, fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName))
		}
	}
	return result
}
