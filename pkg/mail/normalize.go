package mail

import (
	"bufio"
	"bytes"
	"mime"
	"net/mail"
	"net/textproto"
	"sort"
	"time"
)

// normalize parses the raw header block of each assembled message and
// orders the result by date, newest first. The sort is stable, so records
// sharing a date (including all records with unparseable dates, which sort
// as the zero time and therefore oldest) keep their sequence order.
func normalize(raw []rawMessage) []EmailSummary {
	out := make([]EmailSummary, 0, len(raw))
	for _, m := range raw {
		out = append(out, summarize(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// summarize shapes one raw message into the listing contract. Missing
// header fields become empty strings, never omitted keys or errors.
func summarize(m rawMessage) EmailSummary {
	fields := parseHeaderFields(m.Header)
	return EmailSummary{
		ID:      m.Seq,
		From:    decodeHeaderValue(firstValue(fields, "From")),
		Subject: decodeHeaderValue(firstValue(fields, "Subject")),
		Date:    parseDate(firstValue(fields, "Date")),
		Body:    string(m.Body),
	}
}

// parseHeaderFields parses a raw header-fields block. The block may be
// empty or truncated (no terminating blank line); whatever fields were
// parsed before EOF are kept.
func parseHeaderFields(block []byte) textproto.MIMEHeader {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(block)))
	fields, err := r.ReadMIMEHeader()
	if err != nil && fields == nil {
		return textproto.MIMEHeader{}
	}
	return fields
}

// firstValue returns the first occurrence of a header field, or the empty
// string when the field is absent. Servers occasionally emit duplicates;
// the first one wins.
func firstValue(fields textproto.MIMEHeader, key string) string {
	values := fields.Values(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// decodeHeaderValue decodes RFC 2047 encoded words, falling back to the
// raw value when decoding fails
func decodeHeaderValue(v string) string {
	if v == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// parseDate parses an RFC 5322 date. Unparseable dates map to the zero
// time so they deterministically sort as the oldest entries.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := mail.ParseDate(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
