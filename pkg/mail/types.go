package mail

import "time"

// EmailSummary is one entry in the inbox listing returned to the browser
type EmailSummary struct {
	ID      uint32    `yaml:"id" json:"id"`
	From    string    `yaml:"from" json:"from"`
	Subject string    `yaml:"subject" json:"subject"`
	Date    time.Time `yaml:"date" json:"date"`
	Body    string    `yaml:"body" json:"body"`
}

// Email represents a fully parsed message for the single-message view
type Email struct {
	ID       uint32    `json:"id"`
	From     string    `json:"from"`
	To       []string  `json:"to"`
	Subject  string    `json:"subject"`
	Date     time.Time `json:"date"`
	Body     string    `json:"body"`
	HTMLBody string    `json:"html_body,omitempty"`
}

// SendOptions represents outgoing email parameters
type SendOptions struct {
	To      []string `json:"to"`
	CC      []string `json:"cc"`
	BCC     []string `json:"bcc"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// rawMessage is a fully reassembled but not yet parsed message: the raw
// header-fields block and the raw text body, keyed by sequence number.
type rawMessage struct {
	Seq    uint32
	Header []byte
	Body   []byte
}
