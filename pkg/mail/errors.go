package mail

import "fmt"

// The fetch pipeline distinguishes four failure classes. All of them are
// fatal for the current call and are never retried here; the HTTP layer
// maps them to status codes and falls back to the last snapshot.

// ConnectionError indicates a transport failure before or during session setup
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError indicates the server rejected the account credentials
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return "authentication failed"
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// MailboxError indicates the target mailbox could not be selected
type MailboxError struct {
	Mailbox string
	Err     error
}

func (e *MailboxError) Error() string {
	return fmt.Sprintf("mailbox %s cannot be opened: %v", e.Mailbox, e.Err)
}

func (e *MailboxError) Unwrap() error { return e.Err }

// FetchError indicates a failure during the streamed fetch phase. The whole
// pending batch is discarded; no partial results survive it.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch aborted: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
