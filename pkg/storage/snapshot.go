package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prasanthmj/webmail/pkg/mail"
)

// InboxSnapshot is the last successful inbox listing, persisted so the web
// transport can fall back to it when a live fetch fails
type InboxSnapshot struct {
	Version int                 `yaml:"snapshot_version"`
	Mailbox string              `yaml:"mailbox"`
	SavedAt time.Time           `yaml:"saved_at"`
	Emails  []mail.EmailSummary `yaml:"emails"`
}

// SnapshotStore persists inbox snapshots as YAML files, one per mailbox
type SnapshotStore struct {
	rootDir string
	maxAge  time.Duration
}

// NewSnapshotStore creates a new snapshot store rooted at rootDir,
// creating the directory if it does not exist yet
func NewSnapshotStore(rootDir string, maxAge time.Duration) (*SnapshotStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", rootDir, err)
	}
	return &SnapshotStore{
		rootDir: rootDir,
		maxAge:  maxAge,
	}, nil
}

func (s *SnapshotStore) path(mailbox string) string {
	return filepath.Join(s.rootDir, fmt.Sprintf("inbox-%s.yaml", sanitizeMailbox(mailbox)))
}

// Save writes the listing for a mailbox, replacing any previous snapshot
func (s *SnapshotStore) Save(mailbox string, emails []mail.EmailSummary) error {
	snapshot := InboxSnapshot{
		Version: 1,
		Mailbox: mailbox,
		SavedAt: time.Now(),
		Emails:  emails,
	}

	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.path(mailbox), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Load returns the stored listing for a mailbox. Snapshots older than the
// configured max age are treated as missing.
func (s *SnapshotStore) Load(mailbox string) ([]mail.EmailSummary, error) {
	data, err := os.ReadFile(s.path(mailbox))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot for mailbox %s", mailbox)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot InboxSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if s.maxAge > 0 && time.Since(snapshot.SavedAt) > s.maxAge {
		return nil, fmt.Errorf("snapshot for mailbox %s expired", mailbox)
	}

	return snapshot.Emails, nil
}

// Clear removes the snapshot for a mailbox if one exists
func (s *SnapshotStore) Clear(mailbox string) error {
	err := os.Remove(s.path(mailbox))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// sanitizeMailbox makes a mailbox name safe for use in a filename
func sanitizeMailbox(mailbox string) string {
	out := make([]rune, 0, len(mailbox))
	for _, r := range mailbox {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
