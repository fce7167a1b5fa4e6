package mail

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-imap/client"

	"github.com/prasanthmj/webmail/pkg/config"
)

// fakeIMAPServer speaks just enough IMAP4rev1 over a local socket to drive
// the login and select phases of a session.
type fakeIMAPServer struct {
	ln            net.Listener
	rejectLogin   bool
	rejectMailbox bool

	mu      sync.Mutex
	logouts int
}

func startFakeIMAPServer(t *testing.T, rejectLogin, rejectMailbox bool) *fakeIMAPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &fakeIMAPServer{ln: ln, rejectLogin: rejectLogin, rejectMailbox: rejectMailbox}
	go srv.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return srv
}

func (s *fakeIMAPServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeIMAPServer) logoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

func (s *fakeIMAPServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *fakeIMAPServer) serve(conn net.Conn) {
	defer conn.Close()
	fmt.Fprintf(conn, "* OK server ready\r\n")

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		tag, verb := fields[0], strings.ToUpper(fields[1])

		switch verb {
		case "CAPABILITY":
			fmt.Fprintf(conn, "* CAPABILITY IMAP4rev1\r\n%s OK CAPABILITY completed\r\n", tag)
		case "LOGIN":
			if s.rejectLogin {
				fmt.Fprintf(conn, "%s NO invalid credentials\r\n", tag)
				continue
			}
			fmt.Fprintf(conn, "%s OK LOGIN completed\r\n", tag)
		case "SELECT", "EXAMINE":
			if s.rejectMailbox {
				fmt.Fprintf(conn, "%s NO no such mailbox\r\n", tag)
				continue
			}
			fmt.Fprintf(conn, "* 3 EXISTS\r\n* 0 RECENT\r\n* FLAGS (\\Seen)\r\n%s OK [READ-ONLY] mailbox opened\r\n", tag)
		case "LOGOUT":
			s.mu.Lock()
			s.logouts++
			s.mu.Unlock()
			fmt.Fprintf(conn, "* BYE logging out\r\n%s OK LOGOUT completed\r\n", tag)
			return
		default:
			fmt.Fprintf(conn, "%s BAD unsupported command\r\n", tag)
		}
	}
}

func sessionTestConfig() *config.Config {
	return &config.Config{
		EmailAddress:   "alex@example.com",
		EmailPassword:  "secret",
		Mailbox:        "INBOX",
		ConnectTimeout: 2 * time.Second,
		Timeout:        5 * time.Second,
	}
}

func dialFake(t *testing.T, srv *fakeIMAPServer) *client.Client {
	t.Helper()
	c, err := client.Dial(srv.addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	c.Timeout = 5 * time.Second
	return c
}

func TestDialConnectionRefused(t *testing.T) {
	// Grab a free port, then close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := sessionTestConfig()
	cfg.IMAPServer = "127.0.0.1"
	cfg.IMAPPort = port

	_, err = dialAndSelect(cfg)
	if err == nil {
		t.Fatal("expected error dialing a closed port")
	}
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v (%T), want ConnectionError", err, err)
	}
}

func TestLoginRejectedIsAuthenticationError(t *testing.T) {
	srv := startFakeIMAPServer(t, true, false)

	_, err := loginAndSelect(dialFake(t, srv), sessionTestConfig())
	if err == nil {
		t.Fatal("expected error for rejected login")
	}
	var autherr *AuthenticationError
	if !errors.As(err, &autherr) {
		t.Fatalf("err = %v (%T), want AuthenticationError", err, err)
	}
}

func TestSelectRejectedIsMailboxError(t *testing.T) {
	srv := startFakeIMAPServer(t, false, true)

	_, err := loginAndSelect(dialFake(t, srv), sessionTestConfig())
	if err == nil {
		t.Fatal("expected error for rejected mailbox")
	}
	var mberr *MailboxError
	if !errors.As(err, &mberr) {
		t.Fatalf("err = %v (%T), want MailboxError", err, err)
	}
	if mberr.Mailbox != "INBOX" {
		t.Errorf("mailbox = %q, want INBOX", mberr.Mailbox)
	}
}

func TestSessionTotalAndCloseOnce(t *testing.T) {
	srv := startFakeIMAPServer(t, false, false)

	s, err := loginAndSelect(dialFake(t, srv), sessionTestConfig())
	if err != nil {
		t.Fatalf("session setup failed: %v", err)
	}
	if s.Total() != 3 {
		t.Errorf("total = %d, want 3", s.Total())
	}

	s.Close()
	s.Close()
	if n := srv.logoutCount(); n != 1 {
		t.Errorf("server saw %d logouts, want exactly 1", n)
	}
}
