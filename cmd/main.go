package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/prasanthmj/webmail/pkg/auth"
	"github.com/prasanthmj/webmail/pkg/config"
	"github.com/prasanthmj/webmail/pkg/handler"
	"github.com/prasanthmj/webmail/pkg/mail"
	"github.com/prasanthmj/webmail/pkg/storage"
)

func main() {
	var (
		fetchRecent = flag.Bool("fetch", false, "Fetch the recent inbox listing and print it as JSON")
		readSeq     = flag.Uint("read", 0, "Fetch one full message by sequence number")
		sendTest    = flag.Bool("send-test", false, "Send a test email to yourself")
	)
	flag.Parse()

	// Optional .env for local development
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	// Terminal mode operations
	if *fetchRecent || *readSeq > 0 || *sendTest {
		if err := runTerminalMode(cfg, log, *fetchRecent, uint32(*readSeq), *sendTest); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// HTTP server mode (default)
	if err := runServer(cfg, log); err != nil {
		log.Fatal(err)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// runTerminalMode exercises the mail pipeline from the command line
func runTerminalMode(cfg *config.Config, log *logrus.Logger, fetchRecent bool, readSeq uint32, sendTest bool) error {
	client := mail.NewClient(cfg, log)

	if fetchRecent {
		emails, err := client.ListRecent()
		if err != nil {
			return err
		}
		data, _ := json.MarshalIndent(emails, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if readSeq > 0 {
		msg, err := client.FetchMessage(readSeq)
		if err != nil {
			return err
		}
		data, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if sendTest {
		transmitter := mail.NewTransmitter(cfg, log)
		id, err := transmitter.Send(mail.SendOptions{
			To:      []string{cfg.EmailAddress},
			Subject: fmt.Sprintf("Test Email - %s", time.Now().Format("2006-01-02 15:04:05")),
			Body:    "This is a test email sent from the webmail relay terminal mode.",
		})
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s\n", id)
		return nil
	}

	return nil
}

// runServer runs the webmail HTTP API until interrupted
func runServer(cfg *config.Config, log *logrus.Logger) error {
	client := mail.NewClient(cfg, log)
	transmitter := mail.NewTransmitter(cfg, log)
	authenticator := auth.NewAuthenticator(cfg)
	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotDir, cfg.SnapshotTTL)
	if err != nil {
		return err
	}

	h := handler.New(cfg, client, client, transmitter, authenticator, snapshots, log)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      h.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Timeout + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("webmail relay listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("webmail relay stopped")
	return nil
}
