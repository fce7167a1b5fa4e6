package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/prasanthmj/webmail/pkg/config"
	"github.com/prasanthmj/webmail/pkg/mail"
	"github.com/prasanthmj/webmail/pkg/storage"
)

// MailLister lists the most recent messages in the inbox
type MailLister interface {
	ListRecent() ([]mail.EmailSummary, error)
}

// MailReader fetches one full message by sequence number
type MailReader interface {
	FetchMessage(seq uint32) (*mail.Email, error)
}

// MailSender transmits an outgoing message and returns its Message-Id
type MailSender interface {
	Send(opts mail.SendOptions) (string, error)
}

// SessionAuth checks credentials and session tokens
type SessionAuth interface {
	Login(user, password string) (string, error)
	Verify(token string) (string, error)
}

const sessionCookie = "webmail_session"

// Handler wires the webmail HTTP API
type Handler struct {
	cfg       *config.Config
	lister    MailLister
	reader    MailReader
	sender    MailSender
	auth      SessionAuth
	snapshots *storage.SnapshotStore
	log       *logrus.Logger
}

// New creates a new handler instance
func New(cfg *config.Config, lister MailLister, reader MailReader, sender MailSender, auth SessionAuth, snapshots *storage.SnapshotStore, log *logrus.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		lister:    lister,
		reader:    reader,
		sender:    sender,
		auth:      auth,
		snapshots: snapshots,
		log:       log,
	}
}

// Routes builds the full middleware-wrapped handler
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.Handle("GET /api/mail", h.requireSession(http.HandlerFunc(h.handleListMail)))
	mux.Handle("GET /api/mail/{id}", h.requireSession(http.HandlerFunc(h.handleGetMail)))
	mux.Handle("POST /api/send", h.requireSession(http.HandlerFunc(h.handleSend)))
	mux.HandleFunc("GET /healthz", h.handleHealth)

	return h.rateLimit(h.cors(securityHeaders(mux)))
}

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(req.User, req.Password)
	if err != nil {
		h.log.WithField("user", req.User).Warn("login rejected")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListMail serves the inbox listing. A successful fetch refreshes the
// snapshot; a failed fetch falls back to the snapshot and only surfaces an
// error when no usable snapshot exists.
func (h *Handler) handleListMail(w http.ResponseWriter, r *http.Request) {
	emails, err := h.lister.ListRecent()
	if err == nil {
		if serr := h.snapshots.Save(h.cfg.Mailbox, emails); serr != nil {
			h.log.WithError(serr).Warn("failed to save inbox snapshot")
		}
		writeJSON(w, http.StatusOK, emails)
		return
	}

	h.log.WithError(err).Error("inbox fetch failed")

	cached, cerr := h.snapshots.Load(h.cfg.Mailbox)
	if cerr == nil {
		w.Header().Set("X-Webmail-Source", "snapshot")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	writeError(w, fetchStatus(err), "failed to fetch mail")
}

func (h *Handler) handleGetMail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.reader.FetchMessage(uint32(id))
	if err != nil {
		h.log.WithError(err).WithField("seq", id).Error("message fetch failed")
		var mberr *mail.MailboxError
		if errors.As(err, &mberr) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, fetchStatus(err), "failed to fetch message")
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var opts mail.SendOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(opts.To) == 0 || opts.Subject == "" || opts.Body == "" {
		writeError(w, http.StatusBadRequest, "to, subject and body are required")
		return
	}

	id, err := h.sender.Send(opts)
	if err != nil {
		h.log.WithError(err).Error("send failed")
		writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// fetchStatus maps pipeline failures to HTTP statuses. Upstream mail
// server problems are gateway errors from the browser's point of view.
func fetchStatus(err error) int {
	var autherr *mail.AuthenticationError
	if errors.As(err, &autherr) {
		return http.StatusBadGateway
	}
	var connerr *mail.ConnectionError
	if errors.As(err, &connerr) {
		return http.StatusBadGateway
	}
	var mberr *mail.MailboxError
	if errors.As(err, &mberr) {
		return http.StatusBadGateway
	}
	var fetcherr *mail.FetchError
	if errors.As(err, &fetcherr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
