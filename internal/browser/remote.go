package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"

	"github.com/IshaanNene/cafepulse/internal/config"
)

var errMalformedSession = errors.New("control plane returned no connect URL")

// remoteSession is the control-plane record of a hosted browser.
type remoteSession struct {
	ID      string `json:"id"`
	Connect string `json:"connect"`
	Stop    string `json:"stop"`
}

// RemoteBackend connects to a hosted browser over the DevTools protocol,
// optionally creating the browser through the host's control plane first.
type RemoteBackend struct {
	cfg    config.RemoteConfig
	client *resty.Client
	logger *slog.Logger
}

// NewRemoteBackend creates a backend for the configured remote endpoint.
func NewRemoteBackend(cfg config.RemoteConfig, logger *slog.Logger) *RemoteBackend {
	client := resty.New().
		SetBaseURL(scheme(cfg.Insecure, "http")+"://"+cfg.Domain).
		SetTimeout(cfg.ConnectTimeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetQueryParam("token", cfg.Token)
	}

	return &RemoteBackend{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "remote_browser"),
	}
}

func (r *RemoteBackend) Mode() Mode { return ModeRemote }

// Open connects to the remote browser. Nothing stays open on error.
func (r *RemoteBackend) Open(ctx context.Context) (Browser, error) {
	wsURL := r.directURL()

	var session *remoteSession
	if r.cfg.CreateSession {
		s, err := r.createSession(ctx)
		if err != nil {
			return nil, err
		}
		session = s
		wsURL = s.Connect
		r.logger.Debug("remote session created", "id", s.ID)
	}

	r.logger.Info("connecting to remote browser", "url", redactToken(wsURL))

	b, closeConn, err := connectCDP(ctx, wsURL, r.cfg.ConnectTimeout)
	if err != nil {
		if session != nil {
			if serr := r.stopSession(session); serr != nil {
				r.logger.Debug("stop remote session failed", "id", session.ID, "error", serr)
			}
		}
		return nil, fmt.Errorf("connect %s: %w", redactToken(wsURL), err)
	}

	rb := &rodBrowser{browser: b}
	if session != nil {
		rb.cleanup = append(rb.cleanup, func() error { return r.stopSession(session) })
	}
	rb.cleanup = append(rb.cleanup, closeConn)
	return rb, nil
}

func (r *RemoteBackend) createSession(ctx context.Context) (*remoteSession, error) {
	var s remoteSession
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"ttl": r.cfg.SessionTTL.Milliseconds()}).
		SetResult(&s).
		Post("/session")
	if err != nil {
		return nil, fmt.Errorf("create remote session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create remote session: status %d", resp.StatusCode())
	}
	if s.Connect == "" {
		return nil, fmt.Errorf("create remote session: %w", errMalformedSession)
	}
	return &s, nil
}

func (r *RemoteBackend) stopSession(s *remoteSession) error {
	if s.Stop == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := r.client.R().SetContext(ctx).Delete(s.Stop)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("stop remote session %s: status %d", s.ID, resp.StatusCode())
	}
	return nil
}

func (r *RemoteBackend) directURL() string {
	u := url.URL{
		Scheme: scheme(r.cfg.Insecure, "ws"),
		Host:   r.cfg.Domain,
		Path:   r.cfg.WSPath,
	}
	if r.cfg.Token != "" {
		u.RawQuery = url.Values{"token": {r.cfg.Token}}.Encode()
	}
	return u.String()
}

// connectCDP dials wsURL and completes the DevTools handshake within
// timeout. The returned func closes the connection.
func connectCDP(ctx context.Context, wsURL string, timeout time.Duration) (*rod.Browser, func() error, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ws := &cdp.WebSocket{}
	if err := ws.Connect(dialCtx, wsURL, nil); err != nil {
		return nil, nil, err
	}

	connCtx, stop := context.WithCancel(context.Background())
	b := rod.New().Context(connCtx).Client(cdp.New().Start(ws))

	// Abort a handshake that hangs after the socket opened.
	timer := time.AfterFunc(timeout, stop)
	err := b.Connect()
	fired := !timer.Stop()
	if err != nil || fired {
		stop()
		_ = ws.Close()
		if err == nil {
			err = fmt.Errorf("handshake exceeded %s", timeout)
		}
		return nil, nil, err
	}

	return b, func() error {
		stop()
		return ws.Close()
	}, nil
}

// scheme picks the secure or plain variant of base ("http" or "ws").
func scheme(insecure bool, base string) string {
	if insecure {
		return base
	}
	return base + "s"
}

func redactToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
