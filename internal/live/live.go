// Package live streams suite progress to WebSocket clients while a run is
// in flight and serves the latest report over HTTP.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/irtazafoods/homecheck/internal/report"
	"github.com/irtazafoods/homecheck/internal/scenario"
	"github.com/irtazafoods/homecheck/internal/suite"
	"github.com/irtazafoods/homecheck/internal/web"
)

const (
	pingInterval = 10 * time.Second
	subBuffer    = 64
	maxHistory   = 512
)

// reportMessage is pushed to subscribers when a run completes.
type reportMessage struct {
	Kind   string        `json:"kind"`
	Report *suite.Report `json:"report"`
}

type subscriber struct {
	ch chan []byte
}

type Server struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	history [][]byte
	latest  *suite.Report
	encoded []byte

	srv       *http.Server
	closing   chan struct{}
	closeOnce sync.Once
}

var _ suite.Observer = (*Server)(nil)

func New() *Server {
	return &Server{
		subs:    make(map[*subscriber]struct{}),
		closing: make(chan struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/report", web.GetOnly(s.handleReport))
	mux.HandleFunc("/report.html", web.GetOnly(s.handleReportHTML))
	mux.HandleFunc("/health", web.GetOnly(s.handleHealth))
	return web.Logging(mux)
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr has port 0.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("live server listen %s: %w", addr, err)
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("live server", "err", err)
		}
	}()
	slog.Info("live server listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// Shutdown disconnects stream clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) Event(ev scenario.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("live event encode", "err", err)
		return
	}
	// History and fan-out change together so a subscriber sees each event
	// exactly once, in its replay or on its channel.
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Kind == scenario.EventStart && ev.Index == 1 {
		s.history = nil
	}
	if len(s.history) < maxHistory {
		s.history = append(s.history, data)
	}
	s.broadcastLocked(data)
}

func (s *Server) Done(rep *suite.Report) {
	data, err := json.Marshal(reportMessage{Kind: "report", Report: rep})
	if err != nil {
		slog.Error("live report encode", "err", err)
		return
	}
	encoded, err := json.Marshal(rep)
	if err != nil {
		slog.Error("live report encode", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = rep
	s.encoded = encoded
	s.broadcastLocked(data)
}

// broadcastLocked fans data out to subscribers. s.mu must be held.
func (s *Server) broadcastLocked(data []byte) {
	for sub := range s.subs {
		select {
		case sub.ch <- data:
		default:
			slog.Warn("live subscriber too slow, dropping event")
		}
	}
}

// subscribe registers a subscriber and returns the events of the current
// run so far.
func (s *Server) subscribe() (*subscriber, [][]byte) {
	sub := &subscriber{ch: make(chan []byte, subBuffer)}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
	replay := make([][]byte, len(s.history))
	copy(replay, s.history)
	return sub, replay
}

func (s *Server) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *Server) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the upgrade so no event emitted after the handshake
	// is missed.
	sub, replay := s.subscribe()
	defer s.unsubscribe(sub)

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	var once sync.Once
	done := make(chan struct{})

	go func() {
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				once.Do(func() { close(done) })
				return
			}
		}
	}()

	for _, msg := range replay {
		if err := wsutil.WriteServerText(conn, msg); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-sub.ch:
			if err := wsutil.WriteServerText(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := wsutil.WriteServerMessage(conn, ws.OpPing, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-s.closing:
			_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusGoingAway, "shutting down"))
			return
		}
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := s.encoded
	s.mu.Unlock()
	if data == nil {
		web.Error(w, http.StatusNotFound, "no_report", errors.New("no run has finished yet"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rep := s.latest
	s.mu.Unlock()
	if rep == nil {
		http.Error(w, "no run has finished yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, rep); err != nil {
		slog.Error("render live report", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.subscribers(),
	})
}
