// Package http implements a BitTorrent frontend via the HTTP protocol as
// described in BEP 3 and BEP 23.
package http

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/swarmd/swarmd/frontend"
	"github.com/swarmd/swarmd/pkg/log"
	"github.com/swarmd/swarmd/pkg/stop"
)

// Config represents all of the configurable options for an HTTP BitTorrent
// Frontend.
type Config struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	EnableKeepAlive bool          `yaml:"enable_keepalive"`
	ParseOptions    `yaml:",inline"`
}

// LogFields renders the current config as a set of Logrus fields.
func (cfg Config) LogFields() log.Fields {
	return log.Fields{
		"addr":            cfg.Addr,
		"readTimeout":     cfg.ReadTimeout,
		"writeTimeout":    cfg.WriteTimeout,
		"enableKeepAlive": cfg.EnableKeepAlive,
		"allowIPSpoofing": cfg.AllowIPSpoofing,
		"realIPHeader":    cfg.RealIPHeader,
		"maxNumWant":      cfg.MaxNumWant,
		"defaultNumWant":  cfg.DefaultNumWant,
	}
}

// Validate sanity checks values set in a config and returns a new config
// with default values replacing anything that is invalid.
//
// This function warns to the logger when a value is changed.
func (cfg Config) Validate() Config {
	validcfg := cfg

	if cfg.MaxNumWant == 0 {
		validcfg.MaxNumWant = defaultMaxNumWant
		log.Warn("falling back to default configuration", log.Fields{
			"name":     "http.MaxNumWant",
			"provided": cfg.MaxNumWant,
			"default":  validcfg.MaxNumWant,
		})
	}

	if cfg.DefaultNumWant == 0 {
		validcfg.DefaultNumWant = defaultDefaultNumWant
		log.Warn("falling back to default configuration", log.Fields{
			"name":     "http.DefaultNumWant",
			"provided": cfg.DefaultNumWant,
			"default":  validcfg.DefaultNumWant,
		})
	}

	return validcfg
}

// Frontend holds the state of an HTTP BitTorrent Frontend.
type Frontend struct {
	srv *http.Server

	logic frontend.TrackerLogic
	Config
}

// NewFrontend creates a new instance of an HTTP Frontend that asynchronously
// serves requests.
func NewFrontend(logic frontend.TrackerLogic, cfg Config) (*Frontend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("http: missing listen address")
	}

	f := &Frontend{
		logic:  logic,
		Config: cfg.Validate(),
	}

	f.srv = &http.Server{
		Addr:         f.Addr,
		Handler:      f.handler(),
		ReadTimeout:  f.ReadTimeout,
		WriteTimeout: f.WriteTimeout,
	}
	f.srv.SetKeepAlivesEnabled(f.EnableKeepAlive)

	go func() {
		if err := f.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http: server failed", log.Err(err))
		}
	}()

	return f, nil
}

// Stop provides a thread-safe way to shutdown a currently running Frontend.
func (f *Frontend) Stop() stop.Result {
	c := make(stop.Channel)
	go func() {
		c.Done(f.srv.Shutdown(context.Background()))
	}()

	return c.Result()
}

func (f *Frontend) handler() http.Handler {
	router := httprouter.New()
	router.GET("/announce", f.announceRoute)
	return router
}

// announceRoute parses and responds to an Announce.
func (f *Frontend) announceRoute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var err error
	var start time.Time
	var addr netip.Addr
	start = time.Now()
	defer func() { recordResponseDuration("announce", addr, err, time.Since(start)) }()

	req, err := ParseAnnounce(r, f.ParseOptions)
	if err != nil {
		_ = WriteError(w, err)
		return
	}
	addr = req.Peer.AddrPort.Addr()

	resp, err := f.logic.HandleAnnounce(r.Context(), req)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	err = WriteAnnounceResponse(w, resp)
	if err != nil {
		_ = WriteError(w, err)
		return
	}

	go f.logic.AfterAnnounce(context.Background(), req, resp)
}
