package middleware

import (
	"context"
	"time"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/frontend"
	"github.com/swarmd/swarmd/pkg/instance"
	"github.com/swarmd/swarmd/pkg/log"
	"github.com/swarmd/swarmd/pkg/stop"
	"github.com/swarmd/swarmd/storage"
)

// ResponseConfig holds the configuration used for the actual response.
type ResponseConfig struct {
	AnnounceInterval    time.Duration `yaml:"announce_interval"`
	MinAnnounceInterval time.Duration `yaml:"min_announce_interval"`
}

var _ frontend.TrackerLogic = &Logic{}

// NewLogic creates a new instance of a TrackerLogic that executes the
// provided middleware hooks.
func NewLogic(cfg ResponseConfig, store storage.SwarmStore, inst *instance.Instance, preHooks, postHooks []Hook) *Logic {
	s0, s1 := inst.DeriveSeed64("peer selection")
	return &Logic{
		announceInterval:    cfg.AnnounceInterval,
		minAnnounceInterval: cfg.MinAnnounceInterval,
		preHooks:            append(preHooks, &swarmHook{store: store, s0: s0, s1: s1}),
		postHooks:           postHooks,
	}
}

// Logic is an implementation of the TrackerLogic that functions by executing
// a series of middleware hooks.
type Logic struct {
	announceInterval    time.Duration
	minAnnounceInterval time.Duration
	preHooks            []Hook
	postHooks           []Hook
}

// HandleAnnounce generates a response for an Announce.
func (l *Logic) HandleAnnounce(ctx context.Context, req *bittorrent.AnnounceRequest) (resp *bittorrent.AnnounceResponse, err error) {
	resp = &bittorrent.AnnounceResponse{
		Interval:    l.announceInterval,
		MinInterval: l.minAnnounceInterval,
		Compact:     req.Compact,
	}
	for _, h := range l.preHooks {
		if ctx, err = h.HandleAnnounce(ctx, req, resp); err != nil {
			return nil, err
		}
	}

	log.Debug("generated announce response", resp)
	return resp, nil
}

// AfterAnnounce does something with the results of an Announce after it has
// been completed.
func (l *Logic) AfterAnnounce(ctx context.Context, req *bittorrent.AnnounceRequest, resp *bittorrent.AnnounceResponse) {
	var err error
	for _, h := range l.postHooks {
		if ctx, err = h.HandleAnnounce(ctx, req, resp); err != nil {
			log.Error("post-announce hooks failed", log.Err(err))
			return
		}
	}
}

// Stop stops the Logic.
//
// This stops any hooks that implement stop.Stopper.
func (l *Logic) Stop() stop.Result {
	stopGroup := stop.NewGroup()
	for _, hook := range l.preHooks {
		if stoppable, ok := hook.(stop.Stopper); ok {
			stopGroup.Add(stoppable)
		}
	}

	for _, hook := range l.postHooks {
		if stoppable, ok := hook.(stop.Stopper); ok {
			stopGroup.Add(stoppable)
		}
	}

	return stopGroup.Stop()
}
