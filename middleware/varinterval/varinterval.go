// Package varinterval provides a middleware hook that randomizes announce
// intervals to spread reannounce load over time.
package varinterval

import (
	"context"
	"errors"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v2"

	pkgerrors "github.com/pkg/errors"

	"github.com/swarmd/swarmd/bittorrent"
	"github.com/swarmd/swarmd/middleware"
	"github.com/swarmd/swarmd/middleware/pkg/random"
	"github.com/swarmd/swarmd/pkg/instance"
)

// Name is the name by which this middleware is registered.
const Name = "interval variation"

func init() {
	middleware.RegisterDriver(Name, driver{})
}

var _ middleware.Driver = driver{}

type driver struct{}

func (d driver) NewHook(optionBytes []byte, inst *instance.Instance) (middleware.Hook, error) {
	var cfg Config
	err := yaml.Unmarshal(optionBytes, &cfg)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid options for middleware %s", Name)
	}

	return NewHook(cfg, inst)
}

// ErrInvalidModifyResponseProbability is returned for a config with an
// invalid ModifyResponseProbability.
var ErrInvalidModifyResponseProbability = errors.New("invalid modify_response_probability")

// ErrInvalidMaxIncreaseDelta is returned for a config with an invalid
// MaxIncreaseDelta.
var ErrInvalidMaxIncreaseDelta = errors.New("invalid max_increase_delta")

// Config represents the configuration for the varinterval middleware.
type Config struct {
	// ModifyResponseProbability is the probability by which a response
	// will be modified.
	ModifyResponseProbability float32 `yaml:"modify_response_probability"`

	// MaxIncreaseDelta is the amount of seconds that will be added at
	// most.
	MaxIncreaseDelta int `yaml:"max_increase_delta"`

	// ModifyMinInterval specifies whether min_interval should be
	// increased as well.
	ModifyMinInterval bool `yaml:"modify_min_interval"`
}

func checkConfig(cfg Config) error {
	if cfg.ModifyResponseProbability <= 0 || cfg.ModifyResponseProbability > 1 {
		return ErrInvalidModifyResponseProbability
	}

	if cfg.MaxIncreaseDelta <= 0 {
		return ErrInvalidMaxIncreaseDelta
	}

	return nil
}

type hook struct {
	cfg    Config
	s0, s1 uint64
	sync.Mutex
}

// NewHook creates a middleware to randomly modify the announce interval
// from the given config.
func NewHook(cfg Config, inst *instance.Instance) (middleware.Hook, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	h := &hook{cfg: cfg}
	h.s0, h.s1 = inst.DeriveSeed64(Name)
	return h, nil
}

func (h *hook) HandleAnnounce(ctx context.Context, req *bittorrent.AnnounceRequest, resp *bittorrent.AnnounceResponse) (context.Context, error) {
	v0, v1 := random.DeriveEntropyFromRequest(req)
	s0, s1 := h.s0^v0, h.s1^v1

	// Generate a probability p < 1.0.
	v, s0, s1 := random.Intn(s0, s1, 1<<24)
	p := float32(v) / (1 << 24)
	if h.cfg.ModifyResponseProbability == 1 || p < h.cfg.ModifyResponseProbability {
		// Generate the increase delta.
		v, _, _ = random.Intn(s0, s1, h.cfg.MaxIncreaseDelta)
		deltaDuration := time.Duration(v+1) * time.Second

		resp.Interval += deltaDuration

		if h.cfg.ModifyMinInterval {
			resp.MinInterval += deltaDuration
		}
	}

	return ctx, nil
}
