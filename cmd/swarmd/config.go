package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	httpfrontend "github.com/swarmd/swarmd/frontend/http"
	"github.com/swarmd/swarmd/middleware"
	"github.com/swarmd/swarmd/pkg/instance"
	"github.com/swarmd/swarmd/storage"
)

// StorageConfig selects a swarm store strategy by name and carries its
// shared configuration.
type StorageConfig struct {
	Name   string         `yaml:"name"`
	Config storage.Config `yaml:"config"`
}

// Config represents the configuration used for executing swarmd.
type Config struct {
	middleware.ResponseConfig `yaml:",inline"`
	MetricsAddr               string                  `yaml:"metrics_addr"`
	HTTPConfig                httpfrontend.Config     `yaml:"http"`
	Storage                   StorageConfig           `yaml:"storage"`
	PreHooks                  []middleware.HookConfig `yaml:"prehooks"`
	PostHooks                 []middleware.HookConfig `yaml:"posthooks"`
}

// CreateHooks creates instances of Hooks for all of the PreHooks and
// PostHooks configured in a Config.
func (cfg Config) CreateHooks(inst *instance.Instance) (preHooks, postHooks []middleware.Hook, err error) {
	preHooks, err = middleware.HooksFromHookConfigs(cfg.PreHooks, inst)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create pre-hooks")
	}

	postHooks, err = middleware.HooksFromHookConfigs(cfg.PostHooks, inst)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create post-hooks")
	}

	return preHooks, postHooks, nil
}

// ConfigFile represents a namespaced YAML configation file.
type ConfigFile struct {
	Swarmd Config `yaml:"swarmd"`
}

// ParseConfigFile returns a new ConfigFile given the path to a YAML
// configuration file.
//
// It supports relative and absolute paths and environment variables.
func ParseConfigFile(path string) (*ConfigFile, error) {
	if path == "" {
		return nil, errors.New("no config path specified")
	}

	contents, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, err
	}

	var cfgFile ConfigFile
	err = yaml.Unmarshal(contents, &cfgFile)
	if err != nil {
		return nil, err
	}

	return &cfgFile, nil
}
