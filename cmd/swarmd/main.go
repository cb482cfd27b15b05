package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	httpfrontend "github.com/swarmd/swarmd/frontend/http"
	"github.com/swarmd/swarmd/middleware"
	_ "github.com/swarmd/swarmd/middleware/varinterval"
	"github.com/swarmd/swarmd/pkg/instance"
	"github.com/swarmd/swarmd/pkg/log"
	"github.com/swarmd/swarmd/pkg/metrics"
	"github.com/swarmd/swarmd/pkg/stop"
	"github.com/swarmd/swarmd/storage"
	_ "github.com/swarmd/swarmd/storage/coarse"
	_ "github.com/swarmd/swarmd/storage/coop"
	_ "github.com/swarmd/swarmd/storage/fine"
)

// Run represents the state of a running instance of swarmd.
type Run struct {
	configFilePath string
	sg             *stop.Group
}

// NewRun runs an instance of swarmd.
func NewRun(configFilePath string) (*Run, error) {
	r := &Run{
		configFilePath: configFilePath,
	}

	return r, r.Start()
}

// Start begins an instance of swarmd.
func (r *Run) Start() error {
	configFile, err := ParseConfigFile(r.configFilePath)
	if err != nil {
		return errors.Wrap(err, "failed to read config")
	}
	cfg := configFile.Swarmd

	inst, err := instance.New()
	if err != nil {
		return errors.Wrap(err, "failed to initialize instance state")
	}

	r.sg = stop.NewGroup()

	if cfg.MetricsAddr != "" {
		log.Info("starting metrics server", log.Fields{"addr": cfg.MetricsAddr})
		r.sg.Add(metrics.NewServer(cfg.MetricsAddr))
	}

	log.Info("starting storage", log.Fields{"name": cfg.Storage.Name})
	ps, err := storage.NewSwarmStore(cfg.Storage.Name, cfg.Storage.Config)
	if err != nil {
		return errors.Wrap(err, "failed to create swarm store")
	}
	r.sg.Add(ps)

	preHooks, postHooks, err := cfg.CreateHooks(inst)
	if err != nil {
		return errors.Wrap(err, "failed to create hooks")
	}

	logic := middleware.NewLogic(cfg.ResponseConfig, ps, inst, preHooks, postHooks)
	r.sg.Add(logic)

	if cfg.HTTPConfig.Addr != "" {
		log.Info("starting HTTP frontend", cfg.HTTPConfig)
		httpfe, err := httpfrontend.NewFrontend(logic, cfg.HTTPConfig)
		if err != nil {
			return errors.Wrap(err, "failed to create HTTP frontend")
		}
		r.sg.Add(httpfe)
	}

	return nil
}

// Stop shuts down an instance of swarmd.
func (r *Run) Stop() error {
	log.Debug("stopping swarmd")
	if errs := r.sg.Stop().Wait(); len(errs) != 0 {
		for _, err := range errs {
			log.Error("error stopping swarmd", log.Err(err))
		}
		return errs[0]
	}

	return nil
}

// RootRunCmdFunc implements a Cobra command that runs an instance of swarmd
// and handles the process lifecycle.
func RootRunCmdFunc(cmd *cobra.Command, args []string) error {
	configFilePath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	r, err := NewRun(configFilePath)
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return r.Stop()
}

// RootPreRunCmdFunc handles command line flags for the Run command.
func RootPreRunCmdFunc(cmd *cobra.Command, args []string) error {
	noColors, err := cmd.Flags().GetBool("nocolors")
	if err != nil {
		return err
	}
	if noColors {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}

	jsonLog, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonLog {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.Info("enabled JSON logging")
	}

	debugLog, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}
	if debugLog {
		log.SetDebug(true)
		log.Debug("enabled debug logging")
	}

	cpuProfilePath, err := cmd.Flags().GetString("cpuprofile")
	if err != nil {
		return err
	}
	if cpuProfilePath != "" {
		log.Info("enabled CPU profiling", log.Fields{"path": cpuProfilePath})
		f, err := os.Create(cpuProfilePath)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
	}

	return nil
}

// RootPostRunCmdFunc handles clean up of any state initialized by command
// line flags.
func RootPostRunCmdFunc(cmd *cobra.Command, args []string) error {
	// This handles the case where the CPU profile was enabled.
	pprof.StopCPUProfile()

	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:                "swarmd",
		Short:              "BitTorrent Tracker",
		Long:               "A customizable BitTorrent Tracker built around a concurrent swarm repository",
		PersistentPreRunE:  RootPreRunCmdFunc,
		RunE:               RootRunCmdFunc,
		PersistentPostRunE: RootPostRunCmdFunc,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "enable json logging")
	rootCmd.PersistentFlags().Bool("nocolors", false, "disable log coloring")
	rootCmd.PersistentFlags().String("cpuprofile", "", "location to save a CPU profile")
	rootCmd.Flags().String("config", "/etc/swarmd.yaml", "location of configuration file")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal("failed when executing root cobra command", log.Err(err))
	}
}
