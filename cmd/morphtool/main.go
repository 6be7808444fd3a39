// morphtool is a CLI utility for inspecting and evaluating morph rigs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/morpher/internal/assets"
	"github.com/Faultbox/morpher/internal/config"
	"github.com/Faultbox/morpher/internal/engine/morph"
	"github.com/Faultbox/morpher/internal/logger"
	"github.com/Faultbox/morpher/internal/rig"
)

// errUsage is returned after a command has printed its own usage line.
var errUsage = errors.New("usage")

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	// One rig library for the whole run
	lib := newAssets(cfg)
	defer lib.Close()

	switch command {
	case "info":
		err = cmdInfo(cfg, lib, args)
	case "eval", "e":
		err = cmdEval(cfg, lib, args)
	case "stats":
		err = cmdStats(cfg, lib, args)
	case "sweep":
		err = cmdSweep(cfg, lib, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`morphtool - morph rig utility

Usage:
  morphtool [global options] <command> [options]

Global options:
  -config <file>     Config file (default ./config.yaml or user config dir)
  -debug             Enable debug logging
  -workers <n>       Accumulation workers
  -format text|yaml  Output format
  -precision <n>     Decimal places in text output

Commands:
  info <rig.yaml>                          Show channels and progression axes
  eval <rig.yaml> [-t time]                Print blended positions and weights
  stats <rig.yaml> [-t time]               Displacement statistics, overall and per channel
  sweep <rig.yaml> -channel name [-steps n] [-point i]
                                           Trace one point while a channel runs 0..100%

A rig is a file path or a name looked up in the config's data.rig_paths.

Examples:
  morphtool info face.yaml
  morphtool info face
  morphtool -format yaml eval face.yaml -t 1.5
  morphtool stats face.yaml -t 0.5
  morphtool sweep face.yaml -channel smile -steps 20 -point 42`)
}

// session is a rig built into a bank, ready to evaluate.
type session struct {
	rig  *rig.Rig
	bank *morph.Bank
	in   morph.Input
}

// newAssets returns a manager over the configured rig directories.
// Missing directories are skipped.
func newAssets(cfg *config.Config) *assets.Manager {
	m := assets.NewManager()
	for _, dir := range cfg.Data.RigPaths {
		if err := m.AddDir(dir); err != nil {
			logger.Debug("skipping rig directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	return m
}

// openSession loads a rig through lib and builds it into a new bank.
func openSession(cfg *config.Config, lib *assets.Manager, name string) (*session, error) {
	r, err := lib.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading rig %s: %w", name, err)
	}

	bank := morph.NewBank(morph.Options{
		Workers:        cfg.Engine.Workers,
		MaxProgressive: cfg.Engine.MaxProgressive,
	})
	if err := r.Build(bank, cfg.Engine.DefaultCurvature); err != nil {
		return nil, err
	}

	in := r.Input()
	in.UseLimit = cfg.Limits.Use
	in.LimitMin = cfg.Limits.Min
	in.LimitMax = cfg.Limits.Max

	logger.Debug("rig loaded",
		zap.String("rig", name),
		zap.String("name", r.Name),
		zap.Int("points", len(in.Points)),
		zap.Int("channels", bank.Len()),
		zap.Int("workers", bank.Workers()),
	)
	return &session{rig: r, bank: bank, in: in}, nil
}

// evaluate runs the bank at time t and logs any channel warnings.
func (s *session) evaluate(t float64, out *morph.Output) (morph.Report, error) {
	s.in.Time = t
	rep, err := s.bank.Evaluate(s.in, out)
	if err != nil {
		return rep, err
	}
	if rep.Warnings != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", rep.Warnings)
	}
	return rep, nil
}
