package serve

import (
	"context"
	"flag"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxarb/cmd/env"
	"github.com/sig-0/fxarb/server/config"
)

const (
	defaultRetention     = 7 * 24 * time.Hour
	defaultSourceTimeout = 30 * time.Second
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath    string
	retention     time.Duration
	sourceTimeout time.Duration
	noIngest      bool
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the fxarb backend",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)

	fs.DurationVar(
		&c.retention,
		"retention",
		defaultRetention,
		"how long ingested rates are kept (0 keeps everything)",
	)

	fs.DurationVar(
		&c.sourceTimeout,
		"source-timeout",
		defaultSourceTimeout,
		"the HTTP timeout of the upstream rate providers",
	)

	fs.BoolVar(
		&c.noIngest,
		"no-ingest",
		false,
		"serve the stored rates only, without running the ingest providers",
	)
}

// readConfig replaces the default server configuration with the TOML file, if any
func (c *serveCfg) readConfig() error {
	if c.configPath == "" {
		return nil
	}

	serverCfg, err := config.Read(c.configPath)
	if err != nil {
		return err
	}

	// The listen flag applies if the file has no address
	if serverCfg.ListenAddress == "" {
		serverCfg.ListenAddress = c.config.ListenAddress
	}

	c.config = serverCfg

	return nil
}
