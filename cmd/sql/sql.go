package sql

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxarb/cmd/env"
	dbpkg "github.com/sig-0/fxarb/storage/sql"
)

var errMissingDBURL = fmt.Errorf("missing DB URL (-db-url, or %s)", env.Prefix+env.DBURLSuffix)

// sqlCfg wraps the sql configuration, shared by the subcommands
type sqlCfg struct {
	dbURL string
}

// NewSQLCmd creates the sql subcommand
func NewSQLCmd() *ffcli.Command {
	cfg := &sqlCfg{}

	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	cfg.RegisterFlags(fs)

	cmd := &ffcli.Command{
		Name:       "sql",
		ShortUsage: "sql <subcommand> [flags] [<arg>...]",
		LongHelp:   "Manages the PostgreSQL exchange rate store",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	// Add the subcommands
	cmd.Subcommands = []*ffcli.Command{
		newMigrateCmd(cfg),
		newListCmd(),
	}

	return cmd
}

func (c *sqlCfg) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.dbURL,
		"db-url",
		"",
		"the PostgreSQL connection URL",
	)
}

// resolveDBURL returns the flag (or env) DB URL, falling back to .env
func (c *sqlCfg) resolveDBURL() (string, error) {
	if c.dbURL != "" {
		return c.dbURL, nil
	}

	// Load .env, the DB URL might be already exported
	_ = godotenv.Load()

	if dsn := os.Getenv(env.Prefix + env.DBURLSuffix); dsn != "" {
		return dsn, nil
	}

	return "", errMissingDBURL
}

// newListCmd creates the list command
func newListCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "list",
		ShortUsage: "sql list",
		LongHelp:   "Lists the embedded migrations, in apply order",
		FlagSet:    flag.NewFlagSet("list", flag.ExitOnError),
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
		Exec: func(_ context.Context, _ []string) error {
			return listMigrations(os.Stdout)
		},
	}
}

func listMigrations(w io.Writer) error {
	names, err := dbpkg.Migrations()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		return errors.New("no migration files found")
	}

	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}

	return nil
}
