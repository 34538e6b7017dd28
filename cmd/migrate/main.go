// Команда migrate применяет и откатывает встроенные миграции PostgreSQL.
//
//	migrate [-dsn DSN] [-steps N] [-timeout 30s] up|down|status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "STOREFRONT_POSTGRES_DSN"
)

type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (postgres.MigrationState, error)
}

type options struct {
	command string
	dsn     string
	steps   int
	timeout time.Duration
}

// openMigrator подменяется в тестах.
var openMigrator = func(ctx context.Context, dsn string) (migrator, func() error, error) {
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	os.Exit(execute(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

// execute возвращает код выхода процесса.
func execute(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	m, closeFn, err := openMigrator(ctx, opts.dsn)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open postgres store: %v\n", err)
		return 1
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("close postgres store")
		}
	}()

	if err := runMigration(ctx, m, opts.command, opts.steps, stdout); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func parseOptions(args []string, getenv func(string) string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(output, "usage: migrate [flags] up|down|status")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	fs.IntVar(&opts.steps, "steps", 0, "migrations to apply/rollback (up: 0 = all, down: 0 = 1)")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch fs.NArg() {
	case 0:
		opts.command = "status"
	case 1:
		opts.command = strings.ToLower(fs.Arg(0))
	default:
		return options{}, fmt.Errorf("expected one command, got %q", fs.Args())
	}

	if opts.dsn = strings.TrimSpace(opts.dsn); opts.dsn == "" {
		opts.dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	switch {
	case opts.dsn == "":
		return options{}, fmt.Errorf("%s (or -dsn) is required", envPostgresDSN)
	case opts.steps < 0:
		return options{}, errors.New("steps must be >= 0")
	case opts.timeout <= 0:
		return options{}, errors.New("timeout must be > 0")
	}
	return opts, nil
}

func runMigration(ctx context.Context, m migrator, command string, steps int, out io.Writer) error {
	logger := log.WithFields(log.Fields{"command": command, "steps": steps})

	var err error
	switch command {
	case "up":
		err = m.MigrateUp(ctx, steps)
	case "down":
		err = m.MigrateDown(ctx, max(steps, 1))
	case "status":
	default:
		return fmt.Errorf("unsupported command %q (use up|down|status)", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}

	state, err := m.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	logger.WithFields(log.Fields{"version": state.Version, "pending": state.Pending}).Debug("migration finished")

	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d pending=%d\n", command, state.Version, state.Applied, state.Pending)
	return nil
}
