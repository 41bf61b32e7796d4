// Command migrate manages the database schema: it applies, rolls back and
// inspects the embedded SQL migrations and scaffolds new ones.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/drymix/erp/internal/infrastructure/migration"
	"github.com/drymix/erp/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Drymix ERP database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations (lints them first)
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative n rolls back)
  goto <version>        Migrate up or down to version
  version               Show the applied version
  force <version>       Mark version as applied and clean
  drop -confirm         Drop every object in the schema
  create <name> [desc]  Scaffold a new up/down pair
  list                  List the migrations
  lint                  Check that every migration is re-runnable

Flags:
`

type env struct {
	args   []string
	dir    string
	source fs.FS
	log    *zap.Logger
	m      *migration.Migrator
}

type command struct {
	db  bool
	run func(e *env) error
}

var commands = map[string]command{
	"create": {run: create},
	"list":   {run: list},
	"lint":   {run: lint},
	"up": {db: true, run: func(e *env) error {
		if !skipLint {
			if err := lint(e); err != nil {
				return err
			}
		}
		return e.m.Up()
	}},
	"down": {db: true, run: func(e *env) error { return e.m.Down() }},
	"step": {db: true, run: func(e *env) error {
		n, err := intArg(e.args, "step count")
		if err != nil {
			return err
		}
		return e.m.Steps(n)
	}},
	"goto": {db: true, run: func(e *env) error {
		v, err := intArg(e.args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return e.m.GoTo(uint(v))
	}},
	"force": {db: true, run: func(e *env) error {
		v, err := intArg(e.args, "version")
		if err != nil {
			return err
		}
		return e.m.Force(v)
	}},
	"version": {db: true, run: func(e *env) error {
		v, dirty, err := e.m.Version()
		if err != nil {
			return err
		}
		e.log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"drop": {db: true, run: func(e *env) error {
		if len(e.args) < 2 || (e.args[1] != "-confirm" && e.args[1] != "--confirm") {
			return errors.New("drop needs -confirm")
		}
		return e.m.Drop()
	}},
}

var skipLint bool

func main() {
	var (
		dir         string
		level       string
		lockTimeout time.Duration
	)
	flag.StringVar(&dir, "path", "", "read migrations from this directory instead of the embedded set")
	flag.StringVar(&level, "log-level", "info", "log level: debug, info, warn, error")
	flag.DurationVar(&lockTimeout, "lock-timeout", 0, "how long to wait for the migration lock")
	flag.BoolVar(&skipLint, "skip-lint", false, "apply without checking that migrations are re-runnable")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: level, Format: "console", TimeFormat: time.DateTime})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	e := &env{args: args, dir: dir, source: migrations.FS, log: log}
	if dir != "" {
		e.source = os.DirFS(dir)
	}

	if cmd.db {
		closeDB, err := e.open(lockTimeout)
		if err != nil {
			log.Fatal("Cannot reach the database", zap.Error(err))
		}
		defer closeDB()
	}
	if err := cmd.run(e); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func (e *env) open(lockTimeout time.Duration) (func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	e.m, err = migration.New(db, e.source, e.log, migration.Options{
		MigrationsTable: cfg.Database.MigrationsTable,
		LockTimeout:     lockTimeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	e.log.Debug("Connected", zap.String("database", cfg.Database.DBName))
	return func() { _ = e.m.Close() }, nil
}

func create(e *env) error {
	if len(e.args) < 2 {
		return errors.New("usage: migrate create <name> [description]")
	}
	dir := e.dir
	if dir == "" {
		dir = "migrations"
	}
	var desc string
	if len(e.args) > 2 {
		desc = e.args[2]
	}
	mf, err := migration.CreateMigration(dir, e.args[1], desc)
	if err != nil {
		return err
	}
	e.log.Info("Migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
	return nil
}

func list(e *env) error {
	names, err := migration.ListMigrations(e.source)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func lint(e *env) error {
	violations, err := migration.Lint(e.source)
	if err != nil {
		return err
	}
	for _, v := range violations {
		e.log.Warn("Migration is not re-runnable", zap.String("violation", v.String()))
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d lint violations", len(violations))
	}
	return nil
}

func intArg(args []string, name string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, args[1])
	}
	return n, nil
}
