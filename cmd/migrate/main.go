package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/travelops/backend/internal/infrastructure/config"
	"github.com/travelops/backend/internal/infrastructure/logger"
	"github.com/travelops/backend/internal/infrastructure/migration"
)

// command is one migrate subcommand. Commands with needsDB false only
// touch the migrations directory and never open a connection.
type command struct {
	usage   string
	summary string
	needsDB bool
	run     func(env *cliEnv, args []string) error
}

// cliEnv carries what a command needs. migrator is nil for
// directory-only commands.
type cliEnv struct {
	log      *zap.Logger
	dir      string
	migrator *migration.Migrator
}

var commands = map[string]command{
	"up": {
		usage:   "up",
		summary: "apply every pending migration",
		needsDB: true,
		run: func(env *cliEnv, _ []string) error {
			return env.migrator.Up()
		},
	},
	"down": {
		usage:   "down",
		summary: "roll back every applied migration",
		needsDB: true,
		run: func(env *cliEnv, _ []string) error {
			return env.migrator.Down()
		},
	},
	"step": {
		usage:   "step <n>",
		summary: "apply n migrations; a negative n rolls back",
		needsDB: true,
		run: func(env *cliEnv, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("step takes exactly one argument")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("step count %q is not a number", args[0])
			}
			return env.migrator.Steps(n)
		},
	},
	"version": {
		usage:   "version",
		summary: "print the current schema version",
		needsDB: true,
		run: func(env *cliEnv, _ []string) error {
			version, dirty, err := env.migrator.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				env.log.Info("No migrations applied yet")
				return nil
			}
			env.log.Info("Schema version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
			return nil
		},
	},
	"force": {
		usage:   "force <version>",
		summary: "set the schema version without running migrations (dirty-state recovery)",
		needsDB: true,
		run: func(env *cliEnv, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("force takes exactly one argument")
			}
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("version %q is not a number", args[0])
			}
			return env.migrator.Force(version)
		},
	},
	"create": {
		usage:   "create <name> [description]",
		summary: "write a new up/down migration file pair",
		run: func(env *cliEnv, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("create needs a migration name")
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(env.dir, args[0], description)
			if err != nil {
				return err
			}
			env.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up", mf.UpPath),
				zap.String("down", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		usage:   "list",
		summary: "list the migration files on disk",
		run: func(env *cliEnv, _ []string) error {
			names, err := migration.ListMigrations(env.dir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				env.log.Info("No migration files found", zap.String("dir", env.dir))
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	},
}

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "dir", "migrations", "migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		log.Fatal("Failed to resolve migrations directory", zap.Error(err))
	}

	env := &cliEnv{log: log, dir: absDir}

	if cmd.needsDB {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("Failed to load configuration", zap.Error(err))
		}
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal("Failed to reach database", zap.Error(err))
		}

		migrator, err := migration.New(db, absDir, log)
		if err != nil {
			log.Fatal("Failed to initialize migrator", zap.Error(err))
		}
		defer migrator.Close()
		env.migrator = migrator
	}

	if err := cmd.run(env, args[1:]); err != nil {
		log.Fatal("Command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Usage: migrate [-dir <path>] [-log-level <level>] <command> [arguments]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(os.Stderr, "  %-24s %s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Database settings come from config.toml or TRAVELOPS_DATABASE_* environment variables.")
}
