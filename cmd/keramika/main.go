package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/keramika/internal/api"
	"github.com/erazemk/keramika/internal/auth"
	"github.com/erazemk/keramika/internal/cache"
	"github.com/erazemk/keramika/internal/config"
	"github.com/erazemk/keramika/internal/contact"
	"github.com/erazemk/keramika/internal/db"
	"github.com/erazemk/keramika/internal/jobs"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/mail"
	"github.com/erazemk/keramika/internal/media"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
	"github.com/erazemk/keramika/internal/telemetry"
	"github.com/erazemk/keramika/internal/translate"
)

// purgeInterval is how often expired keys are removed in the background.
const purgeInterval = time.Hour

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fs := flag.NewFlagSet("keramika", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "keramika.sqlite3", "")
	fs.StringVar(&dbPath, "d", "keramika.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: keramika [flags]
       keramika hash-password [password]

Flags:
  -d, -db <path>          SQLite database path (default: keramika.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Everything else is configured through KERAMIKA_* and EMAIL_* environment
variables.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, dbPath, addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, dbPath, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(cfg, dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	kvStore := kv.New(database)

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret, err = store.GetSessionSecret(ctx, kvStore)
		if err != nil {
			return err
		}
	}

	passwordHash, err := adminPasswordHash(ctx, cfg, kvStore)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, "keramika")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	pool := jobs.NewPool(cfg.JobWorkers, cfg.JobQueue)
	var translateJobs jobs.Dispatcher = pool
	if !cfg.TranslateAsync {
		translateJobs = jobs.Inline{Timeout: jobs.DefaultTimeout}
	}
	pipeline := translate.NewPipeline(translate.NewClient(cfg.TranslateURL, cfg.TranslateEmail), translateJobs)

	settingsCache, err := cache.New[string, model.Settings](1, cfg.SettingsTTL)
	if err != nil {
		return fmt.Errorf("creating settings cache: %w", err)
	}

	contactService := contact.NewService(kvStore, newMailer(cfg), pool, cfg.BaseURL, cfg.EmailTo)
	if cfg.EmailTo == "" {
		slog.Warn("EMAIL_TO is not set, confirmed contact messages only reach the admin inbox")
	}

	mediaStore, err := newMediaStore(cfg, kvStore)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Options{
		KV:            kvStore,
		SessionSecret: sessionSecret,
		PasswordHash:  passwordHash,
		CookieSecure:  cfg.CookieSecure,
		Translate:     pipeline,
		Contact:       contactService,
		Media:         mediaStore,
		SettingsCache: settingsCache,
		CORSOrigins:   cfg.CORSOrigins,
		TrustProxy:    cfg.TrustProxy,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(telemetry.Middleware(router)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// The pool outlives the server so jobs queued by in-flight requests
	// still run.
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(poolCtx)
	})
	g.Go(func() error {
		slog.Info("server started", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		purgeExpired(gctx, kvStore)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(sctx)
		if err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		stopPool()
		return err
	})

	err = g.Wait()
	slog.Info("server stopped, closing database")
	return err
}

func openDatabase(cfg config.Config, dbPath string) (*sql.DB, error) {
	source := dbPath
	if cfg.DBDriver == db.MySQL {
		source = cfg.DBDSN
	}
	database, err := db.OpenDialect(cfg.DBDriver, source)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database, cfg.DBDriver); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	if cfg.DBDriver == db.MySQL {
		slog.Info("database ready", "driver", cfg.DBDriver)
	} else {
		slog.Info("database ready", "driver", cfg.DBDriver, "path", dbPath)
	}
	return database, nil
}

// adminPasswordHash resolves the admin password: an explicit hash, then a
// plain password from the environment, then a hash generated on first run.
func adminPasswordHash(ctx context.Context, cfg config.Config, s *kv.Store) (string, error) {
	if cfg.AdminPasswordHash != "" {
		return cfg.AdminPasswordHash, nil
	}
	if cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return "", fmt.Errorf("hashing admin password: %w", err)
		}
		return hash, nil
	}

	hash, err := store.GetAdminPasswordHash(ctx, s)
	if err != nil || hash != "" {
		return hash, err
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err = auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	stored, created, err := store.InitAdminPasswordHash(ctx, s, hash)
	if err != nil {
		return "", err
	}
	if created {
		printInitResult(password)
	}
	return stored, nil
}

// printInitResult prints the generated admin password to stdout.
func printInitResult(password string) {
	fmt.Println("No admin password configured, generated one:")
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("Set KERAMIKA_ADMIN_PASSWORD_HASH to replace it.")
	fmt.Println()
}

func newMailer(cfg config.Config) mail.Sender {
	addr := cfg.SMTPAddr()
	if addr == "" {
		slog.Warn("EMAIL_HOST is not set, email is logged instead of sent")
		return mail.LogSender{}
	}
	return &mail.SMTP{
		Addr:     addr,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		From:     cfg.EmailFrom,
	}
}

func newMediaStore(cfg config.Config, s *kv.Store) (media.Store, error) {
	if cfg.CloudinaryURL == "" {
		return media.NewKVStore(s), nil
	}
	c, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}
	slog.Info("storing uploads in cloudinary", "folder", cfg.CloudinaryFolder)
	return c, nil
}

// purgeExpired removes expired keys periodically until ctx is done.
func purgeExpired(ctx context.Context, s *kv.Store) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				slog.Error("failed to purge expired keys", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired keys", "count", n)
			}
		}
	}
}

// hashPassword implements the hash-password subcommand. The password is
// taken from the first argument or the first line of stdin.
func hashPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	var password string
	switch len(args) {
	case 0:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	case 1:
		password = args[0]
	default:
		return fmt.Errorf("usage: keramika hash-password [password]")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}
