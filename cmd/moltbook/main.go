package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/cache"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/moltbook"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/policy"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/privacy"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

const usage = `Moltbook Wrapper - CLI with built-in PII protection

Usage:
  moltbook [flags] <command> [args]

Commands:
  agent status              Check agent claim status
  agent profile             Get own profile
  post create               Create a post (PII protected)
  post list                 List posts
  post get <id>             Get a single post with comments
  post delete <id>          Delete your own post
  post vote <id>            Upvote a post (toggle)
  post comment <id>         Add a comment to a post (PII protected)
  submolt list              List all submolts
  submolt subscribe <name>  Subscribe to a submolt
  search <query>            Search posts
  check <text>              Check text for PII locally (nothing is sent)
  stats                     Show wrapper stats
  serve                     Run the local guard server

Flags:
  -config string        Path to configuration file
  -disable-protection   Disable PII protection (use with caution)
  -version              Show version information

All posts and comments are checked for PII before being sent.
Personal information is blocked automatically.
`

// app bundles the wired-up collaborators each command needs.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	detector *privacy.Detector
	guard    *policy.Guard
	client   *moltbook.Client
}

func main() {
	// A .env file is optional; the API key may come from the process
	// environment directly.
	_ = godotenv.Load()

	var (
		configPath        = flag.String("config", "", "Path to configuration file")
		disableProtection = flag.Bool("disable-protection", false, "Disable PII protection (use with caution)")
		showVersion       = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("Moltbook Wrapper %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	registry := privacy.NewRegistry()
	detector := privacy.FromConfig(registry, cfg.Creator, log.WithComponent("privacy"))

	a := &app{
		cfg:      cfg,
		log:      log,
		detector: detector,
	}

	if err := a.run(flag.Args(), *disableProtection); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}
	return logger.New(loggerConfig)
}

// connect builds the API client and a guard wired to it. Commands that
// never touch the network use guardOnly instead.
func (a *app) connect() error {
	client, err := moltbook.New(a.cfg.Moltbook, os.Getenv("MOLTBOOK_API_KEY"), a.log.WithComponent("moltbook"))
	if err != nil {
		return err
	}

	if a.cfg.Cache.Enabled {
		rc, err := cache.New(a.cfg.Cache, a.log.WithComponent("cache").Logger)
		if err != nil {
			// Cache is an optimization; a missing Redis never blocks the CLI.
			a.log.Warn("Response cache unavailable, continuing without it", zap.Error(err))
		} else {
			client.SetCache(rc)
		}
	}

	a.client = client
	a.guard = policy.New(a.detector, client, a.cfg.Protection, version, a.log.WithComponent("policy"))
	return nil
}

// guardOnly builds a guard with no transport attached.
func (a *app) guardOnly() {
	a.guard = policy.New(a.detector, nil, a.cfg.Protection, version, a.log.WithComponent("policy"))
}

func (a *app) run(args []string, disableProtection bool) error {
	command := args[0]
	rest := args[1:]

	needsNetwork := command != "check" && command != "stats" && command != "serve"
	if needsNetwork {
		if err := a.connect(); err != nil {
			return err
		}
	} else {
		a.guardOnly()
	}

	if disableProtection {
		a.guard.Disable()
		fmt.Fprintln(os.Stderr, "WARNING: PII protection DISABLED")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Moltbook.Timeout+time.Minute)
	defer cancel()

	switch command {
	case "agent":
		return a.runAgent(ctx, rest)
	case "post":
		return a.runPost(ctx, rest)
	case "submolt":
		return a.runSubmolt(ctx, rest)
	case "search":
		return a.runSearch(ctx, rest)
	case "check":
		return a.runCheck(rest)
	case "stats":
		return printJSON(a.guard.Stats())
	case "serve":
		return a.runServe()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) runAgent(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("agent requires a subcommand: status, profile")
	}
	switch args[0] {
	case "status":
		return printRaw(a.client.AgentStatus(ctx))
	case "profile":
		return printRaw(a.client.AgentProfile(ctx))
	default:
		return fmt.Errorf("unknown agent subcommand: %s", args[0])
	}
}

func (a *app) runPost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("post requires a subcommand: create, list, get, delete, vote, comment")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("post create", flag.ExitOnError)
		submolt := fs.String("submolt", "", "Submolt to post to (required)")
		title := fs.String("title", "", "Post title (required)")
		content := fs.String("content", "", "Post content (required)")
		postURL := fs.String("url", "", "Optional link URL")
		fs.Parse(args[1:])
		if *submolt == "" || *title == "" || *content == "" {
			return fmt.Errorf("post create requires -submolt, -title, and -content")
		}
		return printRaw(a.guard.SafeCreatePost(ctx, *submolt, *title, *content, *postURL))

	case "list":
		fs := flag.NewFlagSet("post list", flag.ExitOnError)
		submolt := fs.String("submolt", "", "Filter by submolt")
		sort := fs.String("sort", "hot", "Sort order")
		limit := fs.Int("limit", 20, "Maximum number of posts")
		fs.Parse(args[1:])
		return printRaw(a.client.ListPosts(ctx, *submolt, *sort, *limit))

	case "get", "delete", "vote":
		if len(args) < 2 {
			return fmt.Errorf("post %s requires a post ID", args[0])
		}
		postID := args[1]
		switch args[0] {
		case "get":
			return printRaw(a.client.GetPost(ctx, postID))
		case "delete":
			return printRaw(a.client.DeletePost(ctx, postID))
		default:
			return printRaw(a.client.VotePost(ctx, postID))
		}

	case "comment":
		if len(args) < 2 {
			return fmt.Errorf("post comment requires a post ID")
		}
		fs := flag.NewFlagSet("post comment", flag.ExitOnError)
		content := fs.String("content", "", "Comment text (required)")
		parent := fs.String("parent", "", "Parent comment ID for replies")
		fs.Parse(args[2:])
		if *content == "" {
			return fmt.Errorf("post comment requires -content")
		}
		return printRaw(a.guard.SafeCreateComment(ctx, args[1], *content, *parent))

	default:
		return fmt.Errorf("unknown post subcommand: %s", args[0])
	}
}

func (a *app) runSubmolt(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("submolt requires a subcommand: list, subscribe")
	}
	switch args[0] {
	case "list":
		return printRaw(a.client.ListSubmolts(ctx))
	case "subscribe":
		if len(args) < 2 {
			return fmt.Errorf("submolt subscribe requires a name")
		}
		return printRaw(a.client.Subscribe(ctx, args[1]))
	default:
		return fmt.Errorf("unknown submolt subcommand: %s", args[0])
	}
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum number of results")
	fs.Parse(args[1:])

	query := strings.Join(append([]string{args[0]}, fs.Args()...), " ")
	return printRaw(a.client.Search(ctx, query, *limit))
}

// runCheck runs the PII check on the given text and prints the verdict
// with a sanitized preview when something is found. Purely local.
func (a *app) runCheck(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("check requires text")
	}
	text := strings.Join(args, " ")

	found, preview := a.guard.SanitizePreview(text)
	if !found {
		return printJSON(map[string]any{"allowed": true})
	}
	return printJSON(map[string]any{
		"allowed": false,
		"preview": preview,
	})
}

// runServe starts the guard server and blocks until shutdown.
func (a *app) runServe() error {
	srv := server.New(a.cfg, a.guard, a.log)

	// Config edits while serving take effect on restart; the watch just
	// makes that visible.
	_ = config.Watch(a.cfg, func(*config.Config) {
		a.log.Info("Configuration file changed; restart to apply")
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		a.log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			return fmt.Errorf("failed to shutdown gracefully: %w", err)
		}

		// Explicit memory hygiene: drop the configured secrets before exit.
		a.detector.Clear()
		a.log.Info("Server shutdown complete")
		return nil
	}
}

// printRaw pretty-prints an API response (or a refusal) to stdout.
func printRaw(data json.RawMessage, err error) error {
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if jsonErr := json.Indent(&buf, data, "", "  "); jsonErr != nil {
		// Not JSON; print as-is.
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

// printJSON marshals a value to indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
