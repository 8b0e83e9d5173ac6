package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paperbank/internal/backend"
	"paperbank/internal/extract"
	"paperbank/internal/handler"
	appI18n "paperbank/internal/i18n"
	"paperbank/internal/stub"
	"paperbank/internal/view"
)

const aiEndpointFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

//go:generate templ generate

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paperbank",
		Short: "Study aid that turns exam paper PDFs into practice question banks",
	}

	serve := serveCmd()
	root.AddCommand(serve, stubCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `paperbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the study-aid front end",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("backend-url", "http://localhost:5000", "Base URL of the paper CRUD backend")
	f.String("ai-url", "", "Gemini generateContent endpoint URL (overrides --ai-model)")
	f.String("ai-model", "gemini-2.0-flash", "Gemini model used for extraction")
	f.String("ai-key", "", "API key for the AI extraction service")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func stubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local SQLite-backed stand-in for the CRUD backend",
		RunE:  runStub,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":5000", "HTTP listen address")
	f.String("db", "paperbank.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAPERBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("paperbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/paperbank")
	v.AddConfigPath("/etc/paperbank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	apiKey := v.GetString("ai-key")
	if apiKey == "" {
		return fmt.Errorf("AI API key is required: set --ai-key flag or PAPERBANK_AI_KEY env var")
	}
	aiURL := v.GetString("ai-url")
	if aiURL == "" {
		aiURL = fmt.Sprintf(aiEndpointFormat, v.GetString("ai-model"))
	}
	extractor := extract.New(aiURL, apiKey)

	backendURL := v.GetString("backend-url")
	bc := backend.New(backendURL)

	// Fetch all view fragments up front; a partial set is not navigable.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	fragments, err := view.LoadFragments(ctx, bc)
	if err != nil {
		return fmt.Errorf("load view fragments: %w", err)
	}
	slog.Info("view fragments loaded", "backend_url", backendURL)

	h, err := handler.New(bc, extractor, fragments, handler.Config{
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"backend_url", backendURL,
		"ai_url", aiURL,
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runStub(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	store, err := stub.NewStore(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	stub.NewServer(store).Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting stub backend", "addr", addr, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}
