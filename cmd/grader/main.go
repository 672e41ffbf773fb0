package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/grader/internal/chart"
	"github.com/pavelanni/grader/internal/console"
	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/handler"
	appI18n "github.com/pavelanni/grader/internal/i18n"
	"github.com/pavelanni/grader/internal/llm"
	"github.com/pavelanni/grader/internal/llm/prompts"
	"github.com/pavelanni/grader/internal/model"
	"github.com/pavelanni/grader/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grader",
		Short: "Reading and writing exam grading assistant",
	}

	serve := serveCmd()
	root.AddCommand(serve, reportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `grader --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the grading web UI",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /grades)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables feedback drafting)")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("llm-tone", string(prompts.ToneStandard), "Feedback tone (encouraging, standard, concise)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print reports for a gradebook JSON file",
		RunE:  runReport,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Gradebook JSON file (required)")
	f.StringP("type", "t", string(model.ReportSummary), "Report type (summary, detailed, class)")
	f.String("csv", "", "Also write the CSV export to this path")
	f.String("charts", "", "Also write mastery chart PNGs into this directory")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("input")

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

	v.SetEnvPrefix("GRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("grader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/grader")
	v.AddConfigPath("/etc/grader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New()
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer db.Close()

	if err := appI18n.Init(appI18n.DefaultLanguage); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// The feedback assistant is optional.
	var llmClient *llm.Client
	if url := v.GetString("llm-url"); url != "" {
		tone := strings.ToLower(strings.TrimSpace(v.GetString("llm-tone")))
		if !prompts.IsValidTone(tone) {
			return fmt.Errorf("invalid llm-tone %q (encouraging, standard, concise)", tone)
		}
		llmClient, err = llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"), prompts.Tone(tone))
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		slog.Info("feedback assistant enabled", "url", url, "model", v.GetString("llm-model"), "tone", tone)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
	}

	h, err := handler.New(db, llmClient, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(appI18n.DefaultLanguage))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"base_path", basePath,
		"feedback", llmClient != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runReport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	data, err := os.ReadFile(v.GetString("input"))
	if err != nil {
		return fmt.Errorf("read gradebook: %w", err)
	}
	var gb model.Gradebook
	if err := json.Unmarshal(data, &gb); err != nil {
		return fmt.Errorf("parse gradebook: %w", err)
	}

	exam, students, err := grading.LoadGradebook(gb)
	if err != nil {
		return fmt.Errorf("invalid gradebook: %w", err)
	}
	rows, err := grading.BuildReportRows(exam, students)
	if err != nil {
		return err
	}

	typ := model.ParseReportType(v.GetString("type"))
	if err := console.Render(cmd.OutOrStdout(), typ, rows); err != nil {
		return fmt.Errorf("render %s report: %w", typ, err)
	}

	if path := v.GetString("csv"); path != "" {
		if err := writeCSV(path, rows); err != nil {
			return err
		}
		slog.Info("wrote CSV", "path", path, "students", len(rows))
	}

	if dir := v.GetString("charts"); dir != "" {
		totals, err := grading.BuildMasteryTotals(exam, students)
		if err != nil {
			return err
		}
		if err := writeCharts(dir, totals); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows []model.ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer f.Close()
	if err := grading.WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return f.Close()
}

func writeCharts(dir string, totals model.MasteryTotals) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	for _, d := range model.Domains {
		png, err := chart.MasteryPNG(d, totals)
		if err != nil {
			return fmt.Errorf("render %s chart: %w", d, err)
		}
		path := filepath.Join(dir, strings.ToLower(string(d))+"_mastery.png")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		slog.Info("wrote chart", "path", path)
	}
	return nil
}
