package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/studydesk/internal/config"
	logpkg "github.com/local/studydesk/internal/logger"
	"github.com/local/studydesk/internal/statuscheck"
	"github.com/local/studydesk/internal/studyapi"
	"github.com/local/studydesk/internal/upload"
)

// app holds everything a command needs. It is built once in PersistentPreRunE.
type app struct {
	cfg      cfgpkg.Config
	client   *studyapi.Client
	uploader *upload.Uploader
	checker  *statuscheck.Checker
	out      io.Writer
}

var (
	a       = &app{out: os.Stdout}
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "studyctl",
	Short:         "Upload study documents and fetch summaries and flashcards from the study backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load(envFile)
		return a.init(cmd)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		logpkg.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	rootCmd.PersistentFlags().String("backend-url", "", "study backend base URL (overrides BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newUploadCmd(),
		newSummaryCmd(),
		newFlashcardsCmd(),
		newQueryCmd(),
		newRebuildIndexCmd(),
		newHealthCmd(),
		newServeCmd(),
	)
}

func (a *app) init(cmd *cobra.Command) error {
	a.cfg = cfgpkg.FromEnv()
	if v, _ := cmd.Flags().GetString("backend-url"); v != "" {
		a.cfg.Backend.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		a.cfg.Logging.Level = v
	}

	if err := logpkg.Init(logpkg.Options{
		Level:        a.cfg.Logging.Level,
		Pretty:       a.cfg.Logging.Pretty,
		File:         a.cfg.Logging.File,
		MaxSizeMB:    a.cfg.Logging.MaxSizeMB,
		MaxBackups:   a.cfg.Logging.MaxBackups,
		MaxAgeDays:   a.cfg.Logging.MaxAgeDays,
		Compress:     a.cfg.Logging.Compress,
		SendToAxiom:  a.cfg.Axiom.Send && a.cfg.Axiom.APIKey != "",
		AxiomAPIKey:  a.cfg.Axiom.APIKey,
		AxiomOrgID:   a.cfg.Axiom.OrgID,
		AxiomDataset: a.cfg.Axiom.Dataset,
		AxiomFlush:   a.cfg.Axiom.FlushInterval,
	}); err != nil {
		return err
	}

	a.client = studyapi.NewClient(studyapi.Options{
		BaseURL:     a.cfg.Backend.BaseURL,
		Timeout:     a.cfg.Backend.Timeout,
		SummaryTopK: a.cfg.Backend.SummaryTopK,
		QueryTopK:   a.cfg.Backend.QueryTopK,
	})

	backend, err := newUploadBackend(cmd.Context(), a.cfg.Upload)
	if err != nil {
		return err
	}
	a.uploader = upload.NewUploader(backend)

	a.checker = statuscheck.New(statuscheck.Options{
		Backend:       a.client,
		UploadBackend: a.cfg.Upload.Backend,
		S3Bucket:      a.cfg.Upload.S3Bucket,
	})
	return nil
}

func newUploadBackend(ctx context.Context, cfg cfgpkg.UploadConfig) (upload.Backend, error) {
	switch cfg.Backend {
	case "", "simulated":
		return upload.NewSimulatedBackend(cfg.SimulatedDelay), nil
	case "s3":
		return upload.NewS3Backend(ctx, upload.S3Options{
			Bucket:     cfg.S3Bucket,
			Prefix:     cfg.S3Prefix,
			PartSizeMB: cfg.S3PartSizeMB,
		})
	default:
		return nil, fmt.Errorf("unknown UPLOAD_BACKEND %q (want simulated or s3)", cfg.Backend)
	}
}

// printJSON writes v to stdout as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		logpkg.Close()
		os.Exit(1)
	}
}
