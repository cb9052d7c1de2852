package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/studydesk/internal/metrics"
	"github.com/local/studydesk/internal/upload"
	"github.com/local/studydesk/internal/web"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document and print the job id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := upload.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			res, err := a.uploader.Upload(cmd.Context(), f)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
}

func newSummaryCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "summary <query>",
		Short: "Fetch summary points and Q&A pairs for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Summary(cmd.Context(), strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default SUMMARY_TOP_K)")
	return cmd
}

func newFlashcardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flashcards [job-id]",
		Short: "Fetch flashcards from the last ingestion session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := ""
			if len(args) == 1 {
				jobID = args[0]
			}
			res, err := a.client.Flashcards(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
}

func newQueryCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask the RAG backend a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Query(cmd.Context(), strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default QUERY_TOP_K)")
	return cmd
}

func newRebuildIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index",
		Short: "Rebuild the backend's vector index from its data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.RebuildIndex(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the study backend and upload target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.checker.Summary(cmd.Context())
			if err := a.printJSON(s); err != nil {
				return err
			}
			if !s.OK() {
				return errors.New("one or more dependencies are unavailable")
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway for the web frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == "" {
				port = a.cfg.Gateway.Port
			}
			metrics.Init()

			mux := http.NewServeMux()
			web.New(web.Options{
				API:            a.client,
				Uploader:       a.uploader,
				Health:         a.checker,
				MaxUploadBytes: int64(a.cfg.Upload.MaxMB) << 20,
				AllowedOrigin:  a.cfg.Gateway.AllowedOrigin,
				RequestTimeout: a.cfg.Gateway.RequestTimeout,
			}).RegisterRoutes(mux)

			srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", srv.Addr).
					Str("backend", a.client.BaseURL()).
					Str("upload_backend", a.uploader.Backend()).
					Msg("gateway listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server error: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info().Msg("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default PORT)")
	return cmd
}
