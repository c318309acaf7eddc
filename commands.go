package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"proposal_agent/export"
	"proposal_agent/generator"
	"proposal_agent/library"
	"proposal_agent/logging"
	"proposal_agent/server"
	"proposal_agent/session"
)

func serveCmd(opts *globalOpts) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return runServer(a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	return cmd
}

func runServer(a *app) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := session.NewStore(ctx, a.cfg.Sessions)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	srv, err := server.New(server.Deps{
		Extractor:  a.extractor,
		Generator:  a.generator,
		Sessions:   store,
		Corpus:     a.corpus,
		Validation: a.cfg.Validation,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", map[string]interface{}{"addr": httpSrv.Addr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	a.log.Info("shutting down", nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("shutdown error", nil)
		return err
	}
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
	return nil
}

func extractCmd(opts *globalOpts) *cobra.Command {
	var (
		transcriptPath string
		apiKey         string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a proposal brief from a transcript and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(opts)
			if err != nil {
				return err
			}
			transcript, err := readInput(cmd.InOrStdin(), transcriptPath)
			if err != nil {
				return err
			}
			key, err := resolveKey(apiKey, a.cfg.Validation.MinCredentialChars)
			if err != nil {
				return err
			}
			if n := utf8.RuneCountInString(strings.TrimSpace(transcript)); n < a.cfg.Validation.MinTranscriptChars {
				return fmt.Errorf("transcript has %d characters, at least %d are required", n, a.cfg.Validation.MinTranscriptChars)
			}

			res, err := a.extractor.Extract(cmd.Context(), transcript, key)
			if err != nil {
				return errors.New(generator.UserMessage(err))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "-", "Transcript file, or - for stdin")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Model provider API key (default $"+apiKeyEnv+")")
	return cmd
}

func generateCmd(opts *globalOpts) *cobra.Command {
	var (
		briefPath string
		apiKey    string
		outDir    string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a proposal package from a brief and write the exports",
		Long: `Reads a brief as JSON (either a bare brief or the output of "extract"), streams
the proposal while printing progress to stderr, and writes the deck outline, talk
track and FAQ documents into the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(opts)
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), briefPath)
			if err != nil {
				return err
			}
			brief, err := decodeBrief(raw)
			if err != nil {
				return err
			}
			key, err := resolveKey(apiKey, a.cfg.Validation.MinCredentialChars)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			proposal, err := streamProposal(ctx, a.generator, brief, key, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			paths, err := export.WriteAll(outDir, f, proposal, &brief, time.Now())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&briefPath, "brief", "b", "-", "Brief JSON file, or - for stdin")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Model provider API key (default $"+apiKeyEnv+")")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the exported documents")
	cmd.Flags().StringVar(&format, "format", "txt", "Export format (txt, html)")
	return cmd
}

// streamProposal drains a generation, reporting progress to w.
func streamProposal(ctx context.Context, g *generator.Generator, brief generator.Brief, key string, w io.Writer) (generator.Proposal, error) {
	var chars int
	for ev := range g.Generate(ctx, brief, key) {
		switch d := ev.Data.(type) {
		case []library.Reference:
			for _, r := range d {
				fmt.Fprintf(w, "Grounded on %s (%d%%)\n", r.Title, r.Similarity)
			}
		case generator.StatusData:
			fmt.Fprintln(w, d.Message)
		case generator.ChunkData:
			chars += len(d.Text)
		case generator.ErrorData:
			return generator.Proposal{}, errors.New(d.Message)
		case generator.Proposal:
			fmt.Fprintf(w, "Received %d characters, %d slides, %d FAQ items\n", chars, len(d.DeckOutline), len(d.FAQ))
			return d, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return generator.Proposal{}, fmt.Errorf("generation interrupted: %w", err)
	}
	return generator.Proposal{}, errors.New("generation ended without a result")
}

// decodeBrief accepts a bare brief or an object with a "brief" field.
func decodeBrief(raw string) (generator.Brief, error) {
	var wrapped struct {
		Brief *generator.Brief `json:"brief"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return generator.Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	if wrapped.Brief != nil {
		return *wrapped.Brief, nil
	}
	var b generator.Brief
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return generator.Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	return b, nil
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

// resolveKey prefers the flag over the environment and never echoes the key back.
func resolveKey(flagKey string, minChars int) (string, error) {
	key := strings.TrimSpace(flagKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(apiKeyEnv))
	}
	if len(key) < minChars {
		return "", fmt.Errorf("missing API key: pass --api-key or set %s (got %s)", apiKeyEnv, logging.RedactKey(key))
	}
	return key, nil
}
