package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/toolbrain/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the toolbrain HTTP server",
	Long: `Start the toolbrain HTTP server.

The server exposes need routing (/api/query), usage reporting
(/api/report), learned ranking (/api/rank), stats, the conversation
store (/conversations), and a server-sent-events streaming surface
(/stream) for long-lived subscriber connections.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}

		addr := serveAddr
		if addr == "" {
			addr = Config.HTTPAddr
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		srv := httpapi.NewServer(httpapi.Options{
			Router:        Router,
			Stats:         Stats,
			Registry:      RegistryMgr,
			Conversations: ConversationStore,
			Broker:        Broker,
			Events:        EventLog,
			Logger:        logger,
			KeepAlive:     KeepAlive,
		})

		httpSrv := &http.Server{
			Addr:    addr,
			Handler: srv.Handler(),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("serving", "addr", addr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving: %w", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to http_addr from .brainconfig)")
	rootCmd.AddCommand(serveCmd)
}
