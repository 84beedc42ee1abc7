package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/api"
	"github.com/nguyenvanduocit/indictrans/pkg/server"
)

var Serve = &cobra.Command{
	Use:     "serve",
	Short:   "serve the translation API over HTTP",
	Example: "indictrans serve --addr :8000",
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	Serve.Flags().String("addr", "", "address to listen on (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}

	app, err := api.Build(cmd.Context(), cfg, nil, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer app.Close()

	srv := server.New(app.Handler, slog.Default())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen(addr)
	}()

	base := "http://" + displayHost(addr)
	slog.Info("- " + base + "/api/translate")
	slog.Info("- " + base + "/api/languages")
	slog.Info("- " + base + "/api/status")

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		slog.Info("Interrupt received, shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func displayHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
