package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartpen/config/database"
	"smartpen/internal/auth"
	bluetoothRepo "smartpen/internal/bluetooth/repository"
	bluetoothService "smartpen/internal/bluetooth/service"
	noteRepo "smartpen/internal/note/repository"
	noteService "smartpen/internal/note/service"
	userRepo "smartpen/internal/user/repository"
	userService "smartpen/internal/user/service"
	"smartpen/pkg/logger"
	"smartpen/router"
	"smartpen/socket"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	stores, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())

	hub := socket.NewHub()
	go hub.Run(ctx)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)
	handler := router.Setup(router.Services{
		Users:    userService.NewUserService(userRepo.NewUserRepository(stores.Users), tokens),
		Notes:    noteService.NewNoteService(noteRepo.NewNoteRepository(stores.Notes), hub),
		Sessions: bluetoothService.NewSessionService(bluetoothRepo.NewSessionRepository(stores.Sessions)),
	}, router.Options{
		Tokens:      tokens,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("smartpen listening on %s (store: %s)", cfg.HTTPAddr, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them when ctx is cancelled.
	return srv.Shutdown(shutdownCtx)
}
