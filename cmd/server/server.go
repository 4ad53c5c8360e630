package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DomeLiquid/paylink/cmd"
	"github.com/DomeLiquid/paylink/handler"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the payment link HTTP API.",
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := cmd.Cfg
		log := cmd.Logger()

		s, err := cmd.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if migrateOnStart {
			if err := s.Migrate(ctx); err != nil {
				return errors.Wrap(err, "migrate")
			}
		}

		ledger, err := cmd.NewLedger(s, log)
		if err != nil {
			return err
		}
		guard, err := cmd.NewOperatorGuard(ledger.Fees())
		if err != nil {
			return err
		}

		opts := []handler.OptFunc{handler.WithPinger(s), handler.WithLog(log)}
		if guard != nil {
			opts = append(opts, handler.WithOperatorGuard(guard))
		}
		if cfg.Auth.JWTSecret != "" {
			auth, err := handler.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			opts = append(opts, handler.WithAuth(auth))
		} else {
			log.Warn().Msg("auth.jwt_secret not set, admin routes disabled")
		}

		router := gin.Default()
		handler.New(ledger, opts...).RegisterRoutes(router)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Str("baseUrl", cfg.Server.BaseURL).Msg("http server listening")
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

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	ServeCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run database migrations before serving")
	cmd.RootCmd.AddCommand(ServeCmd)
}
