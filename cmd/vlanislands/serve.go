package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"vlanislands/internal/handler"
	"vlanislands/internal/hub"
	"vlanislands/internal/mcp"
	"vlanislands/internal/metrics"
	"vlanislands/internal/service"
)

var (
	serveAddr     string
	serveMCPToken string
	serveNoAsk    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, MCP endpoint, metrics and event stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		logger.Info("database opened", "path", cfg.Database.Path)

		reg := metrics.DefaultRegistry()
		eventBus := service.NewEventBus()

		sseHub := hub.New(logger)
		go sseHub.Run(ctx)
		go sseHub.Forward(ctx, eventBus)

		analysis, err := newAnalysisService(repo, eventBus, reg)
		if err != nil {
			return err
		}

		var ask *service.AssistantService
		if !serveNoAsk {
			bridge, err := newBridge()
			if err != nil {
				return err
			}
			if cfg.APIKey() == "" {
				logger.Warn("no assistant API key set; ask requests will fail", "env", cfg.Assistant.APIKeyEnv)
			}
			ask = service.NewAssistantService(bridge, analysis, eventBus, reg, logger)
		}

		mux := http.NewServeMux()
		handler.NewHandler(analysis, ask, logger).RegisterRoutes(mux)
		mcpServer := mcp.NewServer(analysis, ask, serveMCPToken, logger)
		mux.HandleFunc("POST /mcp", mcpServer.HandleRequest)
		mux.Handle("GET /events", sseHub)
		mux.Handle("GET /metrics", reg.Handler())

		server := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: handler.Chain(mux,
				handler.Recover,
				handler.Metrics(reg),
				handler.CORS,
				handler.Logger,
			),
			ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
			WriteTimeout: cfg.Server.WriteTimeout.Duration(),
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.Server.Addr, "policy", analysis.Policy().Name)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveMCPToken, "mcp-token", "", "bearer token required on /mcp")
	serveCmd.Flags().BoolVar(&serveNoAsk, "no-assistant", false, "disable the assistant endpoints")
	rootCmd.AddCommand(serveCmd)
}
