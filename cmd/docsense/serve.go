package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docsense/internal/server"
)

const shutdownGrace = 15 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var httpAddr, grpcAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, false)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http") {
				a.cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("grpc") {
				a.cfg.Server.GRPCAddr = grpcAddr
			}
			sc := a.cfg.Server

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ready := func(ctx context.Context) error {
				_, err := a.loader.Registry(ctx)
				return err
			}
			httpSrv := &http.Server{
				Addr: sc.HTTPAddr,
				Handler: server.NewHTTPHandler(server.HTTPConfig{
					OutputDir:      a.cfg.Output.Dir,
					MaxUploadBytes: sc.MaxUploadBytes,
					RequestTimeout: sc.RequestTimeout,
				}, a.proc, ready, a.registry, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			grpcSrv, hs := server.NewGRPCServer(server.NewDocumentService(a.proc, sc.RequestTimeout, a.logger))
			lis, err := net.Listen("tcp", sc.GRPCAddr)
			if err != nil {
				return err
			}

			// Warm the models so the first request does not pay for loading.
			go func() {
				if err := ready(ctx); err != nil {
					a.logger.Error("models.warmup.failed", "err", err)
					hs.SetServingStatus(server.DocumentServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
					return
				}
				a.logger.Info("models ready")
			}()

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				a.logger.Info("http serving", "addr", sc.HTTPAddr)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				a.logger.Info("grpc serving", "addr", sc.GRPCAddr)
				return grpcSrv.Serve(lis)
			})
			eg.Go(func() error {
				<-egCtx.Done()
				a.logger.Info("shutting down...")
				hs.Shutdown()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
				defer cancel()
				err := httpSrv.Shutdown(shutdownCtx)
				grpcSrv.GracefulStop()
				return err
			})
			if err := eg.Wait(); err != nil {
				return err
			}
			a.logger.Info("stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", ":8000", "HTTP listen address (HTTP_ADDR)")
	cmd.Flags().StringVar(&grpcAddr, "grpc", ":9090", "gRPC listen address (GRPC_ADDR)")
	return cmd
}
