package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/preetidudam/EDI-Project/announce"
	"github.com/preetidudam/EDI-Project/cmd/flags"
	"github.com/preetidudam/EDI-Project/common"
	"github.com/preetidudam/EDI-Project/httpserver"
	"github.com/preetidudam/EDI-Project/metrics"
)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the device registry session API",
		Flags: append(append(append([]cli.Flag{}, flags.RegistryFlags...), flags.CommonFlags...), flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			cfg, err := flags.LoadConfig(cCtx)
			if err != nil {
				return err
			}
			logger := flags.SetupLogger(cCtx, cfg, os.Stdout)
			serverCfg := flags.ConfigureServer(cCtx, cfg, logger)

			audit, err := flags.SetupAuditLogger(cfg)
			if err != nil {
				logger.Error("Failed to create audit logger", "err", err)
				return err
			}
			defer audit.Sync() //nolint:errcheck

			if !cfg.ContractConfigured() {
				logger.Warn("Registry contract address not configured, connecting will fail",
					"env", "REGISTRY_CONTRACT_ADDRESS")
			}

			backend, err := flags.OpenBackend(cfg, logger)
			if err != nil {
				logger.Error("Failed to open backend", "err", err)
				return err
			}
			defer backend.Close()

			metricsSrv, err := metrics.New(common.PackageName, serverCfg.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}

			manager := backend.NewManager(cfg, logger, metricsSrv.Recorder())
			defer manager.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if cfg.MQTT.Enabled {
				announcer, err := announce.Dial(cfg.MQTT, logger)
				if err != nil {
					logger.Error("Failed to connect to MQTT broker", "err", err, "broker", cfg.MQTT.Broker)
					return err
				}
				defer announcer.Close()
				go announcer.Run(ctx, manager)
				logger.Info("Announcing registrations over MQTT", "broker", cfg.MQTT.Broker, "prefix", cfg.MQTT.TopicPrefix)
			}

			handler := httpserver.NewHandler(manager, logger, audit)
			server, err := httpserver.New(serverCfg, handler, metricsSrv)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
