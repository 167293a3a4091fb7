package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/preetidudam/EDI-Project/api/clients"
	"github.com/preetidudam/EDI-Project/cmd/flags"
	"github.com/preetidudam/EDI-Project/config"
	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/identity"
	"github.com/preetidudam/EDI-Project/session"
)

var flagOwner = &cli.StringFlag{
	Name:     "owner",
	Required: true,
	Usage:    "owner address, 0x-prefixed 40-char hex",
}

var flagName = &cli.StringFlag{
	Name:     "name",
	Required: true,
	Usage:    "device name",
}

var flagDeviceID = &cli.StringFlag{
	Name:     "id",
	Required: true,
	Usage:    "device id, 0x-prefixed 64-char hex",
}

var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 2 * time.Minute,
	Usage: "give up waiting for the wallet or the ledger after this long",
}

var flagServer = &cli.StringFlag{
	Name:    "server",
	EnvVars: []string{"REGISTRY_SERVER"},
	Usage:   "session API base URL; when set, commands go through the server instead of a local wallet",
}

func main() {
	app := &cli.App{
		Name:  "devicectl",
		Usage: "Register and look up devices in the on-chain device registry",
		Flags: append(append([]cli.Flag{flagTimeout, flagServer}, flags.RegistryFlags...), flags.CommonFlags...),
		Commands: []*cli.Command{
			{
				Name:  "derive",
				Usage: "Print the device id a registration of name by owner produces",
				Flags: []cli.Flag{flagOwner, flagName},
				Action: func(cCtx *cli.Context) error {
					id, ok := identity.DeriveFromHex(cCtx.String(flagOwner.Name), cCtx.String(flagName.Name))
					if !ok {
						return fmt.Errorf("owner must be a non-zero address and name must not be empty")
					}
					return printJSON(map[string]string{
						"owner":    cCtx.String(flagOwner.Name),
						"name":     cCtx.String(flagName.Name),
						"deviceId": id.Hex(),
						"scheme":   identity.SchemeV1,
					})
				},
			},
			{
				Name:  "accounts",
				Usage: "Request account access from the wallet and list the accounts",
				Action: func(cCtx *cli.Context) error {
					if client, ok := remote(cCtx); ok {
						return withTimeout(cCtx, func(ctx context.Context) error {
							resp, err := client.Connect(ctx)
							if err != nil {
								return err
							}
							return printJSON(resp)
						})
					}
					return withBackend(cCtx, func(ctx context.Context, c *cliEnv) error {
						if c.backend.Provider == nil {
							return errclass.New(errclass.KindNoProviderAvailable)
						}
						accounts, err := c.backend.Provider.RequestAccounts(ctx)
						if err != nil {
							return errclass.ClassifyError(err)
						}
						return printJSON(accounts)
					})
				},
			},
			{
				Name:  "register",
				Usage: "Register a device under the primary wallet account",
				Flags: []cli.Flag{flagName},
				Action: func(cCtx *cli.Context) error {
					if client, ok := remote(cCtx); ok {
						return withRemoteSession(cCtx, client, func(ctx context.Context) error {
							reg, err := client.Register(ctx, cCtx.String(flagName.Name))
							if err != nil {
								return err
							}
							return printJSON(reg)
						})
					}
					return withSession(cCtx, func(ctx context.Context, m *session.Manager) error {
						reg, err := m.RegisterDevice(ctx, cCtx.String(flagName.Name))
						if err != nil {
							return err
						}
						return printJSON(reg)
					})
				},
			},
			{
				Name:  "device",
				Usage: "Show one device",
				Flags: []cli.Flag{flagDeviceID},
				Action: func(cCtx *cli.Context) error {
					if client, ok := remote(cCtx); ok {
						return withRemoteSession(cCtx, client, func(ctx context.Context) error {
							device, err := client.Device(ctx, cCtx.String(flagDeviceID.Name))
							if err != nil {
								return err
							}
							return printJSON(device)
						})
					}
					return withSession(cCtx, func(ctx context.Context, m *session.Manager) error {
						device, err := m.LookupDevice(ctx, cCtx.String(flagDeviceID.Name))
						if err != nil {
							return err
						}
						return printJSON(device)
					})
				},
			},
			{
				Name:  "devices",
				Usage: "List the devices owned by the primary wallet account",
				Action: func(cCtx *cli.Context) error {
					if client, ok := remote(cCtx); ok {
						return withRemoteSession(cCtx, client, func(ctx context.Context) error {
							listing, err := client.Devices(ctx)
							if err != nil {
								return err
							}
							return printJSON(listing)
						})
					}
					return withSession(cCtx, func(ctx context.Context, m *session.Manager) error {
						listing, err := m.LoadMyDevices(ctx)
						if err != nil {
							return err
						}
						return printJSON(listing)
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type cliEnv struct {
	cfg     *config.Config
	backend *flags.Backend
	log     *slog.Logger
}

func withBackend(cCtx *cli.Context, fn func(context.Context, *cliEnv) error) error {
	cfg, err := flags.LoadConfig(cCtx)
	if err != nil {
		return err
	}
	// logs go to stderr so stdout stays valid JSON
	logger := flags.SetupLogger(cCtx, cfg, os.Stderr).With("cmd", cCtx.Command.Name)

	backend, err := flags.OpenBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
	defer cancel()
	return fn(ctx, &cliEnv{cfg: cfg, backend: backend, log: logger})
}

func withSession(cCtx *cli.Context, fn func(context.Context, *session.Manager) error) error {
	return withBackend(cCtx, func(ctx context.Context, c *cliEnv) error {
		m := c.backend.NewManager(c.cfg, c.log, nil)
		defer m.Close()

		if _, err := m.Connect(ctx); err != nil {
			return err
		}
		return fn(ctx, m)
	})
}

func remote(cCtx *cli.Context) (*clients.SessionClient, bool) {
	addr := cCtx.String(flagServer.Name)
	if addr == "" {
		return nil, false
	}
	return &clients.SessionClient{ServerAddr: addr}, true
}

func withTimeout(cCtx *cli.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
	defer cancel()
	return fn(ctx)
}

func withRemoteSession(cCtx *cli.Context, client *clients.SessionClient, fn func(context.Context) error) error {
	return withTimeout(cCtx, func(ctx context.Context) error {
		if _, err := client.EnsureConnected(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
