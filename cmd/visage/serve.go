package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pthm/visage"
	"github.com/pthm/visage/internal/authclient"
	"github.com/pthm/visage/internal/cli"
	"github.com/pthm/visage/internal/server"
)

var (
	serveDB   string
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the user directory HTTP service",
	Long: `Run the user directory HTTP service.

Reads are issued against the replica when database.replica_url is configured,
falling back to the primary otherwise. The service refuses to start without a
reachable primary.`,
	Example: `  # Run with config file settings
  visage serve

  # Override the listen port
  visage serve --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(serveDB)
		if err != nil {
			return err
		}

		srvCfg := server.Config{
			Host:          resolveString(serveHost, cfg.Server.Host),
			Port:          cfg.Server.Port,
			ReadTimeout:   cfg.Server.ReadTimeout,
			WriteTimeout:  cfg.Server.WriteTimeout,
			HealthTimeout: cfg.Server.HealthTimeout,
			SlowThreshold: cfg.Auth.SlowThreshold,
		}
		if servePort != 0 {
			srvCfg.Port = servePort
		}

		return runServe(dsn, srvCfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveDB, "db", "", "database URL")
	f.StringVar(&serveHost, "host", "", "listen host")
	f.IntVar(&servePort, "port", 0, "listen port")
}

func runServe(dsn string, srvCfg server.Config) error {
	primary, err := openDB(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = primary.Close() }()

	// Reads go to the replica when one is configured.
	replica := primary
	var replicaHandle *sql.DB // nil tells the server there is no separate replica
	if replicaDSN := cfg.ReplicaDSN(); replicaDSN != "" {
		replicaHandle, err = openDB(replicaDSN)
		if err != nil {
			return err
		}
		defer func() { _ = replicaHandle.Close() }()
		replica = replicaHandle
	}

	dir, err := visage.NewDirectory(replica, visage.DefaultSchema())
	if err != nil {
		return cli.ConfigError("building directory", err)
	}

	var authOpts []authclient.Option
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		authOpts = append(authOpts, authclient.WithSessionCache(rdb, cfg.Redis.SessionTTL))
	}
	auth := authclient.New(authclient.Config{
		BaseURL:       cfg.Auth.URL,
		Timeout:       cfg.Auth.Timeout,
		SlowThreshold: cfg.Auth.SlowThreshold,
	}, authOpts...)

	srv := server.New(srvCfg, dir, auth, auth, primary, replicaHandle)
	app := srv.App()

	errCh := make(chan error, 1)
	go func() {
		if !quiet {
			log.Printf("[visage] listening on %s", srvCfg.Addr())
		}
		errCh <- app.Listen(srvCfg.Addr())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return cli.GeneralError("serving", err)
		}
		return nil
	case sig := <-stop:
		if !quiet {
			log.Printf("[visage] received %s, shutting down", sig)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		return cli.GeneralError("shutting down", err)
	}
	return nil
}

// redactDSN strips credentials from a connection URL for log output.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "database"
	}
	u.User = nil
	return u.Redacted()
}

// openDB opens a handle and verifies the database is reachable.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, cli.DBConnectError("opening database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError(fmt.Sprintf("pinging database %q", redactDSN(dsn)), err)
	}
	return db, nil
}
