/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zenvest/ledger"
	"github.com/zenvest/ledger/config"
	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/database/memory"
	redlock "github.com/zenvest/ledger/internal/lock"
	"github.com/zenvest/ledger/internal/notification"
	redis_db "github.com/zenvest/ledger/internal/redis-db"
)

const lockPrefix = "zenvest:lock:account:"

// Zenvest represents the CLI application, encapsulating the root Cobra command.
type Zenvest struct {
	cmd *cobra.Command
}

// ledgerInstance holds what preRun built for the subcommands.
type ledgerInstance struct {
	ledger  *ledger.Ledger
	cnf     *config.Configuration
	closers []func() error
}

func (app *ledgerInstance) close() {
	for _, c := range app.closers {
		if err := c(); err != nil {
			logrus.Error(err)
		}
	}
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the ledger before any command runs.
func preRun(app *ledgerInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config ", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		if err := setupLedger(cmd.Context(), app, cnf); err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}
		app.cnf = cnf
		return nil
	}
}

// setupLedger picks the datasource, the lock manager and the webhook notifier
// from the configuration.
func setupLedger(ctx context.Context, app *ledgerInstance, cfg *config.Configuration) error {
	var db database.IDataSource
	if cfg.UsesMemoryStore() {
		db = memory.NewStore(memory.WithPageSize(cfg.Ledger.PageSize))
	} else {
		ds, err := database.NewDataSource(cfg)
		if err != nil {
			return fmt.Errorf("error getting datasource: %v", err)
		}
		db = ds
	}

	opts := []ledger.Option{ledger.WithMaxRetries(cfg.Ledger.MaxRetries)}

	if cfg.Redis.Dns != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		rdb, err := redis_db.NewRedisClient(ctx, []string{cfg.Redis.Dns})
		if err != nil {
			return fmt.Errorf("error connecting to redis: %v", err)
		}
		app.closers = append(app.closers, rdb.Close)
		opts = append(opts, ledger.WithLockManager(
			redlock.NewRedisManager(rdb.Client(), lockPrefix, cfg.Ledger.LockTTL, cfg.Ledger.LockWaitTimeout)))
	} else {
		opts = append(opts, ledger.WithLockManager(redlock.NewLocalManager(cfg.Ledger.LockWaitTimeout)))
	}

	if cfg.Notification.Webhook.Url != "" {
		queue, err := ledger.NewWebhookQueue(cfg.Redis.Dns)
		if err != nil {
			return fmt.Errorf("error creating webhook queue: %v", err)
		}
		app.closers = append(app.closers, queue.Close)
		opts = append(opts, ledger.WithNotifier(queue))
	}

	app.ledger = ledger.NewLedger(db, opts...)
	return nil
}

func NewCLI() *Zenvest {
	var configFile string
	app := &ledgerInstance{}

	var rootCmd = &cobra.Command{
		Use:   "zenvest",
		Short: "Account ledger",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./zenvest.json", "Configuration file for the ledger")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		app.close()
	}

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(configCommands())

	return &Zenvest{cmd: rootCmd}
}

func (z Zenvest) executeCLI() {
	if err := z.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
