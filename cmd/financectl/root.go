package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schoolku_finance/internals/configs"
	database "schoolku_finance/internals/databases"
	"schoolku_finance/internals/features/finance"
)

var (
	flagDriver   string
	flagOperator string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:           "financectl",
	Short:         "Schoolku finance admin CLI",
	Long:          "Jalankan migrasi, seed, rekonsiliasi, reset, dan cek saldo langsung ke document store.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "Store driver override (postgres|memory)")
	rootCmd.PersistentFlags().StringVar(&flagOperator, "operator", "system:cli", "Operator id dicatat di audit log")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output JSON")

	rootCmd.AddCommand(migrateCmd, seedCmd, reconcileCmd, resetCmd, balanceCmd)
}

// env: konfigurasi + logger + services yang dipakai semua subcommand.
type env struct {
	cfg    configs.FinanceConfig
	logger *zap.Logger
	svc    *finance.Services
}

func (e *env) Close() {
	_ = e.svc.Store.Close()
	_ = e.logger.Sync()
}

func loadEnv() (*env, error) {
	configs.LoadEnv()
	cfg := configs.Load()
	if flagDriver != "" {
		cfg.StoreDriver = flagDriver
	}

	zl, err := configs.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := database.OpenStore(cfg, zl)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: zl,
		svc:    finance.NewServices(store, zl, finance.Options{ReceiptPrefix: cfg.ReceiptPrefix}),
	}, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
