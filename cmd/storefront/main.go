package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"product-catalog/config"
	"product-catalog/internal/cart"
	"product-catalog/internal/catalog"
	"product-catalog/internal/client"
	"product-catalog/internal/redisclient"
	"product-catalog/internal/util"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Browse the product catalog and manage a cart",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(uploadCmd)
}

// app holds what a command needs once config is loaded.
type app struct {
	cfg     *config.Config
	api     *client.Client
	catalog *catalog.Store
	redis   *redisclient.Client
}

// boot loads config and builds the API client and catalog store.
func boot() (*app, error) {
	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		return nil, err
	}

	api := client.New(cfg.Client.APIURL, cfg.Client.Timeout)
	return &app{
		cfg:     cfg,
		api:     api,
		catalog: catalog.NewStore(api),
	}, nil
}

// openCart connects to Redis and restores the persisted cart.
func (a *app) openCart(ctx context.Context) (*cart.Cart, error) {
	rc, err := redisclient.NewClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("cart storage unavailable: %w", err)
	}
	a.redis = rc
	return cart.Open(ctx, cart.NewRedisStorage(rc, a.cfg.Client.CartRedisKey))
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	util.SyncLogger()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
