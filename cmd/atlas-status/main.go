// Command atlas-status checks that the billing vendor is reachable with the
// configured API key and prints the raw status response.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	atlasclient "github.com/smallbiznis/creditgate/internal/atlas/client"
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	"github.com/smallbiznis/creditgate/internal/observability"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var client *atlasclient.Client
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func(cfg config.Config, log *zap.Logger, clk clock.Clock) (*atlasclient.Client, error) {
			return atlasclient.New(cfg.Atlas, log, clk)
		}),
		fx.Populate(&client),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("atlas", client.BaseURL(), "key", obslogger.MaskAPIKey(client.APIKey()))
	fmt.Println("status", status.StatusCode)
	fmt.Println(string(status.Body))
}
