package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/creditgate/internal/atlas"
	"github.com/smallbiznis/creditgate/internal/auth"
	"github.com/smallbiznis/creditgate/internal/cache"
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	"github.com/smallbiznis/creditgate/internal/entitlement"
	"github.com/smallbiznis/creditgate/internal/migration"
	"github.com/smallbiznis/creditgate/internal/observability"
	"github.com/smallbiznis/creditgate/internal/ratelimit"
	"github.com/smallbiznis/creditgate/internal/server"
	"github.com/smallbiznis/creditgate/internal/usage"
	"github.com/smallbiznis/creditgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,

		// Functional Domains
		atlas.Module,
		entitlement.Module,
		usage.Module,
		auth.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
