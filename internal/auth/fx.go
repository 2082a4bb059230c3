package auth

import (
	"github.com/smallbiznis/creditgate/internal/auth/service"
	"github.com/smallbiznis/creditgate/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
