package entitlement

import (
	"github.com/smallbiznis/creditgate/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(service.New),
)
