package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		result, err := Apply(conn)
		if err != nil {
			return err
		}
		log.Info("dice roll schema ready",
			zap.String("dialect", conn.Dialector.Name()),
			zap.Bool("versioned", result.Versioned),
			zap.Uint("version", result.Version),
			zap.Bool("dirty", result.Dirty),
		)
		return nil
	}),
)
