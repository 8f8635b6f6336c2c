package infra

import (
	"fmt"

	"gastropos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// over every model.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates or updates every table. Shared with the integration
// tests, which run it against their own throwaway databases.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Usuario{},
		&model.Producto{},
		&model.MovimientoStock{},
		&model.Pedido{},
		&model.PedidoLinea{},
		&model.PedidoEstado{},
		&model.Venta{},
		&model.VentaLinea{},
		&model.Mesa{},
		&model.Turno{},
		&model.TurnoOrden{},
		&model.Ingreso{},
		&model.IngresoLinea{},
		&model.Reemplazo{},
		&model.ReemplazoLinea{},
	)
}
