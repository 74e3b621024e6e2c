package mysql

import (
	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"

	"gorm.io/gorm"
)

// Models lists every table owned by the engine.
func Models() []any {
	return []any{
		&pool.Pool{},
		&pool.Position{},
		&loan.Loan{},
		&credit.Profile{},
		&bot.Bot{},
		&bot.Permission{},
		&activity.Event{},
	}
}

// Migrate creates or updates the schema. The column types are portable
// across MySQL and SQLite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
