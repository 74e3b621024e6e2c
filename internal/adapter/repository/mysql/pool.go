package mysql

import (
	"context"

	poolDomain "github.com/andreolf/clawloan/internal/domain/pool"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PoolRepository struct{ db *gorm.DB }

func NewPoolRepository(db *gorm.DB) *PoolRepository { return &PoolRepository{db: db} }

func (r *PoolRepository) Create(ctx context.Context, p *poolDomain.Pool) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PoolRepository) Save(ctx context.Context, p *poolDomain.Pool) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PoolRepository) GetByPoolID(ctx context.Context, poolID string) (*poolDomain.Pool, error) {
	var out poolDomain.Pool
	res := r.db.WithContext(ctx).Where("pool_id = ?", poolID).First(&out)
	return &out, res.Error
}

// GetByPoolIDForUpdate takes a row lock (SELECT ... FOR UPDATE on MySQL;
// SQLite serializes writers on its own and ignores the clause).
func (r *PoolRepository) GetByPoolIDForUpdate(ctx context.Context, poolID string) (*poolDomain.Pool, error) {
	var out poolDomain.Pool
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pool_id = ?", poolID).
		First(&out)
	return &out, res.Error
}

type PositionRepository struct{ db *gorm.DB }

func NewPositionRepository(db *gorm.DB) *PositionRepository { return &PositionRepository{db: db} }

func (r *PositionRepository) Get(ctx context.Context, poolID, lenderID string) (*poolDomain.Position, error) {
	var out poolDomain.Position
	res := r.db.WithContext(ctx).
		Where("pool_id = ? AND lender_id = ?", poolID, lenderID).
		First(&out)
	return &out, res.Error
}

// Save inserts on first deposit and updates afterwards.
func (r *PositionRepository) Save(ctx context.Context, pos *poolDomain.Position) error {
	return r.db.WithContext(ctx).Save(pos).Error
}

func (r *PositionRepository) ListByPool(ctx context.Context, poolID string) ([]poolDomain.Position, error) {
	var out []poolDomain.Position
	res := r.db.WithContext(ctx).Where("pool_id = ?", poolID).Order("id ASC").Find(&out)
	return out, res.Error
}
