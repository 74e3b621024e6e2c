package mysql

import (
	"context"
	"time"

	loanDomain "github.com/andreolf/clawloan/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetActiveByBotID(ctx context.Context, poolID, botID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("pool_id = ? AND bot_id = ? AND status = ?", poolID, botID, loanDomain.StatusActive).
		Order("start_time DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) ListByBotID(ctx context.Context, poolID, botID string, limit int) ([]loanDomain.Loan, error) {
	return r.list(r.db.WithContext(ctx).Where("pool_id = ? AND bot_id = ?", poolID, botID), limit)
}

func (r *LoanRepository) ListAll(ctx context.Context, poolID string, limit int) ([]loanDomain.Loan, error) {
	return r.list(r.db.WithContext(ctx).Where("pool_id = ?", poolID), limit)
}

// list returns newest first; limit <= 0 means no limit.
func (r *LoanRepository) list(q *gorm.DB, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	q = q.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	res := q.Find(&out)
	return out, res.Error
}

func (r *LoanRepository) ListOverdue(ctx context.Context, poolID string, now time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("pool_id = ? AND status = ? AND due_time <= ?", poolID, loanDomain.StatusActive, now.UTC()).
		Order("due_time ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CountActive(ctx context.Context, poolID string) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("pool_id = ? AND status = ?", poolID, loanDomain.StatusActive).
		Count(&n)
	return n, res.Error
}
