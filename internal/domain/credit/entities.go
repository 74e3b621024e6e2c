package credit

import (
	"errors"
	"fmt"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

var ErrLimitExceeded = errors.New("amount exceeds borrow limit")

// DefaultPenalty is how many successful repayments one default cancels.
const DefaultPenalty = 5

type Tier int

const (
	TierNew Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

var tierNames = [...]string{"NEW", "BRONZE", "SILVER", "GOLD", "PLATINUM"}

func (t Tier) String() string {
	if t < TierNew || t > TierPlatinum {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// TierFor maps effective repayments onto a tier:
// 0 NEW, 1-5 BRONZE, 6-20 SILVER, 21-50 GOLD, 51+ PLATINUM.
func TierFor(effective uint64) Tier {
	switch {
	case effective >= 51:
		return TierPlatinum
	case effective >= 21:
		return TierGold
	case effective >= 6:
		return TierSilver
	case effective >= 1:
		return TierBronze
	default:
		return TierNew
	}
}

// Table holds the borrow ceiling for each tier in the asset's minor unit.
type Table [TierPlatinum + 1]fixed.Int

// DefaultTable is $10 / $50 / $200 / $500 / $1000 for a 6-decimal asset.
func DefaultTable() Table {
	return Table{
		fixed.New(10_000000),
		fixed.New(50_000000),
		fixed.New(200_000000),
		fixed.New(500_000000),
		fixed.New(1000_000000),
	}
}

func (t Table) Limit(tier Tier) fixed.Int {
	if tier < TierNew {
		return t[TierNew]
	}
	if tier > TierPlatinum {
		return t[TierPlatinum]
	}
	return t[tier]
}

// Validate requires ceilings to be non-decreasing with tier.
func (t Table) Validate() error {
	for i := 1; i < len(t); i++ {
		if t[i].Lt(t[i-1]) {
			return fmt.Errorf("tier %s ceiling %s below %s ceiling %s", Tier(i), t[i], Tier(i-1), t[i-1])
		}
	}
	return nil
}

// Table: credit_profiles
type Profile struct {
	ID                   uint64    `gorm:"primaryKey;column:id" json:"-"`
	BotID                string    `gorm:"column:bot_id;size:32;not null;uniqueIndex:ux_credit_profiles_bot_id" json:"bot_id"`
	TotalLoans           uint64    `gorm:"column:total_loans;not null" json:"total_loans"`
	SuccessfulRepayments uint64    `gorm:"column:successful_repayments;not null" json:"successful_repayments"`
	Defaults             uint64    `gorm:"column:defaults;not null" json:"defaults"`
	CurrentStreak        uint64    `gorm:"column:current_streak;not null" json:"current_streak"`
	LongestStreak        uint64    `gorm:"column:longest_streak;not null" json:"longest_streak"`
	Tier                 Tier      `gorm:"column:tier;not null" json:"tier"`
	Score                int64     `gorm:"column:score;not null;index" json:"score"`
	TotalBorrowed        fixed.Int `gorm:"column:total_borrowed;type:varchar(80);not null" json:"total_borrowed"`
	TotalRepaid          fixed.Int `gorm:"column:total_repaid;type:varchar(80);not null" json:"total_repaid"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "credit_profiles" }

// NewProfile is the state of a borrower that never borrowed.
func NewProfile(botID string) *Profile {
	p := &Profile{BotID: botID}
	p.refresh()
	return p
}

// Effective is successful repayments minus the default penalty, floored at 0.
func (p *Profile) Effective() uint64 {
	penalty := p.Defaults * DefaultPenalty
	if penalty >= p.SuccessfulRepayments {
		return 0
	}
	return p.SuccessfulRepayments - penalty
}

func (p *Profile) RecordLoanOpened(amount fixed.Int) {
	p.TotalLoans++
	p.TotalBorrowed = p.TotalBorrowed.Add(amount)
}

// RecordRepayment closes one loan in the profile's history. A late
// repayment or a default resets the streak and may demote the tier.
func (p *Profile) RecordRepayment(onTime bool, repaid fixed.Int) {
	p.TotalRepaid = p.TotalRepaid.Add(repaid)
	if onTime {
		p.SuccessfulRepayments++
		p.CurrentStreak++
		if p.CurrentStreak > p.LongestStreak {
			p.LongestStreak = p.CurrentStreak
		}
	} else {
		p.Defaults++
		p.CurrentStreak = 0
	}
	p.refresh()
}

func (p *Profile) refresh() {
	p.Tier = TierFor(p.Effective())
	p.Score = ComputeScore(p.SuccessfulRepayments, p.CurrentStreak, p.Defaults)
}

const (
	scoreBase = 500
	scoreMax  = 1000
)

// ComputeScore is clamp(500 + 10*successful + 5*streak - 100*defaults, 0, 1000).
func ComputeScore(successful, streak, defaults uint64) int64 {
	s := int64(scoreBase) + 10*int64(successful) + 5*int64(streak) - 100*int64(defaults)
	if s < 0 {
		return 0
	}
	if s > scoreMax {
		return scoreMax
	}
	return s
}
