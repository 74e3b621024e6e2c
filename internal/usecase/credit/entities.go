package credit

import "github.com/andreolf/clawloan/pkg/fixed"

type Limits struct {
	Tier       fixed.Int `json:"tier"`
	Permission fixed.Int `json:"permission"`
	// Effective is the lesser of the two and what a borrow is checked against.
	Effective fixed.Int `json:"effective"`
}

type ProfileView struct {
	BotID                string    `json:"bot_id"`
	Tier                 string    `json:"tier"`
	Score                int64     `json:"score"`
	Limits               Limits    `json:"limits"`
	TotalLoans           uint64    `json:"total_loans"`
	SuccessfulRepayments uint64    `json:"successful_repayments"`
	EffectiveRepayments  uint64    `json:"effective_repayments"`
	Defaults             uint64    `json:"defaults"`
	CurrentStreak        uint64    `json:"current_streak"`
	LongestStreak        uint64    `json:"longest_streak"`
	TotalBorrowed        fixed.Int `json:"total_borrowed"`
	TotalRepaid          fixed.Int `json:"total_repaid"`
}

type LeaderboardEntry struct {
	Rank                 int    `json:"rank"`
	BotID                string `json:"bot_id"`
	Tier                 string `json:"tier"`
	Score                int64  `json:"score"`
	SuccessfulRepayments uint64 `json:"successful_repayments"`
	Defaults             uint64 `json:"defaults"`
	LongestStreak        uint64 `json:"longest_streak"`
}
