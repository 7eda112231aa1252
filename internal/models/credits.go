package models

// CreditSummary aggregates a transaction history for display.
type CreditSummary struct {
	Balance   int64
	Spent     int64
	Purchased int64
	Bonus     int64
}

// SummarizeCredits folds a transaction list into display totals. Spent is
// reported as a positive magnitude.
func SummarizeCredits(transactions []CreditTransaction) CreditSummary {
	var summary CreditSummary
	for _, tx := range transactions {
		summary.Balance += tx.Amount
		switch tx.Type {
		case CreditUsage:
			summary.Spent -= tx.Amount
		case CreditPurchase:
			summary.Purchased += tx.Amount
		case CreditBonus:
			summary.Bonus += tx.Amount
		}
	}
	if summary.Spent < 0 {
		summary.Spent = 0
	}
	return summary
}
