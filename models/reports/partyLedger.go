package reports

import (
	"strings"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shopspring/decimal"
)

type PartyLedgerSummary struct {
	CreditGiven decimal.Decimal `json:"creditGiven"`
	Settled     decimal.Decimal `json:"settled"`
	Pending     decimal.Decimal `json:"pending"`
	Count       int             `json:"count"`
}

// FilterByParty keeps rows whose party_id is partyId (when non-zero) or whose
// party_name equals partyName ignoring case. Older rows often carry only the name.
func FilterByParty(txns []*models.Transaction, partyId int, partyName string) []*models.Transaction {
	name := strings.ToLower(strings.TrimSpace(partyName))
	results := make([]*models.Transaction, 0)
	for _, t := range txns {
		if t == nil {
			continue
		}
		if partyId != 0 && t.PartyId == partyId {
			results = append(results, t)
			continue
		}
		if name != "" && strings.ToLower(strings.TrimSpace(t.PartyName)) == name {
			results = append(results, t)
		}
	}
	return results
}

// ledgerAmount is the first positive of amount_in, amount_out and total_amount.
func ledgerAmount(t *models.Transaction) decimal.Decimal {
	switch {
	case t.AmountIn.IsPositive():
		return t.AmountIn
	case t.AmountOut.IsPositive():
		return t.AmountOut
	}
	return positive(t.TotalAmount)
}

// SummarizePartyLedger totals credit extended and settled for one party.
// Both is summarised as its customer and supplier sides added together.
// Pending is not clamped; a negative value means overpayment.
func SummarizePartyLedger(txns []*models.Transaction, partyType models.PartyType) PartyLedgerSummary {
	asCustomer := isCustomerParty(partyType)
	asSupplier := isSupplierParty(partyType)
	if !asCustomer && !asSupplier {
		asCustomer = true
	}

	var s PartyLedgerSummary
	for _, t := range txns {
		if t == nil {
			continue
		}
		s.Count++
		typ := NormalizeType(string(t.Type))
		credit := NormalizeMode(string(t.Mode)) == modeCredit
		amount := ledgerAmount(t)
		if asCustomer {
			switch {
			case typ == typeSales && credit:
				s.CreditGiven = s.CreditGiven.Add(amount)
			case typ == typeReceipt:
				s.Settled = s.Settled.Add(amount)
			}
		}
		if asSupplier {
			switch {
			case (typ == typePurchase || typ == typeExpense) && credit:
				s.CreditGiven = s.CreditGiven.Add(amount)
			case typ == typePayment:
				s.Settled = s.Settled.Add(amount)
			}
		}
	}
	s.Pending = s.CreditGiven.Sub(s.Settled)
	return s
}
