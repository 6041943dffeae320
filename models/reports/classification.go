package reports

import (
	"strings"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shopspring/decimal"
)

// normalized modes
const (
	modeCash   = "cash"
	modeBank   = "bank"
	modeCredit = "credit"
)

// normalized types
const (
	typeSales    = "sales"
	typeReceipt  = "receipt"
	typeIncome   = "income"
	typePurchase = "purchase"
	typePayment  = "payment"
	typeExpense  = "expense"
	typeDrawing  = "drawing"
)

var modePrefixes = []struct{ prefix, mode string }{
	{"cas", modeCash},
	{"ban", modeBank},
	{"cre", modeCredit},
}

var typePrefixes = []struct{ prefix, typ string }{
	{"sal", typeSales},
	{"rec", typeReceipt},
	{"inc", typeIncome},
	{"pur", typePurchase},
	{"pay", typePayment},
	{"exp", typeExpense},
}

// NormalizeMode maps free-form payment mode text onto cash, bank or credit.
// Anything unrecognised passes through lowercased.
func NormalizeMode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range modePrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.mode
		}
	}
	return s
}

// NormalizeType maps free-form transaction type text onto the canonical lowercase types.
func NormalizeType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range typePrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.typ
		}
	}
	return s
}

func isInType(t string) bool {
	return t == typeSales || t == typeReceipt || t == typeIncome
}

func isOutType(t string) bool {
	return t == typePurchase || t == typeExpense || t == typePayment || t == typeDrawing
}

func normalizePartyType(raw models.PartyType) string {
	return strings.ToLower(strings.TrimSpace(string(raw)))
}

func isCustomerParty(raw models.PartyType) bool {
	p := normalizePartyType(raw)
	return p == "customer" || p == "both"
}

func isSupplierParty(raw models.PartyType) bool {
	p := normalizePartyType(raw)
	return p == "supplier" || p == "both"
}

// classified is one transaction reduced to the values every block reads.
type classified struct {
	txn  *models.Transaction
	typ  string
	mode string
	in   decimal.Decimal
	out  decimal.Decimal
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}

func classify(t *models.Transaction) classified {
	c := classified{
		txn:  t,
		typ:  NormalizeType(string(t.Type)),
		mode: NormalizeMode(string(t.Mode)),
	}
	c.in, c.out = effectiveFlow(t, c.typ)
	return c
}

// effectiveFlow keeps the stored pair when either side is set. Rows with both
// sides empty fall back to total_amount on the side implied by the type.
func effectiveFlow(t *models.Transaction, normalizedType string) (decimal.Decimal, decimal.Decimal) {
	in, out := positive(t.AmountIn), positive(t.AmountOut)
	if in.IsPositive() || out.IsPositive() {
		return in, out
	}
	total := positive(t.TotalAmount)
	switch {
	case isInType(normalizedType):
		return total, decimal.Zero
	case isOutType(normalizedType):
		return decimal.Zero, total
	}
	return decimal.Zero, decimal.Zero
}

// EffectiveFlow returns the (in, out) pair the aggregator uses for t.
func EffectiveFlow(t *models.Transaction) (decimal.Decimal, decimal.Decimal) {
	return effectiveFlow(t, NormalizeType(string(t.Type)))
}

func (c classified) outgoing() decimal.Decimal {
	if c.out.IsPositive() {
		return c.out
	}
	return c.in
}

func (c classified) isInflow() bool {
	return isInType(c.typ) && c.in.IsPositive()
}

func (c classified) isExpenseIncurred() bool {
	switch c.typ {
	case typePurchase, typePayment, typeExpense:
		return c.outgoing().IsPositive()
	}
	return false
}

func (c classified) isCreditRecovery() bool {
	return c.typ == typeReceipt && isCustomerParty(c.txn.PartyType) && c.in.IsPositive()
}

func (c classified) isSupplierLiability() bool {
	return isSupplierParty(c.txn.PartyType) &&
		(c.typ == typePurchase || c.typ == typeExpense) &&
		c.mode == modeCredit &&
		c.outgoing().IsPositive()
}

func (c classified) isSupplierPayment() bool {
	return isSupplierParty(c.txn.PartyType) && c.typ == typePayment && c.outgoing().IsPositive()
}

func (c classified) supplierKey() string {
	if name := strings.TrimSpace(c.txn.PartyName); name != "" {
		return name
	}
	if desc := strings.TrimSpace(c.txn.Description); desc != "" {
		return desc
	}
	return "Supplier"
}

func (c classified) expenseGroup() string {
	if cat := strings.TrimSpace(c.txn.Category); cat != "" {
		return cat
	}
	if desc := strings.TrimSpace(c.txn.Description); desc != "" {
		return desc
	}
	return "Expense"
}
