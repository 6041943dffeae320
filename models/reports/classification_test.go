package reports

import (
	"testing"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shopspring/decimal"
)

func TestNormalizeMode(t *testing.T) {
	cases := map[string]string{
		"Cash":     "cash",
		" CASH ":   "cash",
		"cash-box": "cash",
		"Bank":     "bank",
		"bank tfr": "bank",
		"Credit":   "credit",
		"CREDIT":   "credit",
		"Cheque":   "cheque",
		"":         "",
	}
	for in, want := range cases {
		if got := NormalizeMode(in); got != want {
			t.Fatalf("NormalizeMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"Sales":     "sales",
		"sale":      "sales",
		"Receipt":   "receipt",
		"RECEIVED":  "receipt",
		"Income":    "income",
		"Purchase":  "purchase",
		"Payment":   "payment",
		"payout":    "payment",
		"Expense":   "expense",
		"Expenses ": "expense",
		"Drawing":   "drawing",
		" Refund ":  "refund",
	}
	for in, want := range cases {
		if got := NormalizeType(in); got != want {
			t.Fatalf("NormalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectiveFlow(t *testing.T) {
	cases := []struct {
		name    string
		txn     models.Transaction
		in, out string
	}{
		{"stored in", models.Transaction{Type: "Sales", AmountIn: dec("50"), TotalAmount: dec("99")}, "50", "0"},
		{"stored out", models.Transaction{Type: "Expense", AmountOut: dec("30")}, "0", "30"},
		{"legacy out on a sale is kept", models.Transaction{Type: "Sales", AmountOut: dec("20")}, "0", "20"},
		{"credit sale falls back in", models.Transaction{Type: "Sales", Mode: "Credit", TotalAmount: dec("300")}, "300", "0"},
		{"credit purchase falls back out", models.Transaction{Type: "purchase", Mode: "Credit", TotalAmount: dec("500")}, "0", "500"},
		{"drawing falls back out", models.Transaction{Type: "Drawing", TotalAmount: dec("10")}, "0", "10"},
		{"unknown type has no flow", models.Transaction{Type: "Refund", TotalAmount: dec("10")}, "0", "0"},
		{"negatives are ignored", models.Transaction{Type: "Income", AmountIn: dec("-5"), TotalAmount: dec("-5")}, "0", "0"},
	}
	for _, tc := range cases {
		in, out := EffectiveFlow(&tc.txn)
		if in.String() != tc.in || out.String() != tc.out {
			t.Fatalf("%s: got (%s, %s), want (%s, %s)", tc.name, in, out, tc.in, tc.out)
		}
	}
}

func TestPredicates(t *testing.T) {
	recovery := classify(&models.Transaction{Type: "Receipt", Mode: "Cash", PartyType: " both ", AmountIn: dec("10")})
	if !recovery.isCreditRecovery() || !recovery.isInflow() {
		t.Fatalf("receipt from Both should be an inflow and a credit recovery")
	}
	supplierReceipt := classify(&models.Transaction{Type: "Receipt", Mode: "Cash", PartyType: "Supplier", AmountIn: dec("10")})
	if supplierReceipt.isCreditRecovery() {
		t.Fatalf("receipt from a supplier is not a credit recovery")
	}

	creditPurchase := classify(&models.Transaction{Type: "Purchase", Mode: "credit", PartyType: "SUPPLIER", TotalAmount: dec("500")})
	if !creditPurchase.isSupplierLiability() || !creditPurchase.isExpenseIncurred() {
		t.Fatalf("credit purchase should create a liability and count as an expense")
	}
	cashPurchase := classify(&models.Transaction{Type: "Purchase", Mode: "Cash", PartyType: "Supplier", AmountOut: dec("500")})
	if cashPurchase.isSupplierLiability() {
		t.Fatalf("cash purchase creates no liability")
	}
	payment := classify(&models.Transaction{Type: "Payment", Mode: "Bank", PartyType: "Supplier", AmountIn: dec("200")})
	if !payment.isSupplierPayment() || payment.outgoing().String() != "200" {
		t.Fatalf("payment stored in amount_in should still count as paid")
	}
	drawing := classify(&models.Transaction{Type: "Drawing", Mode: "Cash", AmountOut: dec("40")})
	if drawing.isExpenseIncurred() {
		t.Fatalf("drawings are not expenses")
	}

	if k := classify(&models.Transaction{Description: "  "}).supplierKey(); k != "Supplier" {
		t.Fatalf("supplier key fallback = %q", k)
	}
	if k := classify(&models.Transaction{Description: "Fish market"}).supplierKey(); k != "Fish market" {
		t.Fatalf("supplier key description fallback = %q", k)
	}
	if g := classify(&models.Transaction{}).expenseGroup(); g != "Expense" {
		t.Fatalf("expense group fallback = %q", g)
	}
}
