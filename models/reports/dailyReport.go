package reports

import (
	"sort"

	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shopspring/decimal"
)

const (
	StatusTextHealthy        = "HEALTHY"
	StatusTextActionRequired = "ACTION REQUIRED"

	NoteCashVariance       = "cash variance detected"
	NoteCreditSalesPending = "credit sales pending"
	NoteNewLiabilities     = "new liabilities created"
	NotePaymentsExceed     = "payments exceed new liabilities"
)

var (
	varianceTolerance  = decimal.New(1, -2)
	liabilityThreshold = decimal.New(1, -4)
)

// SessionInputs are the hand-entered figures the aggregator folds in.
type SessionInputs struct {
	SelectedDateLabel string          `json:"selectedDateLabel"`
	OpeningCash       decimal.Decimal `json:"openingCash"`
	OpeningBank       decimal.Decimal `json:"openingBank"`
	ActualCount       decimal.Decimal `json:"actualCount"`
	AnalystNotes      string          `json:"analystNotes"`
	IsSingleDay       bool            `json:"isSingleDay"`
}

// NewSessionInputs takes the opening balances from the first day's session
// and the drawer count and notes from the last day's. Either may be nil.
func NewSessionInputs(label string, opening *models.DailySession, closing *models.DailySession, isSingleDay bool) SessionInputs {
	in := SessionInputs{SelectedDateLabel: label, IsSingleDay: isSingleDay}
	if opening != nil {
		in.OpeningCash = opening.OpeningCash
		in.OpeningBank = opening.OpeningBank
	}
	if closing != nil {
		in.ActualCount = closing.ActualCashDrawer
		in.AnalystNotes = closing.AnalystNotes
	}
	return in
}

type ReportStatus struct {
	Healthy    bool   `json:"healthy"`
	StatusText string `json:"statusText"`
	StatusSub  string `json:"statusSub"`
}

type RevenueBlock struct {
	TotalGrossSales       decimal.Decimal `json:"totalGrossSales"`
	CashSales             decimal.Decimal `json:"cashSales"`
	BankSales             decimal.Decimal `json:"bankSales"`
	CreditSales           decimal.Decimal `json:"creditSales"`
	CreditRecoveryTotal   decimal.Decimal `json:"creditRecoveryTotal"`
	CreditRecoveryCash    decimal.Decimal `json:"creditRecoveryCash"`
	CreditRecoveryBank    decimal.Decimal `json:"creditRecoveryBank"`
	TotalIncome           decimal.Decimal `json:"totalIncome"`
	TotalRevenueGenerated decimal.Decimal `json:"totalRevenueGenerated"`
}

type ExpenseItem struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

type ExpenseBlock struct {
	Items                []ExpenseItem   `json:"items"`
	TotalExpenseIncurred decimal.Decimal `json:"totalExpenseIncurred"`
}

type SupplierLiability struct {
	Supplier string          `json:"supplier"`
	Created  decimal.Decimal `json:"created"`
	Paid     decimal.Decimal `json:"paid"`
	Balance  decimal.Decimal `json:"balance"`
}

type LiabilityBlock struct {
	Items             []SupplierLiability `json:"items"`
	TotalNewLiability decimal.Decimal     `json:"totalNewLiability"`
	TotalSupplierPaid decimal.Decimal     `json:"totalSupplierPaid"`
	PayableNet        decimal.Decimal     `json:"payableNet"`
	IsSingleDay       bool                `json:"isSingleDay"`
}

type LiquidityBlock struct {
	CashIn           decimal.Decimal `json:"cashIn"`
	CashOut          decimal.Decimal `json:"cashOut"`
	BankIn           decimal.Decimal `json:"bankIn"`
	BankOut          decimal.Decimal `json:"bankOut"`
	TotalCashBalance decimal.Decimal `json:"totalCashBalance"`
	TotalBankBalance decimal.Decimal `json:"totalBankBalance"`
	TotalReceivable  decimal.Decimal `json:"totalReceivable"`
	TotalPayable     decimal.Decimal `json:"totalPayable"`
	TotalLiquidFunds decimal.Decimal `json:"totalLiquidFunds"`
	// receivable and payable only cover the selected range; nothing is carried forward
	RangeLimited bool `json:"rangeLimited"`
}

type CashCheckBlock struct {
	OpeningCash     decimal.Decimal `json:"openingCash"`
	NetCashPosition decimal.Decimal `json:"netCashPosition"`
	ExpectedDrawer  decimal.Decimal `json:"expectedDrawer"`
	ActualCount     decimal.Decimal `json:"actualCount"`
	Variance        decimal.Decimal `json:"variance"`
	Healthy         bool            `json:"healthy"`
}

type ReportMeta struct {
	Count        int    `json:"count"`
	AnalystNotes string `json:"analystNotes"`
}

type DailyReport struct {
	SelectedDate string         `json:"selectedDate"`
	Status       ReportStatus   `json:"status"`
	Revenue      RevenueBlock   `json:"revenue"`
	Expenses     ExpenseBlock   `json:"expenses"`
	Liabilities  LiabilityBlock `json:"liabilities"`
	Liquidity    LiquidityBlock `json:"liquidity"`
	CashCheck    CashCheckBlock `json:"cashCheck"`
	Notes        []string       `json:"notes"`
	Meta         ReportMeta     `json:"meta"`
}

// GenerateReport folds the transactions of one client and range together with
// the session inputs. It does no I/O and never fails; nil rows are skipped.
func GenerateReport(txns []*models.Transaction, inputs SessionInputs) DailyReport {
	rows := make([]classified, 0, len(txns))
	for _, t := range txns {
		if t == nil {
			continue
		}
		rows = append(rows, classify(t))
	}

	report := DailyReport{
		SelectedDate: inputs.SelectedDateLabel,
		Revenue:      buildRevenue(rows),
		Expenses:     buildExpenses(rows),
		Liabilities:  buildLiabilities(rows, inputs.IsSingleDay),
		Meta: ReportMeta{
			Count:        len(rows),
			AnalystNotes: inputs.AnalystNotes,
		},
	}
	report.Liquidity = buildLiquidity(rows, inputs, report.Revenue, report.Liabilities)
	report.CashCheck = buildCashCheck(report.Liquidity, inputs)
	report.Status = buildStatus(report.CashCheck)
	report.Notes = buildNotes(report)
	return report
}

func buildRevenue(rows []classified) RevenueBlock {
	var r RevenueBlock
	for _, c := range rows {
		if c.typ == typeSales {
			r.TotalGrossSales = r.TotalGrossSales.Add(c.in)
			switch c.mode {
			case modeCash:
				r.CashSales = r.CashSales.Add(c.in)
			case modeBank:
				r.BankSales = r.BankSales.Add(c.in)
			case modeCredit:
				r.CreditSales = r.CreditSales.Add(c.in)
			}
		}
		if c.isCreditRecovery() {
			r.CreditRecoveryTotal = r.CreditRecoveryTotal.Add(c.in)
			switch c.mode {
			case modeCash:
				r.CreditRecoveryCash = r.CreditRecoveryCash.Add(c.in)
			case modeBank:
				r.CreditRecoveryBank = r.CreditRecoveryBank.Add(c.in)
			}
		}
		if c.typ == typeIncome && c.isInflow() {
			r.TotalIncome = r.TotalIncome.Add(c.in)
		}
	}
	r.TotalRevenueGenerated = r.CashSales.Add(r.BankSales).Add(r.CreditRecoveryTotal).Add(r.TotalIncome)
	return r
}

func buildExpenses(rows []classified) ExpenseBlock {
	groups := map[string]decimal.Decimal{}
	var total decimal.Decimal
	for _, c := range rows {
		if !c.isExpenseIncurred() {
			continue
		}
		key := c.expenseGroup()
		groups[key] = groups[key].Add(c.outgoing())
		total = total.Add(c.outgoing())
	}

	items := make([]ExpenseItem, 0, len(groups))
	for key, amount := range groups {
		items = append(items, ExpenseItem{Key: key, Amount: amount})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return ExpenseBlock{Items: items, TotalExpenseIncurred: total}
}

func buildLiabilities(rows []classified, isSingleDay bool) LiabilityBlock {
	bySupplier := map[string]*SupplierLiability{}
	row := func(key string) *SupplierLiability {
		if s, ok := bySupplier[key]; ok {
			return s
		}
		s := &SupplierLiability{Supplier: key}
		bySupplier[key] = s
		return s
	}

	block := LiabilityBlock{IsSingleDay: isSingleDay}
	for _, c := range rows {
		switch {
		case c.isSupplierLiability():
			s := row(c.supplierKey())
			s.Created = s.Created.Add(c.outgoing())
			block.TotalNewLiability = block.TotalNewLiability.Add(c.outgoing())
		case c.isSupplierPayment():
			s := row(c.supplierKey())
			s.Paid = s.Paid.Add(c.outgoing())
			block.TotalSupplierPaid = block.TotalSupplierPaid.Add(c.outgoing())
		}
	}

	block.Items = make([]SupplierLiability, 0, len(bySupplier))
	for _, s := range bySupplier {
		if s.Created.Abs().LessThanOrEqual(liabilityThreshold) && s.Paid.Abs().LessThanOrEqual(liabilityThreshold) {
			continue
		}
		s.Balance = s.Created.Sub(s.Paid)
		block.Items = append(block.Items, *s)
	}
	sort.Slice(block.Items, func(i, j int) bool { return block.Items[i].Supplier < block.Items[j].Supplier })
	block.PayableNet = block.TotalNewLiability.Sub(block.TotalSupplierPaid)
	return block
}

func buildLiquidity(rows []classified, inputs SessionInputs, revenue RevenueBlock, liabilities LiabilityBlock) LiquidityBlock {
	l := LiquidityBlock{RangeLimited: true}
	for _, c := range rows {
		switch c.mode {
		case modeCash:
			l.CashIn = l.CashIn.Add(c.in)
			l.CashOut = l.CashOut.Add(c.out)
		case modeBank:
			l.BankIn = l.BankIn.Add(c.in)
			l.BankOut = l.BankOut.Add(c.out)
		}
	}
	l.TotalCashBalance = inputs.OpeningCash.Add(l.CashIn).Sub(l.CashOut)
	l.TotalBankBalance = inputs.OpeningBank.Add(l.BankIn).Sub(l.BankOut)
	l.TotalReceivable = revenue.CreditSales
	l.TotalPayable = liabilities.PayableNet
	l.TotalLiquidFunds = l.TotalCashBalance.Add(l.TotalBankBalance).Add(l.TotalReceivable).Sub(l.TotalPayable)
	return l
}

func buildCashCheck(l LiquidityBlock, inputs SessionInputs) CashCheckBlock {
	net := l.CashIn.Sub(l.CashOut)
	expected := inputs.OpeningCash.Add(net)
	variance := inputs.ActualCount.Sub(expected)
	return CashCheckBlock{
		OpeningCash:     inputs.OpeningCash,
		NetCashPosition: net,
		ExpectedDrawer:  expected,
		ActualCount:     inputs.ActualCount,
		Variance:        variance,
		Healthy:         variance.Abs().LessThan(varianceTolerance),
	}
}

func buildStatus(check CashCheckBlock) ReportStatus {
	if check.Healthy {
		return ReportStatus{
			Healthy:    true,
			StatusText: StatusTextHealthy,
			StatusSub:  "Cash is balanced. Expenses are verified.",
		}
	}
	return ReportStatus{
		StatusText: StatusTextActionRequired,
		StatusSub:  "Variance detected or liabilities need review.",
	}
}

func buildNotes(r DailyReport) []string {
	notes := []string{}
	if !r.CashCheck.Healthy {
		notes = append(notes, NoteCashVariance)
	}
	if r.Revenue.CreditSales.IsPositive() {
		notes = append(notes, NoteCreditSalesPending)
	}
	if r.Liabilities.TotalNewLiability.IsPositive() {
		notes = append(notes, NoteNewLiabilities)
	}
	if r.Liabilities.PayableNet.IsNegative() {
		notes = append(notes, NotePaymentsExceed)
	}
	return notes
}
