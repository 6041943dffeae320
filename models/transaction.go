package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/shopspring/decimal"
)

// Transaction is one recorded financial fact of a client.
// Type, Mode and PartyType are kept exactly as entered; readers normalize them.
type Transaction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ClientId        string          `gorm:"size:64;not null;index:idx_txn_client_date,priority:1" json:"client_id"`
	Date            time.Time       `gorm:"not null" json:"date"`
	DateKey         string          `gorm:"size:10;not null;index:idx_txn_client_date,priority:2" json:"date_key"`
	Type            TransactionType `gorm:"size:20;not null" json:"type"`
	Category        string          `gorm:"size:255" json:"category"`
	Description     string          `gorm:"type:text" json:"description"`
	Mode            PaymentMode     `gorm:"size:20;not null" json:"mode"`
	PartyId         int             `gorm:"index" json:"party_id"`
	PartyName       string          `gorm:"size:255;index" json:"party_name"`
	PartyType       PartyType       `gorm:"size:20" json:"party_type"`
	AmountBeforeTax decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_before_tax"`
	VatPercent      decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"vat_percent"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	AmountIn        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_in"`
	AmountOut       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_out"`
	CreatedBy       int             `json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// filled by the party loader on listings
	Party *Party `gorm:"-" json:"party,omitempty"`
}

type NewTransaction struct {
	Date            string          `json:"date" binding:"required"`
	Type            TransactionType `json:"type" binding:"required"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Mode            PaymentMode     `json:"mode" binding:"required"`
	PartyId         int             `json:"party_id"`
	AmountBeforeTax utils.Amount    `json:"amount_before_tax"`
	VatPercent      *utils.Amount   `json:"vat_percent"`
}

// types that must name a party, and the party roles they accept
var partyRequiredFor = map[TransactionType]func(PartyType) bool{
	TransactionTypeSales:    PartyType.IsCustomer,
	TransactionTypeReceipt:  PartyType.IsCustomer,
	TransactionTypePurchase: PartyType.IsSupplier,
	TransactionTypePayment:  PartyType.IsSupplier,
}

// SplitFlow projects the total onto the cash-flow side implied by type and mode.
// Credit entries move no money and leave both sides zero.
func SplitFlow(t TransactionType, mode PaymentMode, total decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if mode != PaymentModeCash && mode != PaymentModeBank {
		return decimal.Zero, decimal.Zero
	}
	switch t {
	case TransactionTypeSales, TransactionTypeReceipt, TransactionTypeIncome:
		return total, decimal.Zero
	case TransactionTypePurchase, TransactionTypeExpense, TransactionTypePayment, TransactionTypeDrawing:
		return decimal.Zero, total
	}
	return decimal.Zero, decimal.Zero
}

func (input *NewTransaction) validate() error {
	if !input.Type.IsValid() {
		return errors.New("invalid transaction type")
	}
	if !input.Mode.IsValid() {
		return errors.New("invalid payment mode")
	}
	if !input.AmountBeforeTax.IsPositive() {
		return errors.New("amount before tax must be greater than 0")
	}
	if input.VatPercent != nil && input.VatPercent.IsNegative() {
		return errors.New("vat percent cannot be negative")
	}
	if _, needsParty := partyRequiredFor[input.Type]; needsParty && input.PartyId == 0 {
		return fmt.Errorf("party is required for %s", input.Type)
	}
	return nil
}

// CreateTransaction validates an entry, derives tax and flow amounts and
// writes it together with its ledger event.
func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	client, err := GetClient(ctx, clientId)
	if err != nil {
		return nil, err
	}
	loc := client.Loc()
	date, err := utils.ParseDateKey(input.Date, loc)
	if err != nil {
		return nil, err
	}

	txn := Transaction{
		ClientId:        clientId,
		Date:            date.UTC(),
		DateKey:         utils.DateKey(date, loc),
		Type:            input.Type,
		Category:        strings.TrimSpace(input.Category),
		Description:     strings.TrimSpace(input.Description),
		Mode:            input.Mode,
		AmountBeforeTax: input.AmountBeforeTax.Decimal,
		VatPercent:      utils.DefaultVatPercent,
	}
	if input.VatPercent != nil {
		txn.VatPercent = input.VatPercent.Decimal
	}
	txn.TaxAmount, txn.TotalAmount = utils.CalculateTax(txn.AmountBeforeTax, txn.VatPercent)
	txn.AmountIn, txn.AmountOut = SplitFlow(txn.Type, txn.Mode, txn.TotalAmount)

	if input.PartyId != 0 {
		party, err := GetParty(ctx, clientId, input.PartyId)
		if err != nil {
			return nil, errors.New("party not found for this client")
		}
		if accepts, needsParty := partyRequiredFor[input.Type]; needsParty && !accepts(party.Type) {
			return nil, fmt.Errorf("%s party cannot be used for %s", party.Type, input.Type)
		}
		txn.PartyId = party.ID
		txn.PartyName = party.Name
		txn.PartyType = party.Type
	}
	txn.CreatedBy, _ = utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	payload, err := json.Marshal(&txn)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := PublishLedgerEvent(ctx, tx, clientId, txn.DateKey, txn.ID, LedgerReferenceTransaction, LedgerEventActionCreate, payload); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// DeleteTransaction removes a transaction. Edits are delete then create.
func DeleteTransaction(ctx context.Context, id int) (*Transaction, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	txn, err := utils.FetchModel[Transaction](ctx, clientId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	payload, err := json.Marshal(txn)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := PublishLedgerEvent(ctx, tx, clientId, txn.DateKey, txn.ID, LedgerReferenceTransaction, LedgerEventActionDelete, payload); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactions returns the client's transactions for an inclusive date-key range, newest first.
func ListTransactions(ctx context.Context, clientId string, fromKey string, toKey string) ([]*Transaction, error) {
	return NewRecordStore(nil).QueryTransactions(ctx, clientId, fromKey, toKey)
}
