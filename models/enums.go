package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type TransactionType string

const (
	TransactionTypeSales    TransactionType = "Sales"
	TransactionTypePurchase TransactionType = "Purchase"
	TransactionTypeExpense  TransactionType = "Expense"
	TransactionTypePayment  TransactionType = "Payment"
	TransactionTypeReceipt  TransactionType = "Receipt"
	TransactionTypeIncome   TransactionType = "Income"
	TransactionTypeDrawing  TransactionType = "Drawing"
)

var transactionTypes = []TransactionType{
	TransactionTypeSales, TransactionTypePurchase, TransactionTypeExpense, TransactionTypePayment,
	TransactionTypeReceipt, TransactionTypeIncome, TransactionTypeDrawing,
}

func (t TransactionType) IsValid() bool {
	for _, v := range transactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// convert input to enum type
func (t *TransactionType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction type must be string")
	}
	v, ok := ParseTransactionType(str)
	if !ok {
		return errors.New("invalid transaction type")
	}
	*t = v
	return nil
}

// ParseTransactionType accepts any casing of the canonical names.
func ParseTransactionType(s string) (TransactionType, bool) {
	for _, v := range transactionTypes {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeBank   PaymentMode = "Bank"
	PaymentModeCredit PaymentMode = "Credit"
)

func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeBank, PaymentModeCredit:
		return true
	}
	return false
}

func (m *PaymentMode) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment mode must be string")
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "cash":
		*m = PaymentModeCash
	case "bank":
		*m = PaymentModeBank
	case "credit":
		*m = PaymentModeCredit
	default:
		return errors.New("invalid payment mode")
	}
	return nil
}

type PartyType string

const (
	PartyTypeCustomer PartyType = "Customer"
	PartyTypeSupplier PartyType = "Supplier"
	PartyTypeBoth     PartyType = "Both"
)

func (p PartyType) IsValid() bool {
	switch p {
	case PartyTypeCustomer, PartyTypeSupplier, PartyTypeBoth:
		return true
	}
	return false
}

func (p *PartyType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("party type must be string")
	}
	v, ok := ParsePartyType(str)
	if !ok {
		return errors.New("invalid party type")
	}
	*p = v
	return nil
}

func ParsePartyType(s string) (PartyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return PartyTypeCustomer, true
	case "supplier":
		return PartyTypeSupplier, true
	case "both":
		return PartyTypeBoth, true
	}
	return "", false
}

// IsCustomer is true for Customer and Both.
func (p PartyType) IsCustomer() bool {
	return p == PartyTypeCustomer || p == PartyTypeBoth
}

// IsSupplier is true for Supplier and Both.
func (p PartyType) IsSupplier() bool {
	return p == PartyTypeSupplier || p == PartyTypeBoth
}

type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleAdmin      UserRole = "admin"
	UserRolePartner    UserRole = "partner"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleSuperAdmin, UserRoleAdmin, UserRolePartner:
		return true
	}
	return false
}

// CanWrite is false for read-only partners.
func (r UserRole) CanWrite() bool {
	return r == UserRoleSuperAdmin || r == UserRoleAdmin
}

type LedgerEventAction string

const (
	LedgerEventActionCreate  LedgerEventAction = "C"
	LedgerEventActionDelete  LedgerEventAction = "D"
	LedgerEventActionRebuild LedgerEventAction = "R"
)

type LedgerReferenceType string

const (
	LedgerReferenceTransaction LedgerReferenceType = "TXN"
	LedgerReferenceSession     LedgerReferenceType = "SES"
)
