package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("gtct-analytics/reports")

// Service loads report inputs from the stores and runs the aggregator.
type Service struct {
	Transactions models.TransactionStore
	Sessions     models.SessionStore
	Parties      models.PartyStore
	Clients      models.ClientStore
}

// NewService wires the gorm stores. A nil db means config.GetDB().
func NewService(db *gorm.DB) *Service {
	records := models.NewRecordStore(db)
	return &Service{
		Transactions: records,
		Sessions:     models.NewDailySessionStore(db),
		Parties:      records,
		Clients:      records,
	}
}

type DailyReportResult struct {
	ClientId   string      `json:"clientId"`
	ClientName string      `json:"clientName"`
	Currency   string      `json:"currency"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Report     DailyReport `json:"report"`
	// set when inputs could not be loaded; Report is then the empty report
	Error string `json:"error,omitempty"`
}

type PartyLedgerResult struct {
	ClientId   string                `json:"clientId"`
	ClientName string                `json:"clientName"`
	Currency   string                `json:"currency"`
	PartyId    int                   `json:"partyId"`
	PartyName  string                `json:"partyName"`
	PartyType  models.PartyType      `json:"partyType"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Summary    PartyLedgerSummary    `json:"summary"`
	Rows       []*models.Transaction `json:"rows"`
	Error      string                `json:"error,omitempty"`
}

// ValidateRange checks both keys and that from is not after to.
func ValidateRange(fromKey string, toKey string) error {
	if !utils.IsValidDateKey(fromKey) || !utils.IsValidDateKey(toKey) {
		return utils.ErrInvalidDateKey
	}
	if fromKey > toKey {
		return utils.ErrInvalidDateRange
	}
	return nil
}

func rangeLabel(fromKey string, toKey string) string {
	if fromKey == toKey {
		return fromKey
	}
	return fromKey + " to " + toKey
}

// loadClient returns nil, nil when the client store is down so the caller can degrade.
func (s *Service) loadClient(ctx context.Context, clientId string) (*models.Client, error) {
	client, err := s.Clients.GetClient(ctx, clientId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, err
	}
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "loadClient", "get client", clientId, err)
		return nil, nil
	}
	return client, nil
}

func (s *Service) loadSessions(ctx context.Context, clientId string, fromKey string, toKey string) (*models.DailySession, *models.DailySession, error) {
	opening, err := s.Sessions.Fetch(ctx, clientId, fromKey)
	if err != nil {
		return nil, nil, err
	}
	if fromKey == toKey {
		return opening, opening, nil
	}
	closing, err := s.Sessions.Fetch(ctx, clientId, toKey)
	if err != nil {
		return nil, nil, err
	}
	return opening, closing, nil
}

// GetDailyReport builds the financial position report of a client for an
// inclusive date-key range. Store failures do not fail the call: the result
// carries an empty report and the error message instead.
func (s *Service) GetDailyReport(ctx context.Context, clientId string, fromKey string, toKey string) (*DailyReportResult, error) {
	if clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := ValidateRange(fromKey, toKey); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.GetDailyReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("client_id", clientId),
		attribute.String("from", fromKey),
		attribute.String("to", toKey),
	)
	start := time.Now()
	defer logSlowReport(ctx, "daily_report", start, map[string]any{"from": fromKey, "to": toKey})

	client, err := s.loadClient(ctx, clientId)
	if err != nil {
		return nil, err
	}

	key := dailyReportCacheKey(clientId, fromKey, toKey)
	if reportCacheEnabled() {
		var cached DailyReportResult
		if ok, err := cacheGet(key, &cached); err == nil && ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return &cached, nil
		}
	}

	result := &DailyReportResult{
		ClientId: clientId,
		Currency: config.GetSettings().Locale.DefaultCurrency,
		From:     fromKey,
		To:       toKey,
	}
	if client != nil {
		result.ClientName = client.Name
		result.Currency = client.Currency
	}

	isSingleDay := fromKey == toKey
	label := rangeLabel(fromKey, toKey)
	txns, err := s.Transactions.QueryTransactions(ctx, clientId, fromKey, toKey)
	if err != nil {
		return s.degrade(span, result, label, isSingleDay, err), nil
	}
	opening, closing, err := s.loadSessions(ctx, clientId, fromKey, toKey)
	if err != nil {
		return s.degrade(span, result, label, isSingleDay, err), nil
	}

	result.Report = GenerateReport(txns, NewSessionInputs(label, opening, closing, isSingleDay))
	span.SetAttributes(attribute.Int("transactions", len(txns)))

	if client != nil && reportCacheEnabled() {
		if err := cacheSet(key, result, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "reports", "GetDailyReport", "cache report", key, err)
		}
	}
	return result, nil
}

func (s *Service) degrade(span trace.Span, result *DailyReportResult, label string, isSingleDay bool, err error) *DailyReportResult {
	config.LogError(config.GetLogger(), "reports", "GetDailyReport", "load inputs", result.ClientId, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	result.Report = GenerateReport(nil, SessionInputs{SelectedDateLabel: label, IsSingleDay: isSingleDay})
	result.Error = err.Error()
	return result
}

// resolveParty prefers the live party record; deleted parties fall back to
// the given name and the party type stamped on their transactions.
func (s *Service) resolveParty(ctx context.Context, clientId string, partyId int, partyName string) (int, string, models.PartyType, error) {
	if partyId == 0 {
		return 0, partyName, "", nil
	}
	parties, err := s.Parties.QueryParties(ctx, clientId)
	if err != nil {
		return partyId, partyName, "", err
	}
	for _, p := range parties {
		if p.ID == partyId {
			return p.ID, p.Name, p.Type, nil
		}
	}
	return partyId, partyName, "", nil
}

func stampedPartyType(txns []*models.Transaction) models.PartyType {
	for _, t := range txns {
		if pt, ok := models.ParsePartyType(string(t.PartyType)); ok {
			return pt
		}
	}
	return models.PartyTypeCustomer
}

// GetPartyLedgerReport summarises what one party owes or is owed over a range.
func (s *Service) GetPartyLedgerReport(ctx context.Context, clientId string, partyId int, partyName string, fromKey string, toKey string) (*PartyLedgerResult, error) {
	if clientId == "" {
		return nil, errors.New("client id is required")
	}
	if partyId == 0 && partyName == "" {
		return nil, errors.New("party id or party name is required")
	}
	if err := ValidateRange(fromKey, toKey); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.GetPartyLedgerReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("client_id", clientId),
		attribute.Int("party_id", partyId),
		attribute.String("from", fromKey),
		attribute.String("to", toKey),
	)
	start := time.Now()
	defer logSlowReport(ctx, "party_ledger_report", start, map[string]any{"party_id": partyId, "from": fromKey, "to": toKey})

	client, err := s.loadClient(ctx, clientId)
	if err != nil {
		return nil, err
	}

	key := partyReportCacheKey(clientId, partyId, partyName, fromKey, toKey)
	if reportCacheEnabled() {
		var cached PartyLedgerResult
		if ok, err := cacheGet(key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	result := &PartyLedgerResult{
		ClientId:  clientId,
		Currency:  config.GetSettings().Locale.DefaultCurrency,
		PartyId:   partyId,
		PartyName: partyName,
		From:      fromKey,
		To:        toKey,
		Rows:      []*models.Transaction{},
	}
	if client != nil {
		result.ClientName = client.Name
		result.Currency = client.Currency
	}

	fail := func(err error) *PartyLedgerResult {
		config.LogError(config.GetLogger(), "reports", "GetPartyLedgerReport", "load inputs", clientId, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if result.PartyType == "" {
			result.PartyType = models.PartyTypeCustomer
		}
		result.Summary = SummarizePartyLedger(nil, result.PartyType)
		result.Error = err.Error()
		return result
	}

	id, name, partyType, err := s.resolveParty(ctx, clientId, partyId, partyName)
	if err != nil {
		return fail(err), nil
	}
	result.PartyId, result.PartyName, result.PartyType = id, name, partyType

	txns, err := s.Transactions.QueryTransactions(ctx, clientId, fromKey, toKey)
	if err != nil {
		return fail(err), nil
	}
	result.Rows = FilterByParty(txns, id, name)
	if result.PartyType == "" {
		result.PartyType = stampedPartyType(result.Rows)
	}
	result.Summary = SummarizePartyLedger(result.Rows, result.PartyType)

	if client != nil && reportCacheEnabled() {
		if err := cacheSet(key, result, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "reports", "GetPartyLedgerReport", "cache report", key, err)
		}
	}
	return result, nil
}

// FileName is the base name used for exports of this report.
func (r *DailyReportResult) FileName() string {
	return fmt.Sprintf("daily_report_%s_%s_%s", r.ClientId, r.From, r.To)
}

func (r *PartyLedgerResult) FileName() string {
	return fmt.Sprintf("party_ledger_%s_%d_%s_%s", r.ClientId, r.PartyId, r.From, r.To)
}
