package services

import (
	"context"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/storage"
)

// RuleService manages recurring spending rules. Rule amounts are always
// stored in the base currency.
type RuleService struct {
	storage      *storage.SQLiteRepository
	resolver     RateResolver
	logger       *log.Logger
	baseCurrency string

	now func() time.Time
}

func NewRuleService(st *storage.SQLiteRepository, resolver RateResolver, baseCurrency string, logger *log.Logger) *RuleService {
	return &RuleService{
		storage:      st,
		resolver:     resolver,
		logger:       logger.WithComponent(log.ComponentApp),
		baseCurrency: strings.ToUpper(baseCurrency),
		now:          time.Now,
	}
}

// Add creates a rule with the given period and a base-currency amount.
func (s *RuleService) Add(ctx context.Context, userID int64, category, name string, period core.Period, amount float64) (core.Rule, error) {
	return s.add(ctx, userID, category, name, period, amount)
}

// AddMonthly creates a monthly rule, converting a foreign-currency amount to
// the base currency at today's rate. The conversion happens once, at creation.
func (s *RuleService) AddMonthly(ctx context.Context, userID int64, category, name string, amount float64, currency string) (core.Rule, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != "" && currency != s.baseCurrency {
		_, rate, err := s.resolver.Resolve(ctx, currency, s.baseCurrency)
		if err != nil {
			return core.Rule{}, err
		}
		amount *= rate
	}
	return s.add(ctx, userID, category, name, core.PeriodMonthly, amount)
}

func (s *RuleService) add(ctx context.Context, userID int64, category, name string, period core.Period, amount float64) (core.Rule, error) {
	category, err := core.ValidateCategory(category)
	if err != nil {
		return core.Rule{}, err
	}
	name, err = core.ValidateName(name)
	if err != nil {
		return core.Rule{}, err
	}
	if err := core.ValidateAmount(amount); err != nil {
		return core.Rule{}, err
	}

	rule := core.Rule{
		UserID:   userID,
		Category: category,
		Name:     name,
		Period:   period,
		Amount:   amount,
	}
	id, err := s.storage.AddRule(ctx, rule)
	if err != nil {
		return core.Rule{}, err
	}
	rule.ID = id

	s.logger.InfoContext(ctx, "rule added",
		log.FieldUserID, userID,
		log.FieldRuleID, id,
		log.FieldCategory, category,
		"period", string(period),
		log.FieldAmount, amount)
	return rule, nil
}

// List returns the user's rules.
func (s *RuleService) List(ctx context.Context, userID int64) ([]core.Rule, error) {
	return s.storage.ListRules(ctx, userID)
}

// Delete removes a rule by id. Returns storage.ErrNotFound when the rule
// does not exist or belongs to another user.
func (s *RuleService) Delete(ctx context.Context, userID, ruleID int64) error {
	deleted, err := s.storage.DeleteRule(ctx, userID, ruleID)
	if err != nil {
		return err
	}
	if !deleted {
		return storage.ErrNotFound
	}
	s.logger.InfoContext(ctx, "rule deleted",
		log.FieldUserID, userID, log.FieldRuleID, ruleID)
	return nil
}
