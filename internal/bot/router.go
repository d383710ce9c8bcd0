package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"budgetbot/internal/core"
	"budgetbot/internal/fx"
	"budgetbot/internal/log"
	"budgetbot/internal/metrics"
	"budgetbot/internal/services"
	"budgetbot/internal/storage"
)

// Response is a command reply: text plus an optional file attachment.
type Response struct {
	Text     string
	File     []byte
	FileName string
}

// Router maps command text to service calls.
type Router struct {
	expenses *services.ExpenseService
	rules    *services.RuleService
	budgets  *services.BudgetService
	exports  *services.ExportService
	rollover *services.RolloverService
	logger   *log.Logger
	metrics  *metrics.Metrics // nil disables counters
}

func NewRouter(
	expenses *services.ExpenseService,
	rules *services.RuleService,
	budgets *services.BudgetService,
	exports *services.ExportService,
	rollover *services.RolloverService,
	logger *log.Logger,
	m *metrics.Metrics,
) *Router {
	return &Router{
		expenses: expenses,
		rules:    rules,
		budgets:  budgets,
		exports:  exports,
		rollover: rollover,
		logger:   logger.WithComponent(log.ComponentBot),
		metrics:  m,
	}
}

// Handle dispatches one command and always returns something to say.
func (r *Router) Handle(ctx context.Context, userID int64, text string) Response {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Response{Text: "I only understand commands. Try /start for the list."}
	}

	parts := SplitArgs(text)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	// Month boundary check runs before every command so plans are frozen
	// even for sporadic users.
	if err := r.rollover.EnsureMonth(ctx, userID); err != nil {
		r.logger.ErrorContext(ctx, "rollover check failed",
			log.FieldUserID, userID, log.FieldError, err)
	}

	resp, err := r.dispatch(ctx, userID, command, args)
	result := "ok"
	if err != nil {
		result = "error"
		resp = Response{Text: friendlyError(err)}
		r.logger.WarnContext(ctx, "command failed",
			log.FieldUserID, userID,
			log.FieldCommand, command,
			log.FieldError, err)
	}
	if r.metrics != nil {
		r.metrics.CommandsTotal.WithLabelValues(strings.TrimPrefix(command, "/"), result).Inc()
	}
	return resp
}

func (r *Router) dispatch(ctx context.Context, userID int64, command string, args []string) (Response, error) {
	switch command {
	case "/start", "/help":
		return Response{Text: helpText}, nil
	case "/setbudget":
		return r.setBudget(ctx, userID, args)
	case "/setdaily":
		return r.addRule(ctx, userID, core.PeriodDaily, args)
	case "/setweekly":
		return r.addRule(ctx, userID, core.PeriodWeekly, args)
	case "/setyearly":
		return r.addRule(ctx, userID, core.PeriodYearly, args)
	case "/setmonthly":
		return r.setMonthly(ctx, userID, args)
	case "/rules":
		return r.listRules(ctx, userID)
	case "/delrule":
		return r.deleteRule(ctx, userID, args)
	case "/add":
		return r.add(ctx, userID, args)
	case "/undo":
		return r.undo(ctx, userID)
	case "/status":
		return r.status(ctx, userID)
	case "/month":
		return r.month(ctx, userID, args)
	case "/export":
		return r.export(ctx, userID, args)
	case "/resetmonth":
		return r.resetMonth(ctx, userID)
	case "/resetall":
		return r.resetAll(ctx, userID, args)
	}
	return Response{Text: fmt.Sprintf("Unknown command %s. Try /start for the list.", command)}, nil
}

func (r *Router) setBudget(ctx context.Context, userID int64, args []string) (Response, error) {
	if len(args) != 1 {
		return usage("/setbudget <amount>"), nil
	}
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return Response{}, err
	}
	month, err := r.budgets.SetBudget(ctx, userID, amount)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Budget for %s set to %.2f.", month, amount)}, nil
}

func (r *Router) addRule(ctx context.Context, userID int64, period core.Period, args []string) (Response, error) {
	if len(args) != 3 {
		return usage(fmt.Sprintf("/set%s <category> <name> <amount>", period)), nil
	}
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return Response{}, err
	}
	rule, err := r.rules.Add(ctx, userID, args[0], args[1], period, amount)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Rule #%d: %s / %s, %.2f %s.", rule.ID, rule.Category, rule.Name, rule.Amount, rule.Period)}, nil
}

func (r *Router) setMonthly(ctx context.Context, userID int64, args []string) (Response, error) {
	if len(args) != 3 && len(args) != 4 {
		return usage("/setmonthly <category> <name> <amount> [currency]"), nil
	}
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return Response{}, err
	}
	currency := ""
	if len(args) == 4 {
		currency = args[3]
	}
	rule, err := r.rules.AddMonthly(ctx, userID, args[0], args[1], amount, currency)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Rule #%d: %s / %s, %.2f monthly.", rule.ID, rule.Category, rule.Name, rule.Amount)}, nil
}

func (r *Router) listRules(ctx context.Context, userID int64) (Response, error) {
	rules, err := r.rules.List(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: formatRules(rules)}, nil
}

func (r *Router) deleteRule(ctx context.Context, userID int64, args []string) (Response, error) {
	if len(args) != 1 {
		return usage("/delrule <id>"), nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Response{Text: fmt.Sprintf("%q is not a rule id. See /rules.", args[0])}, nil
	}
	if err := r.rules.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Response{Text: fmt.Sprintf("No rule #%d found. See /rules.", id)}, nil
		}
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Rule #%d deleted.", id)}, nil
}

func (r *Router) add(ctx context.Context, userID int64, args []string) (Response, error) {
	if len(args) != 3 && len(args) != 4 {
		return usage(`/add <category> <name> <amount> [currency], e.g. /add Food "Pizza night" 23.50 EUR`), nil
	}
	amount, err := core.ParseAmount(args[2])
	if err != nil {
		return Response{}, err
	}
	in := services.AddInput{
		UserID:   userID,
		Category: args[0],
		Name:     args[1],
		Amount:   amount,
	}
	if len(args) == 4 {
		in.Currency = args[3]
	}

	res, err := r.expenses.Add(ctx, in)
	if err != nil {
		return Response{}, err
	}

	e := res.Expense
	text := fmt.Sprintf("Logged %.2f for %s / %s.", e.BaseAmount, e.Category, e.Name)
	if e.Currency != "" && e.FXRate != 1 {
		text = fmt.Sprintf("Logged %.2f (%.2f %s at %.4f on %s) for %s / %s.",
			e.BaseAmount, e.OriginalAmount, e.Currency, e.FXRate, e.FXDate, e.Category, e.Name)
	}
	if msgs := formatAlerts(res.Alerts); msgs != "" {
		text += "\n" + msgs
	}
	return Response{Text: text}, nil
}

func (r *Router) undo(ctx context.Context, userID int64) (Response, error) {
	e, err := r.expenses.Undo(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Response{Text: "Nothing to undo this month."}, nil
	}
	if err != nil {
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Removed %.2f for %s / %s.", e.BaseAmount, e.Category, e.Name)}, nil
}

func (r *Router) status(ctx context.Context, userID int64) (Response, error) {
	report, err := r.budgets.StatusReport(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: formatReport(report)}, nil
}

func (r *Router) month(ctx context.Context, userID int64, args []string) (Response, error) {
	if len(args) > 1 {
		return usage("/month [YYYY-MM]"), nil
	}
	var report services.Report
	var err error
	if len(args) == 1 {
		report, err = r.budgets.MonthReport(ctx, userID, args[0])
	} else {
		report, err = r.budgets.StatusReport(ctx, userID)
	}
	if err != nil {
		return Response{}, err
	}
	return Response{Text: formatReport(report)}, nil
}

func (r *Router) export(ctx context.Context, userID int64, args []string) (Response, error) {
	what := "expenses"
	if len(args) == 1 {
		what = strings.ToLower(args[0])
	}

	var data []byte
	var err error
	switch what {
	case "expenses":
		data, err = r.exports.Expenses(ctx, userID)
	case "rules":
		data, err = r.exports.Rules(ctx, userID)
	case "budgets":
		data, err = r.exports.Budgets(ctx, userID)
	default:
		return usage("/export [expenses|rules|budgets]"), nil
	}
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text:     fmt.Sprintf("Here is your %s export.", what),
		File:     data,
		FileName: what + ".csv",
	}, nil
}

func (r *Router) resetMonth(ctx context.Context, userID int64) (Response, error) {
	n, err := r.expenses.ResetMonth(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: fmt.Sprintf("Deleted %d expenses for the current month.", n)}, nil
}

func (r *Router) resetAll(ctx context.Context, userID int64, args []string) (Response, error) {
	// Destructive, so it needs an explicit confirmation argument.
	if len(args) != 1 || strings.ToLower(args[0]) != "yes" {
		return Response{Text: "This deletes ALL your data. Send `/resetall yes` to confirm."}, nil
	}
	if err := r.expenses.ResetAll(ctx, userID); err != nil {
		return Response{}, err
	}
	return Response{Text: "All your data has been deleted."}, nil
}

func usage(u string) Response {
	return Response{Text: "Usage: " + u}
}

// friendlyError turns user-correctable failures into actionable replies;
// everything else gets a generic message and stays in the logs.
func friendlyError(err error) string {
	var formatErr *fx.FormatError
	if errors.As(err, &formatErr) {
		return formatErr.Error() + "."
	}
	var unsupportedErr *fx.UnsupportedError
	if errors.As(err, &unsupportedErr) {
		return fmt.Sprintf("Currency %s is not supported by the rate provider.", unsupportedErr.Code)
	}

	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "That amount does not look like a number. Use e.g. 12.50."
	case errors.Is(err, core.ErrAmountTooSmall):
		return fmt.Sprintf("Amount must be at least %.2f.", core.AmountMin)
	case errors.Is(err, core.ErrAmountTooLarge):
		return fmt.Sprintf("Amount must be at most %.2f.", core.AmountMax)
	case errors.Is(err, core.ErrEmptyCategory), errors.Is(err, core.ErrEmptyName):
		return "Category and name must not be empty."
	case errors.Is(err, core.ErrCategoryTooLong):
		return fmt.Sprintf("Category is too long (max %d characters).", core.CategoryMaxLength)
	case errors.Is(err, core.ErrNameTooLong):
		return fmt.Sprintf("Name is too long (max %d characters).", core.NameMaxLength)
	case errors.Is(err, core.ErrCategoryBadChars), errors.Is(err, core.ErrNameBadChars):
		return "That text contains characters I cannot store."
	}
	var providerErr *fx.ProviderError
	if errors.As(err, &providerErr) {
		return "Exchange rates are unavailable right now. Nothing was saved, please try again later."
	}
	return "Something went wrong. Please try again later."
}

const helpText = `I track your spending against a monthly plan.

Budget and rules:
/setbudget <amount> - overall budget for this month
/setdaily <category> <name> <amount> - daily recurring plan
/setweekly <category> <name> <amount> - weekly recurring plan
/setmonthly <category> <name> <amount> [currency] - monthly recurring plan
/setyearly <category> <name> <amount> - yearly plan, spread over months
/rules - list your rules
/delrule <id> - delete a rule

Expenses:
/add <category> <name> <amount> [currency] - log an expense
/undo - remove the last expense of this month
/status - this month's plan vs spend
/month [YYYY-MM] - report for any month
/export [expenses|rules|budgets] - CSV export

Danger zone:
/resetmonth - delete this month's expenses
/resetall yes - delete everything`
