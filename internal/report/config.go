package report

import (
	"strings"

	"catreport/internal/config"
	"catreport/internal/daterange"
	"catreport/internal/log"
)

// OptionsFromConfig maps the application config onto generator options.
func OptionsFromConfig(cfg *config.Config, logger *log.Logger) Options {
	return Options{
		FinancialYear: daterange.FinancialYear{
			Day:   cfg.FinancialYearStartDay,
			Month: cfg.FinancialYearStartMonth,
		},
		IgnoreFuture: cfg.IgnoreFutureTransactions,
		BaseCurrency: strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency)),
		DateFormat:   cfg.DateFormat,
		Logger:       logger,
	}
}
