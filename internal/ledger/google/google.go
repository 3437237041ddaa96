package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"catreport/internal/core"
	"catreport/internal/currency"
	"catreport/internal/ledger"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	categoriesSheet   string
	currenciesSheet   string
	transactionsSheet string
	baseCurrency      string
}

// Ensure interface conformance
var _ ledger.Ledger = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_OAUTH_TOKEN_{JSON,FILE} with GOOGLE_OAUTH_CLIENT_{JSON,FILE}, or
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_CATEGORIES_SHEET_NAME (default "Categories"),
// GOOGLE_CURRENCIES_SHEET_NAME (default "Currencies"),
// GOOGLE_TRANSACTIONS_SHEET_NAME (default "Transactions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		categoriesSheet:   envOr("GOOGLE_CATEGORIES_SHEET_NAME", "Categories"),
		currenciesSheet:   envOr("GOOGLE_CURRENCIES_SHEET_NAME", "Currencies"),
		transactionsSheet: envOr("GOOGLE_TRANSACTIONS_SHEET_NAME", "Transactions"),
		baseCurrency:      envOr("BASE_CURRENCY", currency.DefaultBase),
	}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a read-only Sheets Service. An OAuth user token
// takes precedence over Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	oauthCreds, err := oauthFromEnv()
	if err != nil {
		return nil, err
	}
	if oauthCreds != nil {
		slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token",
			"scope", gsheet.SpreadsheetsReadonlyScope)
		return oauthCreds.service(ctx)
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Categories(ctx context.Context) (core.CategoryTree, error) {
	values, err := c.read(ctx, c.categoriesSheet, "A2:B")
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return parseCategories(values).tree(), nil
}

func (c *Client) Currencies(ctx context.Context) (currency.Table, error) {
	values, err := c.read(ctx, c.currenciesSheet, "A2:C")
	if err != nil {
		return currency.Table{}, fmt.Errorf("failed to read currencies: %w", err)
	}
	return parseCurrencies(values, c.baseCurrency)
}

// CategoryStats reads the category and transaction sheets and aggregates in memory.
func (c *Client) CategoryStats(ctx context.Context, q core.StatsQuery) (core.CategoryStats, error) {
	cats, err := c.read(ctx, c.categoriesSheet, "A2:B")
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	rows, err := c.read(ctx, c.transactionsSheet, "A2:G")
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	names := parseCategories(cats)
	txns, skipped := parseTransactions(rows, names, c.baseCurrency)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unparseable transaction rows", "sheet", c.transactionsSheet, "count", skipped)
	}
	return core.AggregateStats(txns, q), nil
}

func (c *Client) read(ctx context.Context, sheetName, cols string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheetName, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
