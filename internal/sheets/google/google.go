package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "defter/internal/log"
	ports "defter/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// lastColumn is the column of the final field in ports.Header.
const lastColumn = "G"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *applog.Logger
}

var _ ports.BalanceExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Balances"
	}

	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        applog.Default(applog.ComponentSheets),
	}
}

// newSheetsService builds the API service from service account credentials.
// Extra options are appended after the credentials, so callers can point
// the client elsewhere.
func newSheetsService(ctx context.Context, cfg Config, extra ...goption.ClientOption) (*gsheet.Service, error) {
	logger := applog.Default(applog.ComponentSheets)

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case len(extra) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	var opts []goption.ClientOption
	if credentialsJSON != nil {
		opts = append(opts,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	opts = append(opts, extra...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// UpsertBalance rewrites the entity's row in place, or appends it when the
// entity has no row yet. An empty sheet gets the header first.
func (c *Client) UpsertBalance(ctx context.Context, row ports.BalanceRow) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	values := balanceRowValues(row)
	if n := findEntityRow(ids, row.EntityID); n > 0 {
		rng := c.rowRange(n)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{
			Values: [][]interface{}{values},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Balance row updated", applog.FieldEntityID, row.EntityID, "row", n)
		return nil
	}

	batch := [][]interface{}{values}
	if len(ids) == 0 {
		batch = append([][]interface{}{headerValues()}, batch...)
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{
		Values: batch,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append balance row: %w", err)
	}
	c.logger.DebugContext(ctx, "Balance row appended", applog.FieldEntityID, row.EntityID)
	return nil
}

// RemoveBalance clears the entity's row. The row itself stays so later
// rows keep their positions.
func (c *Client) RemoveBalance(ctx context.Context, entityID int64) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	n := findEntityRow(ids, entityID)
	if n <= 0 {
		c.logger.DebugContext(ctx, "No balance row to remove", applog.FieldEntityID, entityID)
		return nil
	}

	rng := c.rowRange(n)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Balance row cleared", applog.FieldEntityID, entityID, "row", n)
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read entity ids: %w", err)
	}
	return resp.Values, nil
}

func (c *Client) rowRange(n int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, n, lastColumn, n)
}

func headerValues() []interface{} {
	out := make([]interface{}, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

// balanceRowValues renders a row in ports.Header order. Amounts are plain
// decimals so the sheet can sum them.
func balanceRowValues(row ports.BalanceRow) []interface{} {
	return []interface{}{
		strconv.FormatInt(row.EntityID, 10),
		row.Name,
		row.Credit.Decimal(),
		row.Debit.Decimal(),
		row.Balance.Decimal(),
		string(row.Status),
		row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// findEntityRow returns the 1-based sheet row whose first cell is entityID,
// or 0. The header row never matches.
func findEntityRow(values [][]interface{}, entityID int64) int {
	want := strconv.FormatInt(entityID, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}
