package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is used when no sheet name is configured.
const DefaultSheetName = "Transactions"

// Client mirrors transactions into one sheet of a spreadsheet. Row 1 holds
// the header, the id column is used to skip duplicates.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.TransactionMirror = (*Client)(nil)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// NewFromCredentials creates a client authenticated with service account
// credentials taken from the environment.
func NewFromCredentials(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(svc, spreadsheetID, sheetName, logger), nil
}

// serviceAccountCredentials reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials() ([]byte, error) {
	if js := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rng, err)
	}

	if row, ok := findID(resp.Values, tx.ID); ok {
		c.logger.InfoContext(ctx, "Transaction already mirrored", log.FieldTxID, tx.ID, "row", row)
		return c.rowRef(row), nil
	}

	nextRow := len(resp.Values) + 1
	if nextRow == 1 {
		if err := c.writeRow(ctx, 1, ports.Header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		nextRow = 2
	}
	if err := c.writeRow(ctx, nextRow, ports.Row(tx)); err != nil {
		return "", fmt.Errorf("write transaction %d: %w", tx.ID, err)
	}

	ref := c.rowRef(nextRow)
	c.logger.InfoContext(ctx, "Transaction mirrored", log.FieldTxID, tx.ID, "ref", ref)
	return ref, nil
}

func (c *Client) writeRow(ctx context.Context, row int, cells []string) error {
	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, row, row)
	values := make([]any, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (c *Client) rowRef(row int) string {
	return fmt.Sprintf("%s!A%d:G%d", c.sheetName, row, row)
}

// ClearTransactions clears every row below the header.
func (c *Client) ClearTransactions(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:G", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Mirror sheet cleared", "range", rng)
	return nil
}
