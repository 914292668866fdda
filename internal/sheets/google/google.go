// Package google exports invoices to a Google Sheets ledger.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fatture/internal/core"
	ports "fatture/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ports.InvoiceExporter = (*Client)(nil)
	_ ports.DeletionMarker  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Invoices").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Invoices"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON([]byte(serviceAccountJSON)),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case serviceAccountFile != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsFile(serviceAccountFile),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	default:
		// Application default credentials as a last resort.
		return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
	}
}

// ExportInvoice appends one row per invoice: number, client, dates, amounts
// and the effective status at export time.
func (c *Client) ExportInvoice(ctx context.Context, inv core.Invoice) error {
	row := invoiceRow(inv, time.Now())
	return c.appendRow(ctx, row)
}

// MarkDeleted appends a void marker row so the ledger keeps a trail of the
// hard delete.
func (c *Client) MarkDeleted(ctx context.Context, invoiceID string) error {
	row := []interface{}{
		time.Now().Format(time.RFC3339),
		invoiceID,
		"", "", "", "", "", "",
		"deleted",
	}
	return c.appendRow(ctx, row)
}

func (c *Client) appendRow(ctx context.Context, row []interface{}) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:I", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.sheetName, err)
	}
	return nil
}

// invoiceRow flattens an invoice into a spreadsheet row.
func invoiceRow(inv core.Invoice, asOf time.Time) []interface{} {
	return []interface{}{
		asOf.Format(time.RFC3339),
		inv.ID,
		inv.InvoiceNumber,
		inv.ClientName,
		inv.IssueDate.Format("2006-01-02"),
		inv.DueDate.Format("2006-01-02"),
		fmt.Sprintf("%.2f", inv.Subtotal),
		fmt.Sprintf("%.2f", inv.Total),
		string(core.EffectiveStatus(inv, asOf)),
	}
}
