// Package export writes assembled monthly reports to an external
// target. The engine hands over plain data; rendering stays here.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgeteer/internal/engine"
)

// SheetsWriter pushes a monthly report into a Google Sheets tab named
// after the report month. Calls are paced to stay inside the Sheets API
// write quota.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// NewSheetsWriterFromEnv builds a writer from environment configuration.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsWriterFromEnv(ctx context.Context) (*SheetsWriter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	// The Sheets API allows 60 write requests per minute per user.
	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(1), 3),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteMonthlyReport clears and rewrites the report tab for the report's
// month and returns the sheet name it wrote to.
func (w *SheetsWriter) WriteMonthlyReport(ctx context.Context, r engine.Report) (string, error) {
	sheetName := fmt.Sprintf("Report %04d-%02d", r.Year, r.Month)

	if err := w.ensureSheet(ctx, sheetName); err != nil {
		return "", err
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return "", err
	}
	clearRange := fmt.Sprintf("%s!A1:Z10000", sheetName)
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	rows := ReportRows(r)
	vr := &gsheet.ValueRange{Values: rows}

	if err := w.limiter.Wait(ctx); err != nil {
		return "", err
	}
	writeRange := fmt.Sprintf("%s!A1", sheetName)
	if _, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write report to %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "monthly report exported",
		"sheet", sheetName,
		"rows", len(rows),
		"owner_id", r.OwnerID)
	return sheetName, nil
}

// ensureSheet creates the tab when it does not exist yet.
func (w *SheetsWriter) ensureSheet(ctx context.Context, sheetName string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	meta, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetName, err)
	}
	return nil
}

// ReportRows renders the report into spreadsheet rows: a summary block,
// the category breakdown with percent-of-total, the budget statuses and
// the transaction list.
func ReportRows(r engine.Report) [][]any {
	rows := [][]any{
		{fmt.Sprintf("Monthly Expense Report - %s %d", r.MonthName, r.Year)},
		{},
		{"Summary"},
		{"Total expenses", r.Total.String()},
		{"Number of transactions", r.Count},
		{"Average per transaction", r.Average.String()},
		{},
	}

	if len(r.Breakdown) > 0 {
		rows = append(rows, []any{"Category Breakdown"})
		rows = append(rows, []any{"Category", "Amount", "Count", "Percentage"})
		for _, c := range r.Breakdown {
			pct := engine.PercentOfTotal(c.Amount, r.Total)
			rows = append(rows, []any{c.CategoryName, c.Amount.String(), c.Count, fmt.Sprintf("%.1f%%", pct)})
		}
		rows = append(rows, []any{})
	}

	if len(r.Trend) > 0 {
		rows = append(rows, []any{"Monthly Trend"})
		rows = append(rows, []any{"Month", "Year", "Amount", "Count"})
		for _, m := range r.Trend {
			rows = append(rows, []any{m.Month, m.Year, m.Amount.String(), m.Count})
		}
		rows = append(rows, []any{})
	}

	if len(r.Budgets) > 0 {
		rows = append(rows, []any{"Budget Status"})
		rows = append(rows, []any{"Budget", "Limit", "Spent", "Remaining", "Used", "State"})
		for _, s := range r.Budgets {
			rows = append(rows, []any{
				s.Budget.Name,
				s.Budget.Amount.String(),
				s.Spent.String(),
				s.Remaining.String(),
				fmt.Sprintf("%.1f%%", s.PercentUsed),
				string(s.Classification),
			})
		}
		rows = append(rows, []any{})
	}

	rows = append(rows, []any{"Transactions"})
	rows = append(rows, []any{"Date", "Title", "Description", "Amount", "Category", "Tags"})
	for _, e := range r.Expenses {
		tags := make([]string, 0, len(e.Tags))
		for _, t := range e.Tags {
			tags = append(tags, t.Name)
		}
		rows = append(rows, []any{
			e.Date.String(),
			e.Title,
			e.Description,
			e.Amount.String(),
			e.Category.Name,
			strings.Join(tags, ", "),
		})
	}

	return rows
}
