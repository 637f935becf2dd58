// Package google appends exported records to a Google spreadsheet,
// one sheet per record kind.
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

	"dietario/internal/core"
	ports "dietario/internal/sheets"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	mealsSheet        string
	measurementsSheet string
}

var _ ports.Exporter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS,
// falling back to application default credentials.
// Optional sheet names: GOOGLE_MEALS_SHEET_NAME (default "Pasti"),
// GOOGLE_MEASUREMENTS_SHEET_NAME (default "Pesate").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	mealsSheet := strings.TrimSpace(os.Getenv("GOOGLE_MEALS_SHEET_NAME"))
	if mealsSheet == "" {
		mealsSheet = "Pasti"
	}
	measurementsSheet := strings.TrimSpace(os.Getenv("GOOGLE_MEASUREMENTS_SHEET_NAME"))
	if measurementsSheet == "" {
		measurementsSheet = "Pesate"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		mealsSheet:        mealsSheet,
		measurementsSheet: measurementsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if credsJSON := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON")); credsJSON != "" {
		return gsheet.NewService(ctx, goption.WithCredentialsJSON([]byte(credsJSON)))
	}
	if credsFile := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); credsFile != "" {
		return gsheet.NewService(ctx, goption.WithCredentialsFile(credsFile))
	}
	// Application default credentials.
	return gsheet.NewService(ctx)
}

func (c *Client) ExportMeal(ctx context.Context, m core.Meal) error {
	row := []interface{}{
		m.User, m.Timestamp, m.Type, m.Description,
		nutrientCell(m.Calories), nutrientCell(m.Proteins),
		nutrientCell(m.Carbs), nutrientCell(m.Fats),
		m.DietComment,
	}
	return c.appendRow(ctx, c.mealsSheet, row)
}

func (c *Client) ExportMeasurement(ctx context.Context, m core.Measurement) error {
	row := []interface{}{m.User, m.Timestamp}
	for _, field := range core.MeasurementFields {
		if v := m.Field(field); v != nil {
			row = append(row, *v)
		} else {
			row = append(row, "")
		}
	}
	return c.appendRow(ctx, c.measurementsSheet, row)
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Appended row to spreadsheet", "sheet", sheet)
	return nil
}

func nutrientCell(n core.Nutrient) interface{} {
	if !n.Known {
		return core.UnknownSentinel
	}
	return n.Value
}
