package sink

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"quotation-service/internal/common/config"
)

// Value input options accepted by the append call.
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

// Sheets appends rows to a Google Sheets range. Cells are stored as literal
// text unless USER_ENTERED is configured, in which case formula-like cells
// are forced to text.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
	inputOption   string
}

// NewSheets reads the service account JSON from the environment variable
// named by cfg.CredentialsEnv.
func NewSheets(ctx context.Context, cfg config.SheetsConfig) (*Sheets, error) {
	creds := os.Getenv(cfg.CredentialsEnv)
	if creds == "" {
		return nil, fmt.Errorf("sheets credentials: %s is not set", cfg.CredentialsEnv)
	}
	opts := []option.ClientOption{
		option.WithCredentialsJSON([]byte(creds)),
		option.WithScopes(sheets.SpreadsheetsScope),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return NewSheetsWithOptions(ctx, cfg, opts...)
}

// NewSheetsWithOptions builds the service from explicit client options.
func NewSheetsWithOptions(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*Sheets, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is empty")
	}
	rng := cfg.Range
	if rng == "" {
		rng = "Sheet1"
	}
	input := strings.ToUpper(cfg.ValueInputOption)
	switch input {
	case "":
		input = InputRaw
	case InputRaw, InputUserEntered:
	default:
		return nil, fmt.Errorf("sheets: unknown value input option %q", cfg.ValueInputOption)
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, rng: rng, inputOption: input}, nil
}

func (s *Sheets) Name() string { return "sheets" }

func (s *Sheets) AppendRow(ctx context.Context, row Row) error {
	values := make([]interface{}, len(row.Values))
	for i, v := range row.Values {
		if s.inputOption == InputUserEntered {
			v = escapeFormula(v)
		}
		values[i] = v
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption(s.inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

// escapeFormula prefixes an apostrophe to values Sheets would parse as a
// formula. The apostrophe is not stored in the cell.
func escapeFormula(v string) string {
	if v != "" && strings.ContainsRune("=+-@", rune(v[0])) {
		return "'" + v
	}
	return v
}
