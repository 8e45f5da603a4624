package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

var sheetsTracer = otel.Tracer("survey.internal.sheets")

// ErrWorksheetNotFound is returned when the named worksheet does not exist.
var ErrWorksheetNotFound = errors.New("sheets: worksheet not found")

// Reader fetches every row of a worksheet as strings, in row order.
type Reader interface {
	Fetch(ctx context.Context, worksheet string) ([][]string, error)
}

// Writer appends a single row at the end of a worksheet.
type Writer interface {
	AppendRow(ctx context.Context, worksheet string, row []string) error
}

// API is the slice of the Sheets v4 service the client depends on.
type API interface {
	WorksheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	GetValues(ctx context.Context, spreadsheetID, rangeA1 string) ([][]interface{}, error)
	AppendValues(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error
}

// Client reads and writes worksheets of one spreadsheet.
type Client struct {
	api           API
	spreadsheetID string
	timeout       time.Duration
	logger        *logging.Logger
}

// NewClient wraps api for the given spreadsheet.
func NewClient(api API, spreadsheetID string, logger *logging.Logger) *Client {
	if api == nil {
		panic("sheets: api cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{api: api, spreadsheetID: spreadsheetID, logger: logger}
}

// SetTimeout bounds every Sheets API call. Zero leaves calls unbounded.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

var (
	_ Reader = (*Client)(nil)
	_ Writer = (*Client)(nil)
)

// SpreadsheetID returns the id of the spreadsheet the client is bound to.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

// Open verifies the spreadsheet is reachable and returns its worksheet titles.
func (c *Client) Open(ctx context.Context) ([]string, error) {
	ctx, span := sheetsTracer.Start(ctx, "sheets.open")
	defer span.End()
	span.SetAttributes(attribute.String("survey.spreadsheet_id", c.spreadsheetID))

	if strings.TrimSpace(c.spreadsheetID) == "" {
		return nil, errors.New("sheets: spreadsheet id required")
	}
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	titles, err := c.api.WorksheetTitles(callCtx, c.spreadsheetID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sheets: open spreadsheet %s: %w", c.spreadsheetID, err)
	}
	c.logger.Info("spreadsheet opened", "spreadsheet_id", c.spreadsheetID, "worksheets", titles)
	return titles, nil
}

// Fetch returns all values of worksheet. Ragged rows are kept as-is.
func (c *Client) Fetch(ctx context.Context, worksheet string) ([][]string, error) {
	ctx, span := sheetsTracer.Start(ctx, "sheets.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("survey.worksheet", worksheet))

	c.logger.Debug("fetching worksheet", "worksheet", worksheet)
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	raw, err := c.api.GetValues(callCtx, c.spreadsheetID, worksheetRange(worksheet))
	if err != nil {
		span.RecordError(err)
		if isMissingWorksheet(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorksheetNotFound, worksheet)
		}
		return nil, fmt.Errorf("sheets: fetch %s: %w", worksheet, err)
	}
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		row := make([]string, len(r))
		for i, cell := range r {
			row[i] = cellString(cell)
		}
		rows = append(rows, row)
	}
	c.logger.Debug("fetched worksheet", "worksheet", worksheet, "rows", len(rows))
	return rows, nil
}

// AppendRow appends row after the last non-empty row of worksheet.
func (c *Client) AppendRow(ctx context.Context, worksheet string, row []string) error {
	ctx, span := sheetsTracer.Start(ctx, "sheets.append")
	defer span.End()
	span.SetAttributes(attribute.String("survey.worksheet", worksheet))

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	if err := c.api.AppendValues(callCtx, c.spreadsheetID, worksheetRange(worksheet), [][]interface{}{values}); err != nil {
		span.RecordError(err)
		if isMissingWorksheet(err) {
			return fmt.Errorf("%w: %s", ErrWorksheetNotFound, worksheet)
		}
		return fmt.Errorf("sheets: append to %s: %w", worksheet, err)
	}
	c.logger.Info("row appended", "worksheet", worksheet)
	return nil
}

// worksheetRange builds an A1 range covering the whole worksheet.
func worksheetRange(worksheet string) string {
	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'"
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func isMissingWorksheet(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range")
}

// GoogleAPI adapts the generated Sheets v4 service to API.
type GoogleAPI struct {
	svc *gsheets.Service
}

// NewGoogleAPI builds a Sheets service. credentialsFile may be empty to use
// application default credentials.
func NewGoogleAPI(ctx context.Context, credentialsFile string) (*GoogleAPI, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &GoogleAPI{svc: svc}, nil
}

var _ API = (*GoogleAPI)(nil)

func (g *GoogleAPI) WorksheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (g *GoogleAPI) GetValues(ctx context.Context, spreadsheetID, rangeA1 string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rangeA1).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *GoogleAPI) AppendValues(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, rangeA1, &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
