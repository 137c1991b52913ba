// =============================================================================
// aqtools - Sensor Reading Extraction
// =============================================================================
//
// This module pulls hourly sensor readings out of a relational store and
// reshapes them into one wide table:
//
//   readings (long)                      wide table
//   | sname | time  | pm25 |             | TimeStamp | s1 | s2  |
//   |-------|-------|------|     ==>     |-----------|----|-----|
//   | s1    | 00:00 | 12   |             | 00:00     | 12 | 7   |
//   | s2    | 00:00 | 7    |             | 01:00     | 15 | NaN |
//   | s1    | 01:00 | 15   |
//
// Every distinct timestamp becomes a row and every distinct station a column.
// Stations without a reading at a timestamp, NULL readings and sentinel
// values are missing cells.
//
// SECURITY:
//   Identifiers come from configuration and are checked against an
//   allow-list pattern, then quoted. Values are always bound parameters.
//
// =============================================================================

package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/types"

	_ "modernc.org/sqlite"
)

// IDHeader is the identifier column label of extracted tables.
const IDHeader = "TimeStamp"

// timestampLayout renders timestamps read as time.Time.
const timestampLayout = "2006-01-02 15:04:05"

// parameters lists the measured quantities by their historical index.
var parameters = map[int]string{
	3:  "so2",
	4:  "no",
	5:  "no2",
	6:  "nox",
	7:  "co",
	8:  "ox",
	9:  "nmhc",
	10: "ch4",
	11: "thc",
	12: "spm",
	13: "pm25",
	14: "sp",
	15: "wd",
	16: "ws",
	17: "temp",
	18: "hum",
}

// Parameters returns the supported parameter names in index order.
func Parameters() []string {
	out := make([]string, 0, len(parameters))
	for i := 3; i <= 18; i++ {
		out = append(out, parameters[i])
	}
	return out
}

// ResolveParameter accepts a parameter name or its index (3..18) and returns
// the column name.
func ResolveParameter(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if idx, err := strconv.Atoi(s); err == nil {
		name, ok := parameters[idx]
		if !ok {
			return "", fmt.Errorf("parameter index %d out of range 3..18", idx)
		}
		return name, nil
	}

	for _, name := range parameters {
		if name == s {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown parameter %q (supported: %s)", s, strings.Join(Parameters(), ", "))
}

// =============================================================================
// CONNECTION
// =============================================================================

// Open connects to the store and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if driver == "sqlite" {
		// An in-memory database exists once per connection.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}

	return db, nil
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Query selects the readings to extract.
type Query struct {
	Table         string
	StationColumn string
	TimeColumn    string
	Parameter     string
	Sentinels     []float64
}

// QueryFromConfig builds a query from the database settings.
func QueryFromConfig(s config.DatabaseSettings) Query {
	return Query{
		Table:         s.Table,
		StationColumn: s.StationColumn,
		TimeColumn:    s.TimeColumn,
		Parameter:     s.Parameter,
		Sentinels:     s.Sentinels,
	}
}

func (q Query) validate() (Query, error) {
	for label, ident := range map[string]string{
		"table":          q.Table,
		"station column": q.StationColumn,
		"time column":    q.TimeColumn,
	} {
		if !config.ValidIdentifier(ident) {
			return q, fmt.Errorf("%s %q is not a valid identifier", label, ident)
		}
	}

	param, err := ResolveParameter(q.Parameter)
	if err != nil {
		return q, err
	}
	q.Parameter = param
	return q, nil
}

// Stats describes an extraction.
type Stats struct {
	Timestamps int
	Stations   int
	Readings   int
	Missing    int
	Duration   time.Duration
}

// Extractor reads sensor readings from a database.
type Extractor struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// NewExtractor creates an extractor over db. driver selects the placeholder
// syntax.
func NewExtractor(db *sql.DB, driver string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{db: db, driver: driver, logger: logger}
}

func (e *Extractor) placeholder(n int) string {
	if e.driver == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Extract builds the wide table of q.Parameter, one row per distinct
// timestamp and one column per distinct station, both ascending.
func (e *Extractor) Extract(ctx context.Context, q Query) (*types.Table, *Stats, error) {
	start := time.Now()

	q, err := q.validate()
	if err != nil {
		return nil, nil, err
	}

	tbl := pq.QuoteIdentifier(q.Table)
	stationCol := pq.QuoteIdentifier(q.StationColumn)
	timeCol := pq.QuoteIdentifier(q.TimeColumn)
	paramCol := pq.QuoteIdentifier(q.Parameter)

	timestamps, err := e.distinct(ctx, timeCol, tbl)
	if err != nil {
		return nil, nil, fmt.Errorf("read timestamps: %w", err)
	}
	stations, err := e.distinct(ctx, stationCol, tbl)
	if err != nil {
		return nil, nil, fmt.Errorf("read stations: %w", err)
	}

	e.logger.Info("extraction plan",
		zap.String("parameter", q.Parameter),
		zap.Int("timestamps", len(timestamps)),
		zap.Int("stations", len(stations)),
	)

	table := &types.Table{
		IDHeader: IDHeader,
		Columns:  stations,
		Rows:     make([]types.Row, len(timestamps)),
		Source:   q.Table,
	}
	rowIndex := make(map[string]int, len(timestamps))
	for i, ts := range timestamps {
		rowIndex[ts] = i
		table.Rows[i] = types.Row{ID: ts, Cells: make([]types.Cell, len(stations))}
		for c := range stations {
			table.Rows[i].Cells[c] = types.Missing("")
		}
	}

	stats := &Stats{Timestamps: len(timestamps), Stations: len(stations)}

	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = %s ORDER BY %s ASC",
		timeCol, paramCol, tbl, stationCol, e.placeholder(1), timeCol)

	for c, station := range stations {
		n, err := e.readStation(ctx, query, station, c, q.Sentinels, table, rowIndex)
		if err != nil {
			return nil, nil, fmt.Errorf("read station %q: %w", station, err)
		}
		e.logger.Debug("station extracted", zap.String("station", station), zap.Int("readings", n))
	}

	// Duplicate (station, time) rows overwrite the same cell, so the counts
	// come from the finished table.
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			if cell.Kind == types.CellNumeric {
				stats.Readings++
			}
		}
	}
	stats.Missing = len(timestamps)*len(stations) - stats.Readings
	stats.Duration = time.Since(start)

	e.logger.Info("extraction complete",
		zap.Int("readings", stats.Readings),
		zap.Int("missing", stats.Missing),
		zap.Duration("duration", stats.Duration),
	)

	return table, stats, nil
}

func (e *Extractor) readStation(
	ctx context.Context,
	query, station string,
	column int,
	sentinels []float64,
	table *types.Table,
	rowIndex map[string]int,
) (int, error) {
	rows, err := e.db.QueryContext(ctx, query, station)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var ts any
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &value); err != nil {
			return n, err
		}

		r, ok := rowIndex[formatValue(ts)]
		if !ok {
			continue
		}

		switch {
		case !value.Valid:
			table.Rows[r].Cells[column] = types.Missing("")
		case isSentinel(value.Float64, sentinels):
			table.Rows[r].Cells[column] = types.Missing(strconv.FormatFloat(value.Float64, 'f', -1, 64))
		default:
			table.Rows[r].Cells[column] = types.Number(value.Float64)
		}
		n++
	}

	return n, rows.Err()
}

// distinct returns the distinct values of column in ascending order.
func (e *Extractor) distinct(ctx context.Context, column, table string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s ASC",
		column, table, column, column)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, formatValue(v))
	}
	return out, rows.Err()
}

// formatValue renders a scanned identifier value as text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(timestampLayout)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func isSentinel(v float64, sentinels []float64) bool {
	for _, s := range sentinels {
		if v == s {
			return true
		}
	}
	return false
}
