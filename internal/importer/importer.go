package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	IndexColumn      = "index"
	DefaultBatchSize = 500
)

// Column types written by the importer.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

type Options struct {
	Table     string
	BatchSize int
}

type Result struct {
	Table   string
	Columns []Column
	Rows    int
}

type Column struct {
	Name string
	Type string
}

// Import replaces table with the rows of a CSV snapshot. The first record is
// the header. A leading integer "index" column numbers the rows from zero and
// empty cells become NULL. Everything runs in one transaction.
func Import(ctx context.Context, db *gorm.DB, r io.Reader, opts Options, logger *zap.Logger) (*Result, error) {
	if opts.Table == "" {
		return nil, errors.New("table name is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	columns := InferColumns(header, records)

	rows := make([]map[string]interface{}, 0, len(records))
	for i, record := range records {
		row := make(map[string]interface{}, len(columns)+1)
		row[IndexColumn] = int64(i)
		for j, column := range columns {
			row[column.Name] = convert(record[j], column.Type)
		}
		rows = append(rows, row)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(opts.Table) {
			if err := tx.Migrator().DropTable(opts.Table); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", opts.Table, err)
			}
		}
		if err := tx.Exec(createTableStatement(tx, opts.Table, columns)).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", opts.Table, err)
		}
		if err := tx.Exec(fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quote(tx, "ix_"+opts.Table+"_"+IndexColumn), quote(tx, opts.Table), quote(tx, IndexColumn),
		)).Error; err != nil {
			return fmt.Errorf("failed to index table %s: %w", opts.Table, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Table(opts.Table).CreateInBatches(rows, opts.BatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("imported csv",
		zap.String("table", opts.Table),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
	)
	return &Result{Table: opts.Table, Columns: columns, Rows: len(rows)}, nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("csv has no header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if name == IndexColumn || seen[name] {
			return nil, nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return header, records, nil
}

// InferColumns picks INTEGER when every non-empty value parses as an integer,
// REAL when every one parses as a number, else TEXT. Columns without any value
// are TEXT.
func InferColumns(header []string, records [][]string) []Column {
	columns := make([]Column, len(header))
	for j, name := range header {
		isInt, isFloat, seen := true, true, false
		for _, record := range records {
			value := strings.TrimSpace(record[j])
			if value == "" {
				continue
			}
			seen = true
			if isInt {
				if _, err := strconv.ParseInt(value, 10, 64); err != nil {
					isInt = false
				}
			}
			if !isInt {
				if _, err := strconv.ParseFloat(value, 64); err != nil {
					isFloat = false
					break
				}
			}
		}

		columnType := TypeText
		switch {
		case seen && isInt:
			columnType = TypeInteger
		case seen && isFloat:
			columnType = TypeReal
		}
		columns[j] = Column{Name: name, Type: columnType}
	}
	return columns
}

func convert(value, columnType string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	switch columnType {
	case TypeInteger:
		v, _ := strconv.ParseInt(trimmed, 10, 64)
		return v
	case TypeReal:
		v, _ := strconv.ParseFloat(trimmed, 64)
		return v
	default:
		return value
	}
}

func createTableStatement(db *gorm.DB, table string, columns []Column) string {
	definitions := make([]string, 0, len(columns)+1)
	definitions = append(definitions, fmt.Sprintf("%s %s", quote(db, IndexColumn), TypeInteger))
	for _, column := range columns {
		definitions = append(definitions, fmt.Sprintf("%s %s", quote(db, column.Name), column.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quote(db, table), strings.Join(definitions, ",\n\t"))
}

func quote(db *gorm.DB, name string) string {
	var b strings.Builder
	db.Dialector.QuoteTo(&b, name)
	return b.String()
}
