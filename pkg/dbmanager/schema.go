package dbmanager

import (
	"context"
	"fmt"
	"strings"
)

const maxSampleValueLength = 100

// DescribeSchema renders every visible table as a CREATE TABLE block followed by
// a few example rows. It is recomputed on every call.
func (m *Manager) DescribeSchema(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tables, err := m.tables(ctx)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(tables))
	for _, table := range tables {
		block, err := m.describeTable(ctx, table)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	m.logger.Debug("described schema")
	return strings.Join(blocks, "\n\n"), nil
}

func (m *Manager) describeTable(ctx context.Context, table string) (string, error) {
	columnTypes, err := m.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return "", fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", table))
	for i, column := range columnTypes {
		result.WriteString(fmt.Sprintf("\t%s %s", m.quote(column.Name()), column.DatabaseTypeName()))
		if nullable, ok := column.Nullable(); ok && !nullable {
			result.WriteString(" NOT NULL")
		}
		if i < len(columnTypes)-1 {
			result.WriteString(",")
		}
		result.WriteString("\n")
	}
	result.WriteString(")")

	if m.schema.SampleRows == 0 {
		return result.String(), nil
	}

	columns, rows, err := m.sampleRows(ctx, table)
	if err != nil {
		return "", err
	}

	result.WriteString("\n\n/*\n")
	result.WriteString(fmt.Sprintf("%d rows from %s table:\n", m.schema.SampleRows, table))
	result.WriteString(strings.Join(columns, "\t"))
	for _, row := range rows {
		values := make([]string, len(row))
		for i, value := range row {
			values[i] = truncate(plainValue(value), maxSampleValueLength)
		}
		result.WriteString("\n")
		result.WriteString(strings.Join(values, "\t"))
	}
	result.WriteString("\n*/")

	return result.String(), nil
}

func (m *Manager) sampleRows(ctx context.Context, table string) ([]string, [][]interface{}, error) {
	rows, err := m.db.WithContext(ctx).Table(table).Limit(m.schema.SampleRows).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch example records for table %s: %w", table, err)
	}
	defer rows.Close()

	columns, records, err := scanRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch example records for table %s: %w", table, err)
	}
	return columns, records, nil
}
