package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Run executes a generated query as-is and renders its rows as text.
func (m *Manager) Run(ctx context.Context, query string) (string, error) {
	result, err := m.ExecuteQuery(ctx, query)
	if err != nil {
		return "", err
	}
	return result.ResultText, nil
}

// ExecuteQuery executes the query inside a read-only transaction when the
// connection is read-only and the dialect supports transactions.
func (m *Manager) ExecuteQuery(ctx context.Context, query string) (*QueryExecutionResult, error) {
	startTime := time.Now()
	m.logger.Debug("executing query", zap.String("query", query))

	var columns []string
	var records [][]interface{}
	execute := func(tx *gorm.DB) error {
		rows, err := tx.Raw(query).Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, records, err = scanRows(rows)
		return err
	}

	var err error
	if m.readOnly && m.supportsTransactions() {
		err = m.withReadOnlyTx(ctx, execute)
	} else {
		err = execute(m.db.WithContext(ctx))
	}
	if err != nil {
		m.logger.Warn("query execution failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	return &QueryExecutionResult{
		Columns:       columns,
		Rows:          records,
		ResultText:    FormatResult(records),
		ExecutionTime: int(time.Since(startTime).Milliseconds()),
		Timestamp:     startTime,
	}, nil
}

func (m *Manager) withReadOnlyTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := m.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	// Nothing is ever committed.
	defer tx.Rollback()

	return fn(tx)
}

func scanRows(rows *sql.Rows) ([]string, [][]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}

	records := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, value := range values {
			if b, ok := value.([]byte); ok {
				values[i] = string(b)
			}
		}
		records = append(records, values)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return columns, records, nil
}
