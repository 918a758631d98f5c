package dbmanager

import (
	"strings"
	"time"
)

// ConnectionConfig holds the configuration for a database connection
type ConnectionConfig struct {
	Type     string  `json:"type"`
	Path     string  `json:"path,omitempty"` // SQLite database file
	Host     string  `json:"host,omitempty"`
	Port     *string `json:"port,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Database string  `json:"database,omitempty"`

	// ReadOnly opens the connection so that generated queries cannot write.
	ReadOnly bool `json:"read_only"`
}

// SchemaOptions control how the schema description is rendered.
type SchemaOptions struct {
	SampleRows    int
	IncludeTables []string
}

// QueryExecutionResult represents the result of a query execution
type QueryExecutionResult struct {
	Columns       []string        `json:"columns"`
	Rows          [][]interface{} `json:"rows"`
	ResultText    string          `json:"result_text"`
	ExecutionTime int             `json:"execution_time"`
	Timestamp     time.Time       `json:"-"`
}

func ptrOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isInternalTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "sqlite_")
}
