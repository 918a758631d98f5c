package constants

const (
	DatabaseTypeSQLite     = "sqlite"
	DatabaseTypePostgreSQL = "postgresql"
	DatabaseTypeMySQL      = "mysql"
	DatabaseTypeClickhouse = "clickhouse"
)

const (
	// DefaultSampleRows is the number of example rows rendered per table.
	DefaultSampleRows = 2

	// DefaultTableName is the table the CSV importer writes to.
	DefaultTableName = "retail_data"

	// MaxResultValueLength caps a single rendered result value.
	MaxResultValueLength = 300
)
