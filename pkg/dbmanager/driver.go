package dbmanager

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	"sql-research-assistant/internal/constants"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and verifies it is reachable.
func Open(config ConnectionConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", config.Type, err)
	}

	return db, nil
}

func dialectorFor(config ConnectionConfig) (gorm.Dialector, error) {
	switch config.Type {
	case constants.DatabaseTypeSQLite:
		return sqlite.Open(sqliteDSN(config)), nil
	case constants.DatabaseTypePostgreSQL:
		// lib/pq forwards unknown keys as run-time parameters
		db, err := sql.Open("postgres", postgresDSN(config))
		if err != nil {
			return nil, fmt.Errorf("failed to create connection: %w", err)
		}
		return postgres.New(postgres.Config{Conn: db}), nil
	case constants.DatabaseTypeMySQL:
		return mysql.Open(mysqlDSN(config)), nil
	case constants.DatabaseTypeClickhouse:
		return clickhouse.Open(clickhouseDSN(config)), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

func sqliteDSN(config ConnectionConfig) string {
	if config.ReadOnly {
		return fmt.Sprintf("file:%s?mode=ro", config.Path)
	}
	return config.Path
}

func postgresDSN(config ConnectionConfig) string {
	port := ptrOrEmpty(config.Port)
	if port == "" {
		port = "5432"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		config.Host, port, ptrOrEmpty(config.Username), config.Database)
	if config.Password != nil {
		dsn += fmt.Sprintf(" password=%s", *config.Password)
	}
	if config.ReadOnly {
		dsn += " default_transaction_read_only=on"
	}
	return dsn
}

func mysqlDSN(config ConnectionConfig) string {
	port := ptrOrEmpty(config.Port)
	if port == "" {
		port = "3306"
	}
	cfg := mysqldriver.NewConfig()
	cfg.User = ptrOrEmpty(config.Username)
	cfg.Passwd = ptrOrEmpty(config.Password)
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(config.Host, port)
	cfg.DBName = config.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func clickhouseDSN(config ConnectionConfig) string {
	port := ptrOrEmpty(config.Port)
	if port == "" {
		port = "9000"
	}
	u := url.URL{
		Scheme: "clickhouse",
		Host:   net.JoinHostPort(config.Host, port),
		Path:   "/" + config.Database,
	}
	if config.Username != nil {
		u.User = url.UserPassword(*config.Username, ptrOrEmpty(config.Password))
	}
	if config.ReadOnly {
		// readonly=2 still lets the client adjust session settings
		u.RawQuery = url.Values{"readonly": []string{"2"}}.Encode()
	}
	return u.String()
}
