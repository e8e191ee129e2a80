package source

// Supported source dialects, registered with database/sql. The driver
// name in ConnectionConfig selects one of these.
import (
	_ "github.com/ClickHouse/clickhouse-go/v2" // clickhouse
	_ "github.com/go-sql-driver/mysql"         // mysql
	_ "github.com/lib/pq"                      // postgres
	_ "github.com/microsoft/go-mssqldb"        // sqlserver
)
