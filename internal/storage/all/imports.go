// Package all enables every built-in export backend. Import it for side
// effects only:
//
//	import _ "csvdedupe/internal/storage/all"
//
// Kinds registered: "postgres", "sqlite", "mysql", "sqlserver".
package all

import (
	_ "csvdedupe/internal/storage/mssql"
	_ "csvdedupe/internal/storage/mysql"
	_ "csvdedupe/internal/storage/postgres"
	_ "csvdedupe/internal/storage/sqlite"
)
