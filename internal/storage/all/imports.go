// Package all wires all built-in storage backends into the storage factory.
//
// Importing it (as a blank import) runs each backend's init, which registers
// its factory and DDL support with the storage package. The kinds made
// available are:
//
//   - "postgres" (salesetl/internal/storage/postgres)
//   - "kafka"    (salesetl/internal/storage/kafka)
//   - "mssql"    (salesetl/internal/storage/mssql)
//   - "mysql"    (salesetl/internal/storage/mysql)
//   - "sqlite"   (salesetl/internal/storage/sqlite)
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "salesetl/internal/storage/kafka"
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/mysql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
