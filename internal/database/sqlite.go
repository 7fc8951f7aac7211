package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is go-sqlite3 with lower() replaced by a Unicode-aware
// version. The built-in one only folds ASCII, so case-insensitive search
// over non-Latin names would differ from postgres.
const SQLiteDriverName = "sqlite3_foodgram"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

// unicodeLower mirrors lower(): text and blobs are folded, numbers pass
// through, and NULL (a nil blob from the driver) stays NULL
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	}
	return v
}

// SQLiteDialector opens dsn through SQLiteDriverName
func SQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}
