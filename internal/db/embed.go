package db

import "embed"

// migrationFS embeds all SQL migration files into the compiled binary.
//
//go:embed migrations/*.sql
var migrationFS embed.FS
