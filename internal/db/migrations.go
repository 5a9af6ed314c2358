package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/mamacare/internal/logger"
	embeddedmigrations "github.com/terraincognita07/mamacare/migrations"
	"gorm.io/gorm"
)

var (
	migrationFilePattern      = regexp.MustCompile(`^(\d+)_.*\.sql$`)
	addColumnStatementPattern = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)\s+ADD\s+COLUMN\s+([^\s]+)\b`)
)

type embeddedMigration struct {
	Version string
	Order   int
	Name    string
	SQL     string
}

// MigrationStatus describes one embedded migration and, when the connected
// database has recorded it, when it was applied.
type MigrationStatus struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

type appliedMigration struct {
	Version   string `gorm:"column:version"`
	AppliedAt string `gorm:"column:applied_at"`
}

var appliedAtLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"}

// parseAppliedAt accepts what either the driver or CURRENT_TIMESTAMP
// produces; unknown formats yield the zero time.
func parseAppliedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range appliedAtLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func applyEmbeddedMigrations(database *gorm.DB, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	migrations, applied, err := loadMigrationState(database)
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if _, done := applied[migration.Version]; done {
			continue
		}
		if err := applyMigration(database, migration); err != nil {
			return err
		}
		pending++
		log.Info("migration applied", "version", migration.Version, "name", migration.Name)
	}
	if pending > 0 {
		log.Info("schema up to date", "applied", pending, "total", len(migrations))
	}
	return nil
}

// ListMigrationStatus reports every embedded migration against the
// schema_migrations table of database.
func ListMigrationStatus(database *gorm.DB) ([]MigrationStatus, error) {
	migrations, applied, err := loadMigrationState(database)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		status := MigrationStatus{Version: migration.Version, Name: migration.Name}
		if appliedAt, ok := applied[migration.Version]; ok {
			appliedAt := appliedAt
			status.Applied = true
			status.AppliedAt = &appliedAt
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func loadMigrationState(database *gorm.DB) ([]embeddedMigration, map[string]time.Time, error) {
	if err := ensureSchemaMigrationsTable(database); err != nil {
		return nil, nil, err
	}
	migrations, err := loadEmbeddedMigrations()
	if err != nil {
		return nil, nil, err
	}

	rows := make([]appliedMigration, 0)
	if err := database.Raw(`SELECT version, applied_at FROM schema_migrations`).Scan(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("load applied migration versions: %w", err)
	}
	applied := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		applied[row.Version] = parseAppliedAt(row.AppliedAt)
	}
	return migrations, applied, nil
}

func ensureSchemaMigrationsTable(database *gorm.DB) error {
	const createTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := database.Exec(createTableSQL).Error; err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

// loadEmbeddedMigrations returns the NNN_name.sql files ordered by their
// numeric prefix. Two files sharing a prefix are rejected.
func loadEmbeddedMigrations() ([]embeddedMigration, error) {
	entries, err := fs.ReadDir(embeddedmigrations.Files, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	migrations := make([]embeddedMigration, 0, len(entries))
	byVersion := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := strings.TrimSpace(entry.Name())
		matches := migrationFilePattern.FindStringSubmatch(fileName)
		if len(matches) != 2 {
			continue
		}

		version := matches[1]
		if existing, exists := byVersion[version]; exists {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, existing, fileName)
		}
		byVersion[version] = fileName

		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", fileName, err)
		}
		rawSQL, err := fs.ReadFile(embeddedmigrations.Files, fileName)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", fileName, err)
		}

		migrations = append(migrations, embeddedMigration{
			Version: version,
			Order:   order,
			Name:    fileName,
			SQL:     string(rawSQL),
		})
	}

	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Order < migrations[j].Order
	})
	return migrations, nil
}

func applyMigration(database *gorm.DB, migration embeddedMigration) error {
	statements := splitSQLStatements(migration.SQL)
	if len(statements) == 0 {
		return fmt.Errorf("migration %s: %w", migration.Name, errors.New("no SQL statements"))
	}

	return database.Transaction(func(tx *gorm.DB) error {
		for _, statement := range statements {
			skip, err := columnAlreadyAdded(tx, statement)
			if err != nil {
				return fmt.Errorf("inspect migration %s: %w", migration.Name, err)
			}
			if skip {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("execute migration %s statement %q: %w", migration.Name, statement, err)
			}
		}

		if err := tx.Exec(
			`INSERT INTO schema_migrations(version, name) VALUES (?, ?)`,
			migration.Version,
			migration.Name,
		).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", migration.Name, err)
		}
		return nil
	})
}

// splitSQLStatements drops "--" comment lines and splits on semicolons.
// Migrations must not put semicolons inside string literals.
func splitSQLStatements(sqlText string) []string {
	lines := strings.Split(sqlText, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	statements := make([]string, 0)
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

// columnAlreadyAdded makes ALTER TABLE ... ADD COLUMN re-runnable against
// databases created before schema_migrations existed.
func columnAlreadyAdded(database *gorm.DB, statement string) (bool, error) {
	matches := addColumnStatementPattern.FindStringSubmatch(statement)
	if len(matches) != 3 {
		return false, nil
	}
	return tableHasColumn(database, unquoteIdentifier(matches[1]), unquoteIdentifier(matches[2]))
}

func tableHasColumn(database *gorm.DB, tableName string, columnName string) (bool, error) {
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(tableName, `"`, `""`))

	var columns []struct {
		Name string `gorm:"column:name"`
	}
	if err := database.Raw(query).Scan(&columns).Error; err != nil {
		return false, fmt.Errorf("load table_info for %s: %w", tableName, err)
	}
	for _, column := range columns {
		if strings.EqualFold(strings.TrimSpace(column.Name), columnName) {
			return true, nil
		}
	}
	return false, nil
}

func unquoteIdentifier(identifier string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(identifier), "\"`[]"))
}
