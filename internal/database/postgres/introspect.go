package postgres

import (
	"context"
	"fmt"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
)

// ListTables returns all user-defined table names in the public schema.
func (p *Pool) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableExists checks whether a table exists in the public schema.
func (p *Pool) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`

	row, err := p.QueryRow(ctx, q, table)
	if err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	return exists, nil
}

// InspectTable returns column details for a single table.
func (p *Pool) InspectTable(ctx context.Context, table string) (*database.TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			c.column_default,
			c.character_maximum_length,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.table_schema = c.table_schema
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
				  AND tc.constraint_type = 'PRIMARY KEY'
			) AS is_primary_key,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.table_schema = c.table_schema
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
				  AND tc.constraint_type = 'UNIQUE'
			) AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := p.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	info := &database.TableInfo{Name: table}
	for rows.Next() {
		var col database.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable,
			&col.Default, &col.MaxLength, &col.IsPrimaryKey, &col.IsUnique); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		info.Columns = append(info.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found", table)
	}
	return info, nil
}
