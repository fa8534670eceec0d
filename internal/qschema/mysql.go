package qschema

import (
	"context"
	"database/sql"
	"strings"

	"smf/internal/qv"
)

// MySQLColumnInitialiser reflects columns via
// information_schema.columns, grounded directly on
// internal/introspect/mysql/columns.go's query shape and NULL-string
// handling idiom.
type MySQLColumnInitialiser struct{}

func (MySQLColumnInitialiser) InitColumns(ctx context.Context, db *sql.DB, databaseName, tableName string) ([]*Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.column_key
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, databaseName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []*Column
	for rows.Next() {
		var name, colType, nullable, extra, colKey sql.NullString
		var defaultVal sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &defaultVal, &extra, &colKey); err != nil {
			return nil, err
		}

		col := &Column{
			DBName:        name.String,
			Datatype:      mysqlDatatype(colType.String),
			Nullable:      nullable.String == "YES",
			PrimaryKey:    colKey.String == "PRI",
			AutoIncrement: strings.Contains(extra.String, "auto_increment"),
		}

		switch {
		case !defaultVal.Valid, defaultVal.String == "NULL":
			col.Default = ColumnDefault{Kind: NoDefault}
		case strings.EqualFold(defaultVal.String, "CURRENT_TIMESTAMP"):
			col.Default = ColumnDefault{Kind: CurrentTimestampDefault}
		default:
			casted, castErr := qv.New(qv.String, defaultVal.String).CastTo(col.Datatype)
			if castErr != nil {
				col.Default = ColumnDefault{Kind: LiteralDefault, Value: qv.New(qv.String, defaultVal.String)}
				break
			}
			col.Default = ColumnDefault{Kind: LiteralDefault, Value: casted}
		}

		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// mysqlDatatype maps a raw MySQL column_type (e.g. "varchar(255)",
// "int(11) unsigned", "bigint(20)") to a qv.Datatype. It strips the
// parenthesized width and any trailing modifier such as "unsigned",
// uppercases the base type keyword, and keeps MySQL's own INT/BIGINT/
// DATE/TIME/DATETIME distinctions. internal/core/schema.go's
// NormalizeDataType instead matches lowercase substrings into coarser
// DDL-oriented categories; the query layer needs to tell Date, Time,
// and DateTime apart for casting and comparison purposes.
func mysqlDatatype(rawType string) qv.Datatype {
	base := strings.ToUpper(strings.TrimSpace(rawType))
	if idx := strings.IndexByte(base, '('); idx >= 0 {
		base = base[:idx]
	}
	if idx := strings.IndexByte(base, ' '); idx >= 0 {
		base = base[:idx]
	}

	switch base {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER":
		return qv.Int
	case "BIGINT":
		return qv.Long
	case "FLOAT", "DOUBLE", "DECIMAL", "DEC", "NUMERIC", "FIXED":
		return qv.Double
	case "BOOL", "BOOLEAN":
		return qv.Bool
	case "DATE":
		return qv.Date
	case "TIME":
		return qv.Time
	case "DATETIME", "TIMESTAMP":
		return qv.DateTime
	default:
		return qv.String
	}
}

// MySQLTableReferenceReader reflects foreign-key references via
// information_schema.key_column_usage, the exact query spec.md §6
// prescribes, keyed by (TABLE_SCHEMA, TABLE_NAME,
// REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME).
type MySQLTableReferenceReader struct{}

func (MySQLTableReferenceReader) ReadReferences(ctx context.Context, db *sql.DB, from, to *Table) ([]TableReference, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COLUMN_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA=? AND TABLE_NAME=? AND REFERENCED_TABLE_SCHEMA=? AND REFERENCED_TABLE_NAME=?
	`, from.DatabaseName, from.Name, to.DatabaseName, to.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []TableReference
	for rows.Next() {
		var fromCol, toCol string
		if err := rows.Scan(&fromCol, &toCol); err != nil {
			return nil, err
		}
		fc, err := from.FindColumnByDBName(ctx, db, fromCol)
		if err != nil {
			return nil, err
		}
		tc, err := to.FindColumnByDBName(ctx, db, toCol)
		if err != nil {
			return nil, err
		}
		refs = append(refs, TableReference{
			ReferencingTable:  from,
			ReferencingColumn: fc,
			ReferencedTable:   to,
			ReferencedColumn:  tc,
		})
	}
	return refs, rows.Err()
}
