// Package ddl renders table.Table declarations to SQLite DDL text. It
// renders from the richer column.Column model, including constraint and
// foreign-key clauses beyond simple ALTER-time fragments.
package ddl

import (
	"fmt"
	"strings"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/table"
)

// CreateTable renders a full CREATE TABLE statement, including column
// definitions, table-level FOREIGN KEY clauses, and table-level
// constraints.
func CreateTable(t *table.Table) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", column.QuoteIdentifier(t.DBName())))

	var lines []string
	for _, c := range t.Columns() {
		if c.IsVirtual() {
			lines = append(lines, "  "+formatGeneratedColumn(c))
			continue
		}
		lines = append(lines, "  "+FormatColumnDefinition(c))
	}
	for _, c := range t.Columns() {
		if tbl, col, ok := c.ForeignKey(); ok {
			lines = append(lines, fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s (%s)",
				column.QuoteIdentifier(c.DBName()), column.QuoteIdentifier(tbl), column.QuoteIdentifier(col)))
		}
	}
	for _, c := range t.Constraints() {
		// Constraints are declared with host-language column names; the
		// rendered clause references the columns' db names.
		dbNames := make([]string, len(c.Columns))
		for i, name := range c.Columns {
			dbNames[i] = name
			if col, ok := t.Column(name); ok {
				dbNames[i] = col.DBName()
			}
		}
		c.Columns = dbNames
		if line := formatConstraint(c); line != "" {
			lines = append(lines, "  "+line)
		}
	}

	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	return sb.String()
}

// DropTable renders a DROP TABLE statement.
func DropTable(tableDBName string) string {
	return fmt.Sprintf("DROP TABLE %s", column.QuoteIdentifier(tableDBName))
}

// AddColumn renders an ALTER TABLE ... ADD COLUMN statement.
func AddColumn(tableDBName string, c column.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", column.QuoteIdentifier(tableDBName), FormatColumnDefinition(c))
}

// DropColumn renders an ALTER TABLE ... DROP COLUMN statement (SQLite
// 3.35+).
func DropColumn(tableDBName string, columnDBName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", column.QuoteIdentifier(tableDBName), column.QuoteIdentifier(columnDBName))
}

// RenameTable renders an ALTER TABLE ... RENAME TO statement.
func RenameTable(oldDBName, newDBName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", column.QuoteIdentifier(oldDBName), column.QuoteIdentifier(newDBName))
}

// RenameColumn renders an ALTER TABLE ... RENAME COLUMN statement.
func RenameColumn(tableDBName string, oldDBName, newDBName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		column.QuoteIdentifier(tableDBName), column.QuoteIdentifier(oldDBName), column.QuoteIdentifier(newDBName))
}

// AddIndex renders a CREATE [UNIQUE] INDEX statement.
func AddIndex(tableDBName string, idx table.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	cols := quoteAll(idx.Columns)
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, column.QuoteIdentifier(idx.Name), column.QuoteIdentifier(tableDBName), strings.Join(cols, ", "))
}

// DropIndex renders a DROP INDEX statement.
func DropIndex(idx table.Index) string {
	return fmt.Sprintf("DROP INDEX %s", column.QuoteIdentifier(idx.Name))
}

// FormatColumnDefinition formats one column's definition for CREATE/ALTER
// statements: name, storage type, PRIMARY KEY, NOT NULL, UNIQUE, DEFAULT
// — in that order, matching the clause ordering SQLite's own grammar
// requires.
func FormatColumnDefinition(c column.Column) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s", column.QuoteIdentifier(c.DBName()), string(c.StorageType())))

	if c.IsPrimaryKey() {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.NotNull() {
		sb.WriteString(" NOT NULL")
	}
	if c.IsUnique() && !c.IsPrimaryKey() {
		sb.WriteString(" UNIQUE")
	}
	if lit := c.Default(); lit != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(formatLiteral(lit))
	}
	return sb.String()
}

func formatGeneratedColumn(c column.Column) string {
	expr, _, _ := c.GeneratedExpr()
	return fmt.Sprintf("%s %s GENERATED ALWAYS AS (%s) VIRTUAL", column.QuoteIdentifier(c.DBName()), string(c.StorageType()), expr)
}

func formatConstraint(c table.Constraint) string {
	cols := quoteAll(c.Columns)
	switch c.Kind {
	case table.ConstraintPrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(cols, ", "))
	case table.ConstraintUnique:
		return fmt.Sprintf("UNIQUE (%s)", strings.Join(cols, ", "))
	case table.ConstraintCheck:
		return fmt.Sprintf("CHECK (%s)", c.Expr)
	default:
		return ""
	}
}

func formatLiteral(lit *column.Literal) string {
	switch {
	case lit.Null:
		return "NULL"
	case lit.String != nil:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(*lit.String, "'", "''"))
	case lit.Number != nil:
		return fmt.Sprintf("%v", *lit.Number)
	case lit.Bool != nil:
		if *lit.Bool {
			return "1"
		}
		return "0"
	default:
		return "NULL"
	}
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = column.QuoteIdentifier(n)
	}
	return out
}
