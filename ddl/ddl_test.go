package ddl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormlite/ormlite/column"
	"github.com/ormlite/ormlite/ddl"
	"github.com/ormlite/ormlite/table"
)

func TestCreateTable_RendersColumnsAndForeignKeys(t *testing.T) {
	users := table.New("users", column.New("id", column.Integer).WithPrimaryKey())
	usersRef := func() column.Column {
		c, _ := users.Column("id")
		return c
	}

	posts := table.New("posts",
		column.New("id", column.Integer).WithPrimaryKey(),
		column.New("authorID", column.Integer).References(usersRef),
	)

	sql := ddl.CreateTable(posts)
	assert.Contains(t, sql, `CREATE TABLE posts`)
	assert.Contains(t, sql, `author_id INTEGER`)
	assert.Contains(t, sql, `FOREIGN KEY (author_id) REFERENCES users (id)`)
}

func TestCreateTable_RendersTableLevelConstraint(t *testing.T) {
	tbl := table.New("memberships",
		column.New("userID", column.Integer),
		column.New("orgID", column.Integer),
	).AddConstraint(table.Constraint{Kind: table.ConstraintUnique, Columns: []string{"userID", "orgID"}})

	sql := ddl.CreateTable(tbl)
	assert.Contains(t, sql, `UNIQUE (user_id, org_id)`)
}

func TestCreateTable_RendersGeneratedColumn(t *testing.T) {
	tbl := table.New("orders",
		column.New("qty", column.Integer),
		column.New("price", column.Integer),
		column.New("total", column.Integer).WithGeneratedAlwaysAs("(qty * price)", "total"),
	)
	sql := ddl.CreateTable(tbl)
	assert.Contains(t, sql, `total INTEGER GENERATED ALWAYS AS ((qty * price)) VIRTUAL`)
}

func TestFormatColumnDefinition_OrdersClauses(t *testing.T) {
	c := column.New("id", column.Integer).WithPrimaryKey().WithNotNull()
	assert.Equal(t, `id INTEGER PRIMARY KEY NOT NULL`, ddl.FormatColumnDefinition(c))
}

func TestFormatColumnDefinition_UniqueSkippedWhenPrimaryKey(t *testing.T) {
	c := column.New("id", column.Integer).WithPrimaryKey().WithUnique()
	assert.NotContains(t, ddl.FormatColumnDefinition(c), "UNIQUE")
}

func TestFormatColumnDefinition_RendersStringDefault(t *testing.T) {
	s := "pending"
	c := column.New("status", column.Text).WithDefault(&column.Literal{String: &s})
	assert.Equal(t, `status TEXT DEFAULT 'pending'`, ddl.FormatColumnDefinition(c))
}

func TestAddIndex_RendersUnique(t *testing.T) {
	sql := ddl.AddIndex("users", table.Index{Name: "idx_users_email", Columns: []string{"email"}, Unique: true})
	assert.Equal(t, `CREATE UNIQUE INDEX idx_users_email ON users (email)`, sql)
}

func TestRenameColumn(t *testing.T) {
	sql := ddl.RenameColumn("users", "old_name", "new_name")
	assert.Equal(t, `ALTER TABLE users RENAME COLUMN old_name TO new_name`, sql)
}

func TestDropTable(t *testing.T) {
	assert.Equal(t, `DROP TABLE users`, ddl.DropTable("users"))
}
