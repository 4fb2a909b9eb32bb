// Package column implements the per-column metadata model: an immutable
// value with fluent cloners, each modifier returning a new Column rather
// than mutating the receiver. This is the richer, application-facing
// model the schema builder exposes, distinct from a flat DDL-only column
// description that only ever gets read back from a live database or a
// DDL file.
package column

// StorageType is the physical SQLite storage class a column is declared
// with.
type StorageType string

const (
	Integer StorageType = "INTEGER"
	Real    StorageType = "REAL"
	Text    StorageType = "TEXT"
	Blob    StorageType = "BLOB"
)

// AppType is an optional application-level interpretation layered on top
// of a StorageType, translated through a codec pair at the storage
// boundary.
type AppType string

const (
	AppDate    AppType = "date"
	AppBoolean AppType = "boolean"
	AppEnum    AppType = "enum"
	AppJSON    AppType = "json"
	AppID      AppType = "id"
)

// InsertType classifies how a column participates in Table.make/insert.
type InsertType string

const (
	Required    InsertType = "required"
	Optional    InsertType = "optional"
	WithDefault InsertType = "withDefault"
	Virtual     InsertType = "virtual"
)

// CreationContext is passed to a DefaultFn or OnUpdateFn thunk. It carries
// the principal the caller passed to Table.Insert/Update for the row being
// built, so defaults like "createdBy" can be derived without a second
// round trip.
type CreationContext struct {
	Principal any
}

// DefaultFn is an application-level default value thunk, invoked by
// Table.make for columns that have no override (it takes precedence over
// a literal default set on the same column).
type DefaultFn func(ctx CreationContext) any

// OnUpdateFn is invoked by Table.update to compute a column's value when
// the caller's update data does not already set it (e.g. updatedAt).
type OnUpdateFn func(ctx CreationContext) any

// Encoder translates an application-level column value into its storage
// representation; Decoder is its inverse. These are mutual: a column
// with a non-trivial AppType representation must supply both or neither.
type Encoder func(appValue any) (storageValue any, err error)
type Decoder func(storageValue any) (appValue any, err error)

// tableBinding is the minimal view of an owning Table a Column needs once
// attached. table.Table implements it.
type tableBinding interface {
	Name() string
	DBName() string
}

// Column is an immutable column descriptor. Every modifier returns a new
// Column; none mutate the receiver, so a Column can be shared and
// extended by multiple callers without aliasing surprises.
type Column struct {
	name      string
	dbName    string
	storage   StorageType
	appType   AppType
	hasApp    bool
	insert    InsertType
	notNull   bool
	primary   bool
	uniq      bool
	fkTarget  func() (table string, column string, ok bool)
	dflt      *Literal
	genAlways string
	genAlias  string
	renamed   string
	enumVals  []string
	validator Validator
	appDflt   DefaultFn
	hasAppDf  bool
	onUpdate  OnUpdateFn
	encode    Encoder
	decode    Decoder
	goType    string

	table tableBinding // set once by Table.attach; nil until then
}

// Literal is a DB-level default value: a string, number, bool, or nil
// (SQL NULL). It exists as its own type so "no default" (Default == nil)
// is distinguishable from "default is SQL NULL" (Default == &Literal{Null: true}).
type Literal struct {
	Null   bool
	String *string
	Number *float64
	Bool   *bool
}

// New declares a column with the given host name and storage type. The
// db name defaults to the snake_case form of the host name.
func New(name string, storage StorageType) Column {
	return Column{
		name:    name,
		dbName:  ToSnakeCase(name),
		storage: storage,
		insert:  Optional,
	}
}

func (c Column) clone() Column {
	return c
}

// Name returns the host-language column name.
func (c Column) Name() string { return c.name }

// DBName returns the snake_case column name.
func (c Column) DBName() string { return c.dbName }

// StorageType returns the column's physical storage class.
func (c Column) StorageType() StorageType { return c.storage }

// AppType returns the column's application-level type and whether one is set.
func (c Column) AppType() (AppType, bool) { return c.appType, c.hasApp }

// InsertType returns how the column participates in inserts.
func (c Column) InsertType() InsertType { return c.insert }

// NotNull reports the notNull flag.
func (c Column) NotNull() bool { return c.notNull }

// IsPrimaryKey reports the primaryKey flag.
func (c Column) IsPrimaryKey() bool { return c.primary }

// IsUnique reports the unique flag.
func (c Column) IsUnique() bool { return c.uniq }

// IsVirtual reports whether the column is computed by the database and
// cannot be inserted or updated.
func (c Column) IsVirtual() bool { return c.insert == Virtual }

// Default returns the literal DB-level default, if any.
func (c Column) Default() *Literal { return c.dflt }

// GeneratedAlwaysAs returns the generated expression, if any.
func (c Column) GeneratedAlwaysAs() string { return c.genAlways }

// RenamedFrom returns the rename hint consumed by the diff engine.
func (c Column) RenamedFrom() string { return c.renamed }

// EnumValues returns the allowed values for an AppEnum column.
func (c Column) EnumValues() []string { return c.enumVals }

// Validator returns the capability handle for an AppJSON column, if any.
func (c Column) Validator() Validator { return c.validator }

// GoType returns the doc-only generic marker set by WithGoType, if any.
func (c Column) GoType() string { return c.goType }

// ForeignKey resolves the lazily-recorded reference target, if any. ok is
// false if references() was never called, or if it was called with a
// column that is (still) unattached to a table.
func (c Column) ForeignKey() (table string, col string, ok bool) {
	if c.fkTarget == nil {
		return "", "", false
	}
	return c.fkTarget()
}

// WithNotNull sets notNull=true and transitions insertType to required unless
// the column already carries a default.
func (c Column) WithNotNull() Column {
	c = c.clone()
	c.notNull = true
	if c.insert != WithDefault {
		c.insert = Required
	}
	return c
}

// WithPrimaryKey sets primaryKey=true.
func (c Column) WithPrimaryKey() Column {
	c = c.clone()
	c.primary = true
	return c
}

// WithUnique sets unique=true.
func (c Column) WithUnique() Column {
	c = c.clone()
	c.uniq = true
	return c
}

// WithDefault stores a literal DB default and transitions insertType to
// withDefault. Pass nil to mean SQL NULL.
func (c Column) WithDefault(lit *Literal) Column {
	c = c.clone()
	if lit == nil {
		lit = &Literal{Null: true}
	}
	c.dflt = lit
	c.insert = WithDefault
	return c
}

// WithDefaultFn attaches an application-level default thunk. No DB-level
// default is emitted; insertType transitions to withDefault.
func (c Column) WithDefaultFn(fn DefaultFn) Column {
	c = c.clone()
	c.appDflt = fn
	c.hasAppDf = true
	c.insert = WithDefault
	return c
}

// WithOnUpdateFn attaches an on-update thunk consumed by Table.update.
func (c Column) WithOnUpdateFn(fn OnUpdateFn) Column {
	c = c.clone()
	c.onUpdate = fn
	return c
}

// GetOnUpdateFn returns the attached on-update thunk, if any.
func (c Column) GetOnUpdateFn() (OnUpdateFn, bool) {
	return c.onUpdate, c.onUpdate != nil
}

// DefaultFnValue invokes the attached app-level default thunk, if any.
func (c Column) DefaultFnValue(ctx CreationContext) (any, bool) {
	if !c.hasAppDf || c.appDflt == nil {
		return nil, false
	}
	return c.appDflt(ctx), true
}

// References lazily records a foreign key target. target is invoked at
// resolution time (snapshot/DDL rendering), not at declaration time, so
// tables may reference each other cyclically in declaration order. If
// target() returns a column that is not (yet) attached to a table,
// ForeignKey reports ok=false rather than erroring, treating it as
// "a fk-less column" rather than a failure.
func (c Column) References(target func() Column) Column {
	c = c.clone()
	c.fkTarget = func() (string, string, bool) {
		other := target()
		if other.table == nil {
			return "", "", false
		}
		return other.table.DBName(), other.dbName, true
	}
	return c
}

// WithGeneratedAlwaysAs marks the column virtual and records the generated
// expression. alias is used when the column is interpolated into a SELECT
// list by the template composer.
func (c Column) WithGeneratedAlwaysAs(expr string, alias string) Column {
	c = c.clone()
	c.genAlways = expr
	c.genAlias = alias
	c.insert = Virtual
	return c
}

// WithRenamedFrom records a rename hint consumed only by the diff engine.
func (c Column) WithRenamedFrom(oldName string) Column {
	c = c.clone()
	c.renamed = oldName
	return c
}

// WithGoType is a pure documentation marker for codegen tooling; it has
// no runtime effect.
func (c Column) WithGoType(name string) Column {
	c = c.clone()
	c.goType = name
	return c
}

// WithAppDate/WithAppBoolean/WithAppEnum/WithAppID (and WithJSONSchema,
// below) mark the column's application type. Enum takes its values; JSON
// requires a Validator (see WithJSONSchema). All but WithAppID also
// install a matching codec pair unless one is already set, since
// encode/decode are mutual.

func (c Column) WithAppDate() Column {
	c = c.clone()
	c.appType, c.hasApp = AppDate, true
	if c.encode == nil {
		c.encode = encodeDate
		c.decode = decodeDate
	}
	return c
}

func (c Column) WithAppBoolean() Column {
	c = c.clone()
	c.appType, c.hasApp = AppBoolean, true
	if c.encode == nil {
		c.encode = encodeBool
		c.decode = decodeBool
	}
	return c
}

func (c Column) WithAppEnum(values ...string) Column {
	c = c.clone()
	c.appType, c.hasApp = AppEnum, true
	c.enumVals = append([]string{}, values...)
	if c.encode == nil {
		enc, dec := enumCodec(c.enumVals)
		c.encode, c.decode = enc, dec
	}
	return c
}

func (c Column) WithAppID() Column {
	c = c.clone()
	c.appType, c.hasApp = AppID, true
	return c
}

// WithJSONSchema marks the column AppJSON and attaches a gojsonschema-backed
// Validator, installing the matching JSON codec pair behind the opaque
// Validator capability interface.
func (c Column) WithJSONSchema(schemaJSON string) (Column, error) {
	v, err := NewJSONSchemaValidator(schemaJSON)
	if err != nil {
		return c, err
	}
	c = c.clone()
	c.appType, c.hasApp = AppJSON, true
	c.validator = v
	if c.encode == nil {
		c.encode, c.decode = jsonCodec(v)
	}
	return c, nil
}

// WithCodec overrides the encode/decode pair directly.
func (c Column) WithCodec(enc Encoder, dec Decoder) Column {
	c = c.clone()
	c.encode, c.decode = enc, dec
	return c
}

// Encode applies the column's encoder, if any, returning the value
// unchanged when no codec is installed.
func (c Column) Encode(v any) (any, error) {
	if c.encode == nil {
		return v, nil
	}
	return c.encode(v)
}

// Decode applies the column's decoder, if any, returning the value
// unchanged when no codec is installed.
func (c Column) Decode(v any) (any, error) {
	if c.decode == nil {
		return v, nil
	}
	return c.decode(v)
}

// Attach is called by table.Table at construction time, binding the
// column to its owner so TableDBName()/references() can resolve. It
// returns a new Column; the caller (Table) stores the bound copy.
func (c Column) Attach(t tableBinding) Column {
	c = c.clone()
	c.table = t
	return c
}

// TableDBName implements sqlfrag.ColumnRef.
func (c Column) TableDBName() string {
	if c.table == nil {
		return ""
	}
	return c.table.DBName()
}

// ColumnDBName implements sqlfrag.ColumnRef.
func (c Column) ColumnDBName() string { return c.dbName }

// GeneratedExpr implements sqlfrag.ColumnRef.
func (c Column) GeneratedExpr() (expr string, alias string, ok bool) {
	if c.genAlways == "" {
		return "", "", false
	}
	return c.genAlways, c.genAlias, true
}
