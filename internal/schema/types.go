package schema

// CanonicalType is the platform-facing column type. The set is closed.
type CanonicalType string

const (
	TypeInt      CanonicalType = "int"
	TypeDouble   CanonicalType = "double"
	TypeDate     CanonicalType = "date"
	TypeDatetime CanonicalType = "datetime"
	TypeString   CanonicalType = "string"
)

// TableDescriptor describes one table. Code and Title both carry the native
// table name.
type TableDescriptor struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// ColumnDescriptor describes one column. Code and Name both carry the native
// column name.
type ColumnDescriptor struct {
	Code string        `json:"code"`
	Name string        `json:"name"`
	Type CanonicalType `json:"type"`
}

// TypeMapper maps a native column type to its CanonicalType.
type TypeMapper func(nativeType string) CanonicalType

func newTable(name string) TableDescriptor {
	return TableDescriptor{Code: name, Title: name}
}

func newColumn(name string, t CanonicalType) ColumnDescriptor {
	return ColumnDescriptor{Code: name, Name: name, Type: t}
}
