package schema

import (
	"strings"

	"github.com/koustreak/biconnector/internal/database"
)

// Canonicalize maps a native column type to a CanonicalType for the given
// dialect. Unknown types and unknown dialects map to TypeString.
func Canonicalize(nativeType string, dialect database.Dialect) CanonicalType {
	switch dialect {
	case database.DialectMySQL:
		return CanonicalMySQL(nativeType)
	case database.DialectPostgres:
		return CanonicalPostgres(nativeType)
	default:
		return TypeString
	}
}

// CanonicalMySQL maps a MySQL column type as reported by DESCRIBE, e.g.
// "int(11) unsigned" or "decimal(10,2)". Matching is by substring.
func CanonicalMySQL(nativeType string) CanonicalType {
	t := strings.ToLower(nativeType)
	switch {
	case strings.Contains(t, "int"):
		return TypeInt
	case strings.Contains(t, "float"),
		strings.Contains(t, "double"),
		strings.Contains(t, "decimal"),
		strings.Contains(t, "numeric"):
		return TypeDouble
	case strings.Contains(t, "date") && !strings.Contains(t, "time"):
		return TypeDate
	case strings.Contains(t, "datetime"), strings.Contains(t, "timestamp"):
		return TypeDatetime
	default:
		return TypeString
	}
}

var postgresTypes = map[string]CanonicalType{
	"integer":                     TypeInt,
	"bigint":                      TypeInt,
	"smallint":                    TypeInt,
	"serial":                      TypeInt,
	"bigserial":                   TypeInt,
	"real":                        TypeDouble,
	"double precision":            TypeDouble,
	"numeric":                     TypeDouble,
	"decimal":                     TypeDouble,
	"date":                        TypeDate,
	"timestamp":                   TypeDatetime,
	"timestamp with time zone":    TypeDatetime,
	"timestamp without time zone": TypeDatetime,
}

// CanonicalPostgres maps an information_schema data_type. Matching is exact
// after lower-casing.
func CanonicalPostgres(nativeType string) CanonicalType {
	if t, ok := postgresTypes[strings.ToLower(strings.TrimSpace(nativeType))]; ok {
		return t
	}
	return TypeString
}
