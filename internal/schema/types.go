package schema

import "strings"

// rawTypeMap covers the exact type names the supported dialects report.
// Lookup happens after lowercasing and stripping any length or precision
// arguments, so VARCHAR(255) resolves via "varchar".
var rawTypeMap = map[string]ColumnType{
	// Integer types
	"integer":   TypeInteger,
	"int":       TypeInteger,
	"int2":      TypeInteger,
	"int4":      TypeInteger,
	"int8":      TypeInteger,
	"tinyint":   TypeInteger,
	"smallint":  TypeInteger,
	"mediumint": TypeInteger,
	"bigint":    TypeInteger,
	"serial":    TypeInteger,
	"bigserial": TypeInteger,
	"hugeint":   TypeInteger,
	"ubigint":   TypeInteger,
	"uinteger":  TypeInteger,
	"usmallint": TypeInteger,
	"utinyint":  TypeInteger,

	// Decimal types
	"decimal":          TypeDecimal,
	"numeric":          TypeDecimal,
	"real":             TypeDecimal,
	"float":            TypeDecimal,
	"float4":           TypeDecimal,
	"float8":           TypeDecimal,
	"double":           TypeDecimal,
	"double precision": TypeDecimal,
	"money":            TypeDecimal,

	// Text types
	"text":       TypeText,
	"varchar":    TypeText,
	"char":       TypeText,
	"bpchar":     TypeText,
	"character":  TypeText,
	"nvarchar":   TypeText,
	"tinytext":   TypeText,
	"mediumtext": TypeText,
	"longtext":   TypeText,
	"clob":       TypeText,
	"uuid":       TypeText,
	"enum":       TypeText,
	"json":       TypeText,
	"jsonb":      TypeText,

	// Boolean types
	"boolean": TypeBoolean,
	"bool":    TypeBoolean,

	// Timestamp types
	"timestamp":                   TypeTimestamp,
	"timestamptz":                 TypeTimestamp,
	"timestamp with time zone":    TypeTimestamp,
	"timestamp without time zone": TypeTimestamp,
	"datetime":                    TypeTimestamp,

	// Date types
	"date": TypeDate,
}

// MapColumnType normalizes a dialect-reported column type. Unrecognized
// types fall through substring heuristics before landing on unknown, so the
// model degrades gracefully on exotic types instead of failing extraction.
func MapColumnType(rawType string) ColumnType {
	if rawType == "" {
		return TypeUnknown
	}

	normalized := strings.ToLower(strings.TrimSpace(rawType))

	// Strip length/precision arguments: varchar(255), decimal(10,2)
	if idx := strings.Index(normalized, "("); idx > 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	if mapped, ok := rawTypeMap[normalized]; ok {
		return mapped
	}

	switch {
	case strings.Contains(normalized, "int"):
		return TypeInteger
	case strings.Contains(normalized, "char"), strings.Contains(normalized, "text"),
		strings.Contains(normalized, "string"):
		return TypeText
	case strings.Contains(normalized, "dec"), strings.Contains(normalized, "num"),
		strings.Contains(normalized, "real"), strings.Contains(normalized, "double"),
		strings.Contains(normalized, "float"):
		return TypeDecimal
	case strings.Contains(normalized, "bool"):
		return TypeBoolean
	case strings.Contains(normalized, "timestamp"), strings.Contains(normalized, "datetime"):
		return TypeTimestamp
	case strings.Contains(normalized, "date"):
		return TypeDate
	default:
		return TypeUnknown
	}
}
