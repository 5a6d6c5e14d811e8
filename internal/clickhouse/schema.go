package clickhouse

import (
	"fmt"
	"strings"

	"dwhreports/internal/reports"
)

type columnKind int

const (
	kindString columnKind = iota
	kindInteger
	kindNumeric
)

func (k columnKind) String() string {
	switch k {
	case kindString:
		return "String"
	case kindInteger:
		return "an integer type"
	default:
		return "a Decimal, Float or integer type"
	}
}

type columnType struct {
	kind     columnKind
	nullable bool
}

var (
	str         = columnType{kind: kindString}
	nullStr     = columnType{kind: kindString, nullable: true}
	integer     = columnType{kind: kindInteger}
	nullInteger = columnType{kind: kindInteger, nullable: true}
	numeric     = columnType{kind: kindNumeric}
)

// columnTypes is the type family each contract column must have. The report
// queries scan into fixed Go types, so a column whose name matches but whose
// type does not would only fail on the first row.
var columnTypes = map[string]map[string]columnType{
	"fact_order_items": {
		"order_id":                    str,
		"payment_id":                  str,
		"product_id":                  str,
		"seller_id":                   str,
		"user_id":                     str,
		"feedback_id":                 nullStr,
		"order_date_key":              integer,
		"order_time_key":              nullInteger,
		"delivered_date_key":          nullInteger,
		"estimated_delivery_date_key": nullInteger,
		"payment_value":               numeric,
		"quantity":                    integer,
		"delivery_delay_days":         nullInteger,
		"shipping_days":               nullInteger,
		"user_state":                  str,
	},
	"dim_dates": {
		"date_key": integer,
		"year":     integer,
		"month":    integer,
		"season":   str,
	},
	"dim_payments": {
		"payment_id":   str,
		"payment_type": nullStr,
	},
	"dim_products": {
		"product_id":       str,
		"product_category": nullStr,
	},
	"dim_sellers": {
		"seller_id":    str,
		"seller_state": str,
	},
	"dim_users": {
		"user_id":    str,
		"user_state": str,
	},
	"dim_feedbacks": {
		"feedback_id":    str,
		"feedback_score": nullInteger,
	},
}

var integerTypes = map[string]bool{
	"Int8": true, "Int16": true, "Int32": true, "Int64": true,
	"UInt8": true, "UInt16": true, "UInt32": true, "UInt64": true,
}

// unwrap strips LowCardinality and Nullable wrappers from a ClickHouse type.
func unwrap(typ string) (base string, nullable bool) {
	for {
		switch {
		case strings.HasPrefix(typ, "LowCardinality(") && strings.HasSuffix(typ, ")"):
			typ = typ[len("LowCardinality(") : len(typ)-1]
		case strings.HasPrefix(typ, "Nullable(") && strings.HasSuffix(typ, ")"):
			typ = typ[len("Nullable(") : len(typ)-1]
			nullable = true
		default:
			return typ, nullable
		}
	}
}

func (want columnType) accepts(base string) bool {
	switch want.kind {
	case kindString:
		return base == "String" || strings.HasPrefix(base, "FixedString(")
	case kindInteger:
		return integerTypes[base]
	default:
		return integerTypes[base] || base == "Float32" || base == "Float64" || strings.HasPrefix(base, "Decimal")
	}
}

func checkType(table, column, typ string) error {
	want, ok := columnTypes[table][column]
	if !ok {
		return nil
	}
	base, nullable := unwrap(typ)
	if !want.accepts(base) {
		return fmt.Errorf("%w: column %s.%s has type %s, want %s",
			reports.ErrSchemaMismatch, table, column, typ, want.kind)
	}
	if nullable && !want.nullable {
		return fmt.Errorf("%w: column %s.%s has type %s, want a non-Nullable type",
			reports.ErrSchemaMismatch, table, column, typ)
	}
	return nil
}
