package models

import (
	"encoding/json"
	"math"
	"time"
)

// Number is a numeric cell that may be missing.
type Number struct {
	Value float64
	Valid bool
}

func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Transaction is one row of the import/export dataset.
type Transaction struct {
	TransactionID  string
	Country        string
	ImportExport   string
	Product        string
	Category       string
	Port           string
	ShippingMethod string
	PaymentTerms   string
	Quantity       Number
	Value          Number
	Weight         Number
	CustomsCode    Number
	InvoiceNumber  Number
	DateRaw        string
}

// Record is a Transaction of the filtered view with its date parsed.
type Record struct {
	Transaction
	Date    time.Time
	HasDate bool
}

// Field returns the numeric column with the given dataset header name.
func (t Transaction) Field(column string) (Number, bool) {
	switch column {
	case ColumnQuantity:
		return t.Quantity, true
	case ColumnValue:
		return t.Value, true
	case ColumnWeight:
		return t.Weight, true
	case ColumnCustomsCode:
		return t.CustomsCode, true
	case ColumnInvoiceNumber:
		return t.InvoiceNumber, true
	default:
		return Number{}, false
	}
}

// Dataset header names.
const (
	ColumnTransactionID  = "Transaction_ID"
	ColumnCountry        = "Country"
	ColumnImportExport   = "Import_Export"
	ColumnProduct        = "Product"
	ColumnCategory       = "Category"
	ColumnPort           = "Port"
	ColumnShippingMethod = "Shipping_Method"
	ColumnPaymentTerms   = "Payment_Terms"
	ColumnQuantity       = "Quantity"
	ColumnValue          = "Value"
	ColumnWeight         = "Weight"
	ColumnCustomsCode    = "Customs_Code"
	ColumnInvoiceNumber  = "Invoice_Number"
	ColumnDate           = "Date"
)

// RequiredColumns must be present in every source file.
var RequiredColumns = []string{
	ColumnCountry,
	ColumnImportExport,
	ColumnQuantity,
	ColumnValue,
	ColumnWeight,
	ColumnCustomsCode,
	ColumnInvoiceNumber,
}

// CorrelationColumns is the fixed column set of the correlation heatmap.
var CorrelationColumns = []string{
	ColumnQuantity,
	ColumnValue,
	ColumnCustomsCode,
	ColumnWeight,
	ColumnInvoiceNumber,
}

func (n Number) MarshalYAML() (any, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return nil, nil
	}
	return n.Value, nil
}
