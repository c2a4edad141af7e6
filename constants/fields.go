package constants

import "sort"

// fieldDescriptions maps well-known field names to the natural-language
// descriptions handed to the model when building structured prompts.
var fieldDescriptions = map[string]string{
	"invoiceNumber": "Invoice number or reference number",
	"licensePlate":  "License plate number or vehicle registration",
	"amountDue":     "Total amount due, including currency if shown",
	"dueDate":       "Payment due date",
	"company":       "Company or vendor name",
	"address":       "Street address of the company or vendor",
}

// DefaultFields is the field set used when a caller requests structured
// extraction without naming any fields. Every call site goes through this
// single list.
var DefaultFields = []string{"invoiceNumber", "licensePlate", "amountDue", "dueDate"}

// DescribeField returns the human-readable description for a well-known
// field name. Unknown names are returned verbatim so ad-hoc fields still
// produce a usable prompt line.
func DescribeField(name string) string {
	if desc, ok := fieldDescriptions[name]; ok {
		return desc
	}
	return name
}

// KnownFields returns the well-known field names, for CLI help output.
func KnownFields() []string {
	out := make([]string, 0, len(fieldDescriptions))
	for name := range fieldDescriptions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
