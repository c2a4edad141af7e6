package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeField(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		expected string
	}{
		{"known field", "licensePlate", "License plate number or vehicle registration"},
		{"known field invoice", "invoiceNumber", "Invoice number or reference number"},
		{"unknown field passes through", "vin", "vin"},
		{"empty name passes through", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DescribeField(tt.field))
		})
	}
}

func TestDefaultFields(t *testing.T) {
	assert.Equal(t, []string{"invoiceNumber", "licensePlate", "amountDue", "dueDate"}, DefaultFields)
	for _, name := range DefaultFields {
		assert.NotEqual(t, name, DescribeField(name), "default fields should all have descriptions")
	}
}
