package util

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"get_serialized_ticket", "GetSerializedTicket"},
		{"plugin:barcode-scanner|scan", "PluginBarcodeScannerScan"},
		{"documentID", "DocumentID"},
		{"名前", "X名前"},
		{"__", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ExportedName(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, token.IsExported(got), got)
			}
		})
	}
}

func TestWireCase(t *testing.T) {
	assert.Equal(t, "documentId", WireCase("document_id"))
	assert.Equal(t, "名前", WireCase("名前"))
	assert.Equal(t, "", WireCase("__"))
}

func TestUnexportedName(t *testing.T) {
	assert.Equal(t, "getTicketArgs", UnexportedName("GetTicket")+"Args")
	assert.Equal(t, "type_", UnexportedName("type"))
	assert.Equal(t, "x2fa", UnexportedName("2fa"))
}
