package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatInterface() *Interface {
	return &Interface{
		Name:    "API",
		Package: "api",
		Methods: []Method{
			{Name: "get_ticket", Results: []string{"core.Outcome[string, string]"}},
			{Name: "broadcast", Params: []Param{{Name: "message", Type: "Message"}}, Results: []string{"core.Outcome[(), string]"}},
		},
	}
}

func TestInterface_Validate(t *testing.T) {
	require.NoError(t, chatInterface().Validate())

	tests := []struct {
		name   string
		mutate func(i *Interface)
		code   string
		method string
		param  string
	}{
		{
			name: "duplicate method",
			mutate: func(i *Interface) {
				i.Methods = []Method{{Name: "sync"}, {Name: "sync"}}
			},
			code:   CodeDuplicateMethod,
			method: "sync",
		},
		{
			name: "colliding Go identifiers",
			mutate: func(i *Interface) {
				i.Methods = []Method{{Name: "get_ticket"}, {Name: "getTicket"}}
			},
			code:   CodeDuplicateMethod,
			method: "getTicket",
		},
		{
			name: "duplicate param",
			mutate: func(i *Interface) {
				i.Methods[1].Params = append(i.Methods[1].Params, Param{Name: "message", Type: "string"})
			},
			code:   CodeDuplicateParam,
			method: "broadcast",
			param:  "message",
		},
		{
			name: "wire case collision",
			mutate: func(i *Interface) {
				i.Methods[1].Params = []Param{{Name: "doc_id", Type: "string"}, {Name: "docID", Type: "string"}}
			},
			code:   CodeDuplicateParam,
			method: "broadcast",
			param:  "docID",
		},
		{
			name: "receiver param",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "s", Type: "*Server", Receiver: true}}
			},
			code:   CodeReceiverParam,
			method: "get_ticket",
			param:  "s",
		},
		{
			name: "self param",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "self", Type: "Server"}}
			},
			code:   CodeReceiverParam,
			method: "get_ticket",
		},
		{
			name: "blank param",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "_", Type: "string"}}
			},
			code:   CodeUnsupportedParam,
			method: "get_ticket",
			param:  "_",
		},
		{
			name: "param without a wire name",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "__", Type: "string"}}
			},
			code:   CodeUnsupportedParam,
			method: "get_ticket",
			param:  "__",
		},
		{
			name: "destructuring param",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "(a, b)", Type: "Pair"}}
			},
			code:   CodeUnsupportedParam,
			method: "get_ticket",
		},
		{
			name: "invalid param type",
			mutate: func(i *Interface) {
				i.Methods[0].Params = []Param{{Name: "a", Type: "map[string"}}
			},
			code:   CodeInvalidType,
			method: "get_ticket",
			param:  "a",
		},
		{
			name: "unnamed method",
			mutate: func(i *Interface) {
				i.Methods = append(i.Methods, Method{})
			},
			code: CodeInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface := chatInterface()
			tt.mutate(iface)
			err := iface.Validate()
			require.Error(t, err)

			var de *DefinitionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			if tt.method != "" {
				assert.Equal(t, tt.method, de.Method)
				assert.Contains(t, err.Error(), tt.method)
			}
			if tt.param != "" {
				assert.Equal(t, tt.param, de.Param)
			}
		})
	}
}

func TestInterface_DuplicateSyncNamesTheMethod(t *testing.T) {
	iface := &Interface{Name: "API", Methods: []Method{{Name: "sync"}, {Name: "sync"}}}
	err := iface.Validate()
	require.Error(t, err)
	assert.True(t, IsDefinitionError(err))
	assert.Equal(t, CodeDuplicateMethod, DefinitionErrorCode(err))
	assert.Contains(t, err.Error(), `"sync"`)
}

func TestInterface_CapabilityValidation(t *testing.T) {
	iface := chatInterface()
	iface.Capabilities = []Capability{
		{Name: "barcode", Gate: "mobile", Methods: []Method{{Name: "plugin:barcode-scanner|scan", GoName: "Scan"}}},
	}
	require.NoError(t, iface.Validate())

	c, ok := iface.Capability("mobile")
	require.True(t, ok)
	assert.Equal(t, "barcode", c.Name)

	iface.Capabilities = append(iface.Capabilities, Capability{Name: "other", Gate: "mobile"})
	assert.True(t, IsDefinitionError(iface.Validate()))

	iface.Capabilities = []Capability{{Name: "nogate"}}
	assert.True(t, IsDefinitionError(iface.Validate()))
}

func TestInterface_Method(t *testing.T) {
	iface := chatInterface()
	m, ok := iface.Method("GetTicket")
	require.True(t, ok)
	assert.Equal(t, "get_ticket", m.Name)

	m, ok = iface.Method("broadcast")
	require.True(t, ok)
	assert.Equal(t, "Broadcast", m.Identifier())

	_, ok = iface.Method("missing")
	assert.False(t, ok)
}

func TestRegistry_Validate(t *testing.T) {
	reg := Registry{Events: []Event{
		{Name: "connection", PayloadType: "string", EmitSide: true, ListenSide: true},
		{Name: "conversation", PayloadType: "[]Message", EmitSide: true, ListenSide: true},
	}}
	require.NoError(t, reg.Validate())
	assert.Equal(t, []string{"connection", "conversation"}, reg.Names())

	dup := Registry{Events: []Event{{Name: "connection", PayloadType: "string"}, {Name: "connection", PayloadType: "int"}}}
	err := dup.Validate()
	require.Error(t, err)
	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeDuplicateEvent, de.Code)
	assert.Equal(t, "connection", de.Event)

	collide := Registry{Events: []Event{{Name: "connection_type", PayloadType: "string"}, {Name: "connectionType", PayloadType: "string"}}}
	assert.Equal(t, CodeDuplicateEvent, DefinitionErrorCode(collide.Validate()))

	badType := Registry{Events: []Event{{Name: "x", PayloadType: "map["}}}
	assert.Equal(t, CodeInvalidType, DefinitionErrorCode(badType.Validate()))
}

func TestDefinition_Interface(t *testing.T) {
	def := &Definition{Interfaces: []*Interface{chatInterface()}}
	iface, err := def.Interface("")
	require.NoError(t, err)
	assert.Equal(t, "API", iface.Name)

	_, err = def.Interface("Other")
	assert.Equal(t, CodeUnknownContract, DefinitionErrorCode(err))

	empty := &Definition{}
	_, err = empty.Interface("")
	assert.Equal(t, CodeUnknownContract, DefinitionErrorCode(err))
}

func TestErrors_Messages(t *testing.T) {
	de := &DefinitionError{Code: CodeDuplicateParam, Interface: "API", Method: "broadcast", Param: "message", Message: "parameter name declared more than once"}
	assert.Equal(t, `definition error [DUPLICATE_PARAM] interface "API" method "broadcast" param "message": parameter name declared more than once`, de.Error())

	ce := &ConfigurationError{Option: "mode", Message: "both gates set"}
	assert.Equal(t, "configuration error [mode]: both gates set", ce.Error())
	assert.True(t, IsConfigurationError(ce))
	assert.False(t, IsDefinitionError(ce))
}
