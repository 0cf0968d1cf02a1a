package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Definition error codes.
const (
	CodeInvalidName       = "INVALID_NAME"
	CodeDuplicateMethod   = "DUPLICATE_METHOD"
	CodeDuplicateParam    = "DUPLICATE_PARAM"
	CodeDuplicateEvent    = "DUPLICATE_EVENT"
	CodeReceiverParam     = "RECEIVER_PARAM"
	CodeUnsupportedParam  = "UNSUPPORTED_PARAM"
	CodeInvalidType       = "INVALID_TYPE"
	CodeUnsupportedReturn = "UNSUPPORTED_RETURN"
	CodeUnsupportedMember = "UNSUPPORTED_MEMBER"
	CodeMissingHandler    = "MISSING_HANDLER"
	CodeUnknownHandler    = "UNKNOWN_HANDLER"
	CodeDuplicateHandler  = "DUPLICATE_HANDLER"
	CodeSignatureMismatch = "SIGNATURE_MISMATCH"
	CodeUnknownContract   = "UNKNOWN_CONTRACT"
)

// DefinitionError reports an invalid interface, event or handler definition.
// It is fatal: generation stops and the message names the offending identifier.
type DefinitionError struct {
	Code      string `json:"code"`
	Interface string `json:"interface,omitempty"`
	Method    string `json:"method,omitempty"`
	Param     string `json:"param,omitempty"`
	Event     string `json:"event,omitempty"`
	Message   string `json:"message"`
}

func (e *DefinitionError) Error() string {
	var parts []string
	if e.Interface != "" {
		parts = append(parts, fmt.Sprintf("interface %q", e.Interface))
	}
	if e.Method != "" {
		parts = append(parts, fmt.Sprintf("method %q", e.Method))
	}
	if e.Param != "" {
		parts = append(parts, fmt.Sprintf("param %q", e.Param))
	}
	if e.Event != "" {
		parts = append(parts, fmt.Sprintf("event %q", e.Event))
	}
	where := strings.Join(parts, " ")
	if where == "" {
		return fmt.Sprintf("definition error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("definition error [%s] %s: %s", e.Code, where, e.Message)
}

// ConfigurationError reports conflicting or missing build configuration, such
// as both or neither event mode gates. It is raised before any artifact exists.
type ConfigurationError struct {
	Option  string `json:"option"`
	Message string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.Option, e.Message)
}

// IsDefinitionError reports whether err carries a *DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// IsConfigurationError reports whether err carries a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// DefinitionErrorCode returns the code of the first DefinitionError in err's chain.
func DefinitionErrorCode(err error) string {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
