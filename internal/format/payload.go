package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// PayloadKind says how RenderPayload interpreted a payload
type PayloadKind int

const (
	PayloadEmpty PayloadKind = iota
	PayloadJSON
	// PayloadMalformed is text that does not parse as JSON
	PayloadMalformed
	PayloadBinary
)

// ErrNotJSON is returned by ExtractPath for payloads that are not JSON
var ErrNotJSON = errors.New("payload is not valid JSON")

// RenderPayload pretty-prints JSON payloads. Anything else is returned as raw
// text, or summarized when it is not UTF-8.
func RenderPayload(payload []byte) (string, PayloadKind) {
	switch {
	case len(payload) == 0:
		return "(empty body)", PayloadEmpty
	case gjson.ValidBytes(payload):
		return prettyJSON(payload), PayloadJSON
	case utf8.Valid(payload):
		return string(payload), PayloadMalformed
	default:
		return fmt.Sprintf("(binary payload, %s)", byteSize(len(payload))), PayloadBinary
	}
}

// ExtractPath evaluates a gjson path against a JSON payload. Objects and
// arrays come back pretty-printed, scalars as plain text.
func ExtractPath(payload []byte, path string) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", ErrNotJSON
	}
	result := gjson.GetBytes(payload, path)
	if !result.Exists() {
		return "", fmt.Errorf("path %q matched nothing", path)
	}
	if result.IsObject() || result.IsArray() {
		return prettyJSON([]byte(result.Raw)), nil
	}
	return result.String(), nil
}

func prettyJSON(data []byte) string {
	return strings.TrimSuffix(string(pretty.Pretty(data)), "\n")
}
