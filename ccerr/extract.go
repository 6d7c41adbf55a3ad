package ccerr

import "github.com/buger/jsonparser"

// CodeFields names the JSON field paths an exchange's error body carries its
// code and message under, so ExtractCode can pull them without a full struct
// decode — mirroring the teacher's own use of jsonparser for hot-path field
// access instead of encoding/json-unmarshaling an entire response just to
// read one or two fields.
type CodeFields struct {
	Code    []string // jsonparser.Get path to the error code field
	Message []string // jsonparser.Get path to the error message field
}

// defaultCodeFields covers the common top-level {"code": ..., "msg": ...}
// shape most of the representative exchanges use; an exchange whose error
// body nests differently (e.g. under "error") supplies its own CodeFields.
var defaultCodeFields = CodeFields{Code: []string{"code"}, Message: []string{"msg"}}

// ExtractCode pulls the exchange-specific code/message pair out of a raw
// JSON response body per fields (or defaultCodeFields if fields is the zero
// value), for use as Outcome's ExchangeCode/ExchangeMsg ahead of a Classify
// call — step 5/6 of the classifier's contract ("consult the exchange's
// error_codes mapping against the parsed body's code field"). A body that
// isn't JSON, or that's missing the field, yields empty strings rather than
// an error: absence of a code is routine (a non-JSON 5xx from a load
// balancer, say), not a parse failure the caller needs to handle.
func ExtractCode(body []byte, fields CodeFields) (code, message string) {
	if len(fields.Code) == 0 {
		fields = defaultCodeFields
	}
	if v, err := jsonparser.GetString(body, fields.Code...); err == nil {
		code = v
	} else if n, _, _, err := jsonparser.Get(body, fields.Code...); err == nil {
		code = string(n)
	}
	if v, err := jsonparser.GetString(body, fields.Message...); err == nil {
		message = v
	}
	return code, message
}
