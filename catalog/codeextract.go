package catalog

import (
	"github.com/thrasher-corp/gocryptotrader-core/ccerr"
)

// CodeFields names the JSON field paths an exchange's error body carries its
// code and message under. It's an alias of ccerr.CodeFields: request.Pipeline
// needs the same extraction logic without importing catalog (which already
// imports request), so the jsonparser-backed implementation lives in ccerr
// and this package just re-exposes it under the catalog-facing name.
type CodeFields = ccerr.CodeFields

// ExtractErrorCode pulls the exchange-specific code/message pair out of a raw
// JSON response body per fields, delegating to ccerr.ExtractCode.
func ExtractErrorCode(body []byte, fields CodeFields) (code, message string) {
	return ccerr.ExtractCode(body, fields)
}

// Outcome builds a ccerr.Outcome for exchangeID's HTTP response, extracting
// the exchange code/message via fields before handing off to ccerr.Classify.
func Outcome(httpStatus int, body []byte, endpoint string, fields CodeFields) ccerr.Outcome {
	code, msg := ccerr.ExtractCode(body, fields)
	return ccerr.Outcome{
		HTTPStatus:   httpStatus,
		ExchangeCode: code,
		ExchangeMsg:  msg,
		Endpoint:     endpoint,
	}
}
