package llm

import "errors"

// ErrNoJSONFound indicates the sanitizer could not locate a
// brace-delimited object in the cleaned model output.
var ErrNoJSONFound = errors.New("llm: no JSON object found in model response")
