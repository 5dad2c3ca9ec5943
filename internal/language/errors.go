package language

import "github.com/vektah/gqlparser/v2/gqlerror"

// Error is the error type ParseQuery/ParseSchema return: a parse/validation
// failure with an optional source location, straight from gqlparser.
type Error = gqlerror.Error
