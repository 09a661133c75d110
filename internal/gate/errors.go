package gate

import "errors"

var (
	errMissingQuery     = errors.New("missing 'query'")
	errInvalidVariables = errors.New("invalid 'variables' JSON")
	errReadBody         = errors.New("failed to read request body")
	errBodyTooLarge     = errors.New("request body too large")
	errInvalidJSON      = errors.New("invalid JSON request body")
)
