package domain

import "errors"

var (
	// ErrMalformedInput means the input could not be decoded as structured
	// data or as delimited text.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNoGroups means decoding succeeded but produced nothing to report.
	ErrNoGroups = errors.New("no groups found")
	// ErrUnclassifiable means no rule matched and the rule table had no default.
	ErrUnclassifiable = errors.New("unclassifiable")
)
