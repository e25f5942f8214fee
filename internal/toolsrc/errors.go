package toolsrc

import "errors"

// ErrParseError is returned when a tool's source text cannot be parsed: the
// decorator cannot be located, entry_symbol cannot be recovered, or the
// <requirements> block is malformed (spec.md §4.1).
var ErrParseError = errors.New("toolsrc: parse error")
