package command

// ParseErrorKind names the category of a parse failure.
type ParseErrorKind uint8

const (
	// KindUnknownFlag reports an unrecognized --flag name.
	KindUnknownFlag ParseErrorKind = iota

	// KindOutOfRange reports a flag value outside its valid range.
	KindOutOfRange

	// KindMissingArgument reports a flag or prompt with no value.
	KindMissingArgument

	// KindUnterminatedQuote reports a quote with no closing partner.
	KindUnterminatedQuote

	// KindInvalidValue reports a flag value that does not parse.
	KindInvalidValue
)

var parseErrorNames = [...]string{
	KindUnknownFlag:       "UnknownFlag",
	KindOutOfRange:        "OutOfRange",
	KindMissingArgument:   "MissingArgument",
	KindUnterminatedQuote: "UnterminatedQuote",
	KindInvalidValue:      "InvalidValue",
}

// ParseError describes why an agent-command line failed to parse.
// Its message format is stable; the host surfaces it verbatim in the
// parse_error action.
type ParseError struct {
	Kind ParseErrorKind

	// Arg names the offending flag or argument, when there is one.
	Arg string
}

func (e *ParseError) Error() string {
	name := "ParseError"
	if int(e.Kind) < len(parseErrorNames) {
		name = parseErrorNames[e.Kind]
	}
	if e.Arg == "" {
		return name
	}
	return name + "(" + e.Arg + ")"
}

// Is allows errors.Is matching on kind with a template error value.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Arg == "" || t.Arg == e.Arg)
}
