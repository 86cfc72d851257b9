package policy

// Flag is a curl command-line option the policy knows about. Every flag the
// validator accepts or explicitly refuses is a member of this enumeration;
// anything else is unsupported.
type Flag int

const (
	flagInvalid Flag = iota

	// Allowed
	FlagRequest
	FlagHeader
	FlagHead
	FlagSilent
	FlagNoProgressMeter
	FlagCompressed
	FlagLocation
	FlagMaxTime
	FlagConnectTimeout
	FlagHTTP11
	FlagHTTP2
	FlagData
	FlagDataRaw
	FlagDataBinary
	FlagDataURLEncode
	FlagVerbose

	// Denied
	FlagConfig
	FlagOutput
	FlagRemoteName
	FlagWriteOut
	FlagDumpHeader
	FlagTrace
	FlagTraceASCII
	FlagUploadFile
	FlagUser
	FlagProxy
	FlagInterface
	FlagProto
	FlagProtoRedir
	FlagHelp
	FlagManual

	flagCount
)

type flagClass uint8

const (
	classAllowed flagClass = 1 << iota
	classDenied
	classTakesValue
	classData
	classHeader
	classNumeric
	classMethod
)

type flagInfo struct {
	name  string
	class flagClass
}

// flagTable is indexed by Flag. The array length ties it to the enumeration;
// TestFlagTableComplete guards against a member without an entry.
var flagTable = [flagCount]flagInfo{
	FlagRequest:         {"--request", classAllowed | classTakesValue | classMethod},
	FlagHeader:          {"--header", classAllowed | classTakesValue | classHeader},
	FlagHead:            {"--head", classAllowed},
	FlagSilent:          {"--silent", classAllowed},
	FlagNoProgressMeter: {"--no-progress-meter", classAllowed},
	FlagCompressed:      {"--compressed", classAllowed},
	FlagLocation:        {"--location", classAllowed},
	FlagMaxTime:         {"--max-time", classAllowed | classTakesValue | classNumeric},
	FlagConnectTimeout:  {"--connect-timeout", classAllowed | classTakesValue | classNumeric},
	FlagHTTP11:          {"--http1.1", classAllowed},
	FlagHTTP2:           {"--http2", classAllowed},
	FlagData:            {"--data", classAllowed | classTakesValue | classData},
	FlagDataRaw:         {"--data-raw", classAllowed | classTakesValue | classData},
	FlagDataBinary:      {"--data-binary", classAllowed | classTakesValue | classData},
	FlagDataURLEncode:   {"--data-urlencode", classAllowed | classTakesValue | classData},
	FlagVerbose:         {"--verbose", classAllowed},

	FlagConfig:     {"--config", classDenied},
	FlagOutput:     {"--output", classDenied},
	FlagRemoteName: {"--remote-name", classDenied},
	FlagWriteOut:   {"--write-out", classDenied},
	FlagDumpHeader: {"--dump-header", classDenied},
	FlagTrace:      {"--trace", classDenied},
	FlagTraceASCII: {"--trace-ascii", classDenied},
	FlagUploadFile: {"--upload-file", classDenied},
	FlagUser:       {"--user", classDenied},
	FlagProxy:      {"--proxy", classDenied},
	FlagInterface:  {"--interface", classDenied},
	FlagProto:      {"--proto", classDenied},
	FlagProtoRedir: {"--proto-redir", classDenied},
	FlagHelp:       {"--help", classDenied},
	FlagManual:     {"--manual", classDenied},
}

// shortFlags maps single-dash spellings; long spellings come from flagTable.
var shortFlags = map[string]Flag{
	"-X": FlagRequest,
	"-H": FlagHeader,
	"-I": FlagHead,
	"-s": FlagSilent,
	"-L": FlagLocation,
	"-m": FlagMaxTime,
	"-d": FlagData,
	"-v": FlagVerbose,

	"-K": FlagConfig,
	"-o": FlagOutput,
	"-O": FlagRemoteName,
	"-w": FlagWriteOut,
	"-D": FlagDumpHeader,
	"-T": FlagUploadFile,
	"-u": FlagUser,
	"-x": FlagProxy,
	"-h": FlagHelp,
	"-M": FlagManual,
}

var spellings = buildSpellings()

func buildSpellings() map[string]Flag {
	m := make(map[string]Flag, len(shortFlags)+int(flagCount))
	for spelling, f := range shortFlags {
		m[spelling] = f
	}
	for f := flagInvalid + 1; f < flagCount; f++ {
		m[flagTable[f].name] = f
	}
	return m
}

// LookupFlag resolves a command-line spelling ("-H", "--header") to a Flag.
func LookupFlag(spelling string) (Flag, bool) {
	f, ok := spellings[spelling]
	return f, ok
}

// String returns the long spelling of the flag.
func (f Flag) String() string {
	if f <= flagInvalid || f >= flagCount {
		return "unknown"
	}
	return flagTable[f].name
}

func (f Flag) is(c flagClass) bool {
	if f <= flagInvalid || f >= flagCount {
		return false
	}
	return flagTable[f].class&c != 0
}

// Allowed reports allow-list membership.
func (f Flag) Allowed() bool { return f.is(classAllowed) }

// Denied reports deny-list membership.
func (f Flag) Denied() bool { return f.is(classDenied) }

// TakesValue reports whether the next token is the flag's value.
func (f Flag) TakesValue() bool { return f.is(classTakesValue) }

// CarriesData reports whether the value becomes the request body.
func (f Flag) CarriesData() bool { return f.is(classData) }

// SetsHeader reports whether the value is a request header line.
func (f Flag) SetsHeader() bool { return f.is(classHeader) }
