package config

// ManifestFileName is the default program manifest looked up in the
// working directory when no path is given on the command line.
const ManifestFileName = "rill.yaml"

// ManifestFileExtensions are all recognized manifest file extensions
var ManifestFileExtensions = []string{".yaml", ".yml"}

// Verbose enables proof tracing on stderr.
// This is set once at startup in the CLI when handling --verbose.
var Verbose = false

// Built-in scalar type names
const (
	BoolTypeName = "Bool"
	CharTypeName = "Char"
	StrTypeName  = "Str"
	UnitTypeName = "Unit"
)

// ScalarTypeNames lists every built-in scalar head. Scalars are visible
// everywhere and local nowhere.
var ScalarTypeNames = []string{
	BoolTypeName, CharTypeName, StrTypeName, UnitTypeName,
	"I8", "I16", "I32", "I64",
	"U8", "U16", "U32", "U64",
	"ISize", "USize",
}

// Reserved parameter names
const (
	SelfParamName      = "Self"
	StaticLifetimeName = "static"
)
