// FILE: settings/errors.go
package settings

import "errors"

// Resolution errors. All are returned wrapped with context and should be
// checked with errors.Is.
var (
	// ErrDuplicateSource indicates an attempt to register a source kind
	// under a name that is already taken.
	ErrDuplicateSource = errors.New("source already registered")

	// ErrUnknownSource indicates a source name that was never registered,
	// or is absent from the active environment's source table.
	ErrUnknownSource = errors.New("unknown source")

	// ErrJSONDecode indicates a complex field value that could not be
	// decoded as JSON and where no fallback is permitted.
	ErrJSONDecode = errors.New("invalid JSON value")

	// ErrFileNotFound indicates a configured file path that does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotFile indicates a configured file path that exists but is not
	// a regular file.
	ErrNotFile = errors.New("not a regular file")

	// ErrNotDirectory indicates a configured secrets path that exists but
	// is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrEnvFileUnsupported indicates an env file path was given but no
	// dotenv parser is installed (see SetEnvFileParser).
	ErrEnvFileUnsupported = errors.New("env file parsing unavailable")

	// ErrUnknownSection indicates an explicit INI default section that is
	// absent from the loaded file.
	ErrUnknownSection = errors.New("section not found")

	// ErrDuplicateAlias indicates two schema fields resolving to the same
	// external alias.
	ErrDuplicateAlias = errors.New("duplicate field alias")
)
