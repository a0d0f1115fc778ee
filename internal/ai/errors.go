package ai

import (
	"fmt"
	"strings"
)

// UnsupportedProviderError indicates the requested provider name is not
// in the known set.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported AI provider: %q (supported providers: %s)",
		e.Name, strings.Join(SupportedProviders(), ", "))
}

// RemoteCallError indicates every model candidate failed. It carries the
// last underlying API or transport error.
type RemoteCallError struct {
	Provider string
	Err      error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s remote call failed: %v", e.Provider, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// responseExcerptLen bounds the raw-text excerpt carried by
// ResponseParseError.
const responseExcerptLen = 200

// ResponseParseError indicates model output could not be coerced to the
// expected JSON shape after fence stripping and brace extraction.
type ResponseParseError struct {
	// Excerpt is a truncated prefix of the raw model output.
	Excerpt string
	Err     error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("could not parse JSON from model response: %v (raw: %s)", e.Err, e.Excerpt)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

func newParseError(raw string, err error) *ResponseParseError {
	excerpt := raw
	if len(excerpt) > responseExcerptLen {
		excerpt = excerpt[:responseExcerptLen]
	}
	return &ResponseParseError{Excerpt: excerpt, Err: err}
}
