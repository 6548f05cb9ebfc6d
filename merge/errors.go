package merge

import (
	"fmt"

	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
)

// Errors of the merging machinery. All of them implement core.AppError,
// so clients get a stable error code out of core.Code and a printable
// message out of core.UserMessage without knowing the concrete types.

// UnknownGlyphError reports a selection asking for a glyph the donor
// does not have, or a name pattern matching none.
type UnknownGlyphError struct {
	Name string
}

func (e *UnknownGlyphError) Error() string {
	return fmt.Sprintf("donor font has no glyph %q", e.Name)
}

// ErrorCode returns core.EMISSING.
func (e *UnknownGlyphError) ErrorCode() int {
	return core.EMISSING
}

// UserMessage returns the message for end users.
func (e *UnknownGlyphError) UserMessage() string {
	return e.Error()
}

// UnmappedCodepointError reports a selection asking for a codepoint no
// donor glyph claims.
type UnmappedCodepointError struct {
	Codepoint rune
}

func (e *UnmappedCodepointError) Error() string {
	return fmt.Sprintf("donor font has no glyph for %s", ufo.CodepointString(e.Codepoint))
}

// ErrorCode returns core.EMISSING.
func (e *UnmappedCodepointError) ErrorCode() int {
	return core.EMISSING
}

// UserMessage returns the message for end users.
func (e *UnmappedCodepointError) UserMessage() string {
	return e.Error()
}

// DanglingComponentError reports a glyph about to be merged whose
// component base would resolve neither in the merged set nor in the
// recipient.
type DanglingComponentError struct {
	Glyph   string // the glyph carrying the component
	Missing string // the unresolvable base glyph
}

func (e *DanglingComponentError) Error() string {
	return fmt.Sprintf("glyph %q references glyph %q, which is neither merged nor present",
		e.Glyph, e.Missing)
}

// ErrorCode returns core.EINVALID.
func (e *DanglingComponentError) ErrorCode() int {
	return core.EINVALID
}

// UserMessage returns the message for end users.
func (e *DanglingComponentError) UserMessage() string {
	return e.Error()
}

// ConflictingPolicyError reports contradictory policy switches.
type ConflictingPolicyError struct {
	Detail string
}

func (e *ConflictingPolicyError) Error() string {
	return "conflicting merge policy: " + e.Detail
}

// ErrorCode returns core.EINVALID.
func (e *ConflictingPolicyError) ErrorCode() int {
	return core.EINVALID
}

// UserMessage returns the message for end users.
func (e *ConflictingPolicyError) UserMessage() string {
	return e.Error()
}

var (
	_ core.AppError = &UnknownGlyphError{}
	_ core.AppError = &UnmappedCodepointError{}
	_ core.AppError = &DanglingComponentError{}
	_ core.AppError = &ConflictingPolicyError{}
)
