package ir

import "fmt"

// Generation error codes (E200-E299)
const (
	ErrCodeLayout          = "E201" // type cannot be reproduced across the boundary
	ErrCodeNamingCollision = "E202" // two declarations encode to one identifier
	ErrCodeUnresolved      = "E203" // type reference names nothing in the model
)

// LayoutError reports a type that cannot be reproduced across the boundary
// under the projection rules. Fatal to the run.
type LayoutError struct {
	Decl    string `json:"decl"` // C++ spelling of the offending type or callable
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewLayoutError creates a LayoutError for decl.
func NewLayoutError(decl, format string, args ...any) *LayoutError {
	return &LayoutError{Decl: decl, Message: fmt.Sprintf(format, args...), Code: ErrCodeLayout}
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("[%s] layout: %s: %s", e.Code, e.Decl, e.Message)
}

// NamingCollisionError reports two distinct declarations that encode to the
// same identifier, or an identifier that does not decode back to its parts.
type NamingCollisionError struct {
	Identifier string `json:"identifier"`
	First      string `json:"first"`
	Second     string `json:"second"`
	Code       string `json:"code"`
}

// NewNamingCollisionError creates a NamingCollisionError.
func NewNamingCollisionError(ident, first, second string) *NamingCollisionError {
	return &NamingCollisionError{Identifier: ident, First: first, Second: second, Code: ErrCodeNamingCollision}
}

func (e *NamingCollisionError) Error() string {
	if e.Second == "" {
		return fmt.Sprintf("[%s] naming: %s: identifier %q does not decode unambiguously", e.Code, e.First, e.Identifier)
	}
	return fmt.Sprintf("[%s] naming: %s and %s both encode to %q", e.Code, e.First, e.Second, e.Identifier)
}

// UnresolvedError reports a named type reference with no matching declaration.
type UnresolvedError struct {
	Ref  string `json:"ref"`
	From string `json:"from"`
	Code string `json:"code"`
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("[%s] unresolved: %s references unknown type %s", e.Code, e.From, e.Ref)
}

// NewUnresolvedError creates an UnresolvedError.
func NewUnresolvedError(ref, from string) *UnresolvedError {
	return &UnresolvedError{Ref: ref, From: from, Code: ErrCodeUnresolved}
}
