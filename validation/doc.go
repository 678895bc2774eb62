// Package validation decodes request bodies into typed values and parses
// login identifiers.
//
// [Decode] never panics and never returns a half-populated value: the
// [Result] carries either the value or the field errors.
package validation
