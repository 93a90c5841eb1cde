// Package logging provides structured logging utilities for idtoken.
package logging

// Standard field names for consistent logging across the module.
const (
	// FieldAlgorithm is the signing algorithm of a token.
	FieldAlgorithm = "algorithm"

	// FieldIssuer is the issuer a processor signs as.
	FieldIssuer = "issuer"

	// FieldAudience is the audience a token is issued for.
	FieldAudience = "audience"

	// FieldTokenID is the jti claim of an issued token.
	FieldTokenID = "token_id"

	// FieldKind is the error kind label of a failed operation.
	FieldKind = "kind"

	// FieldField is the header or claim name that failed validation.
	FieldField = "field"

	// FieldSegment is the token segment that failed to parse.
	FieldSegment = "segment"

	// FieldError is the error message or description.
	FieldError = "error"

	// FieldComponent identifies the component generating the log.
	FieldComponent = "component"
)
