// Package idtoken issues and verifies compact signed identity tokens
// (JWS compact serialization with "typ":"JWT").
//
// The package-level functions Issue, SignClaims, Parse and (*Token).Verify
// form a stateless engine: every input, including the current time, is
// passed explicitly. Processor wraps that engine with configuration, key
// handling, logging, metrics and rate limiting for long-lived services.
//
// Verification always requires an explicit allow-list of algorithms and
// runs its checks in a fixed order, reporting only the first failure:
//
//	typ, alg present, alg permitted, iss, aud, exp, iat, nonce, signature
//
// A Processor configured with EnableReplayProtection additionally accepts
// each token ID (jti) once, after all of the above passed.
package idtoken
