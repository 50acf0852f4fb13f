// Package auth authenticates clients of the record store.
//
// # Tokens
//
// Clients present an HS256 JWT as a bearer token. The "sub" claim names the
// identity the token acts for and "iss" must be the store's issuer. Tokens
// are minted with `wen-store token --identity ID` using the configured
// jwt_secret.
//
// # HTTP
//
// Middleware verifies the bearer token and attaches the identity to the
// request context (WithIdentity / IdentityFromContext). Handlers then call
// Authorize to check that the identity in the path or body matches the token.
//
// When no secret is configured the store runs open and Authorize allows
// every request.
package auth
