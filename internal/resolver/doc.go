// Package resolver fetches metadata payloads from remote sources by hash.
//
// A Resolver fans a query out to every configured Source concurrently and
// returns the first payload whose Keccak-256 hash equals the requested hash.
// Payloads that do not hash to the request are discarded: a source can be
// wrong or malicious, but it can never place content under a foreign hash.
//
// Resolution failures are not fatal. Every source failing, or none of them
// knowing the hash, yields ErrNotFound, which callers surface as a
// diagnostic rather than aborting a parse.
package resolver
