// Package dedupe remembers recently committed (identity, day) pairs so the
// record store can answer a repeated POST /entry with 409 before touching
// the database. The database unique index stays authoritative; the cache
// only short-circuits retries from clients that already succeeded.
package dedupe
