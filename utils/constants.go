// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// IdempotencyPrefix is the prefix for stored booking idempotency records.
const IdempotencyPrefix = "idem:"

// IdempotencyTTL is how long a completed request's result is replayable.
const IdempotencyTTL = 24 * time.Hour

// AvailabilityCachePrefix is the prefix for cached availability listings.
const AvailabilityCachePrefix = "avail:"

// AvailabilityCacheTTL keeps availability reads fresh without hammering Mongo.
// Short on purpose: occupancy moves under load.
const AvailabilityCacheTTL = 15 * time.Second
