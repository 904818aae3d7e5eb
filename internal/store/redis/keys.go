package redis

// RootPath is the RedisJSON path short link documents are written at.
const RootPath = "$"

// ShortLinkKey returns the Redis key holding the document for a short identifier.
// The default prefix is empty so documents written by the system of record
// under the bare identifier are readable as-is.
func ShortLinkKey(prefix, id string) string {
	return prefix + id
}
