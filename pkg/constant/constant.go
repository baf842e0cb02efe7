package constant

// Redis key templates. The prefix is configurable so that several
// deployments can share a single Redis instance.
const (
	redisKeyOnline = "online:%s"
)

var redisKeyPrefix = "kinship:"

// InitRedisKeyPrefix sets the global Redis key prefix
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

func RedisKeyOnline() string { return redisKeyPrefix + redisKeyOnline }

// DefaultEventTopic is the shared pub/sub channel every server process
// subscribes to for cross-process event fan-out.
const DefaultEventTopic = "kinship:events"
