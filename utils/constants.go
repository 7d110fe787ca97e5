// File: utils/constants.go
package utils

import (
	"fmt"
	"time"
)

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = time.Hour

// Redis key layout for the job notification cache. The relay key's expiry
// is the trigger for the T+2min re-announcement; the two reverse-lookup
// keys let the expiry handler recover the (category, city) routing pair.
func JobNotificationsKey(categoryID, cityID string) string {
	return fmt.Sprintf("job_notifications:%s:%s", categoryID, cityID)
}

func JobRelayKey(jobID string) string {
	return fmt.Sprintf("job_relay:%s", jobID)
}

func JobCategoryKey(jobID string) string {
	return fmt.Sprintf("job_category:%s", jobID)
}

func JobCityKey(jobID string) string {
	return fmt.Sprintf("job_city:%s", jobID)
}
