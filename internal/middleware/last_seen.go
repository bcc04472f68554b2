package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/models"
)

const lastSeenThrottle = time.Minute

// TouchLastSeen stamps users.last_seen_at for the authenticated user, at
// most once per minute per user. The throttle lives in Redis so multiple
// instances share it; a Redis failure just means an extra DB write.
func TouchLastSeen(gdb *gorm.DB, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("userId").(string)
		if ok && uid != "" {
			key := "presence:last_seen:" + uid
			set, err := rdb.SetNX(context.Background(), key, 1, lastSeenThrottle).Result()
			if err != nil || set {
				now := time.Now()
				gdb.Model(&models.User{}).
					Where("id = ?", uid).
					Update("last_seen_at", now)
			}
		}
		return c.Next()
	}
}
