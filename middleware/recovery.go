package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
)

func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				TrackError("panic")
				log.Printf("Recovered from panic: %v", err)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}
