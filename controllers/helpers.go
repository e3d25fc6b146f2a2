package controllers

import (
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"pet-adoption-api/config"
	"pet-adoption-api/services"
)

// respondError writes a domain error with its mapped status and code;
// anything else is logged and answered as a 500.
func respondError(c *gin.Context, err error) {
	if de, ok := services.AsDomainError(err); ok {
		body := gin.H{"error": de.Message, "code": de.Code}
		if len(de.Allowed) > 0 {
			body["allowed"] = de.Allowed
		}
		c.JSON(de.HTTPStatus(), body)
		return
	}
	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

// defaultDispatcher builds the shared event dispatcher on first use.
// Redis may be nil, notifications still land in the database then.
func defaultDispatcher() *services.Dispatcher {
	dispatcherOnce.Do(func() {
		var rt services.RealtimePublisher
		if config.Redis != nil {
			rt = services.NewRedisPublisher(config.Redis)
		}
		dispatcher = services.NewDispatcher(config.DB, rt)
	})
	return dispatcher
}

var (
	dispatcherOnce sync.Once
	dispatcher     *services.Dispatcher
)

// paramInt reads an integer path parameter, answering 400 on failure.
func paramInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}
