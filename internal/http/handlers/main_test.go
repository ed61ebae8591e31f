package handlers_test

import (
	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/http/handlers"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}
}
