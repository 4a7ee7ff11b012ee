package controllers_test

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/readwith/readwith/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "controller-test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("REGISTER_ATTEMPT_COOLDOWN_SEC", "0")
	os.Setenv("REGISTER_MAX_PER_IP_PER_DAY", "0")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "6000")
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
	os.Exit(m.Run())
}
