package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestLimitKeyPrefersAccountOverIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/bets", nil)

	if got := limitKey(c); got != "ip:"+c.ClientIP() {
		t.Errorf("anonymous caller should be keyed by IP, got %q", got)
	}

	id := uuid.New()
	c.Set(CtxAccountID, id)
	if got := limitKey(c); got != "acct:"+id.String() {
		t.Errorf("authenticated caller should be keyed by account, got %q", got)
	}
}

func TestRateLimiterExhaustsAndRefuses(t *testing.T) {
	rl := newRateLimiter(1) // burst floor of 10 tokens

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.allow("acct:same") {
			allowed++
		}
	}
	if allowed < 10 || allowed >= 20 {
		t.Errorf("expected the bucket to exhaust after its burst, allowed %d of 20", allowed)
	}

	// A different key owns a fresh bucket.
	if !rl.allow("acct:other") {
		t.Error("a distinct caller must not be throttled by another's bucket")
	}
}
