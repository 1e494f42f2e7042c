package clock

import (
	"testing"
	"time"

	"github.com/smallbiznis/invoicegen/internal/config"
)

func TestSystemClockDefaultsToUTC(t *testing.T) {
	if loc := (SystemClock{}).Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}

func TestNewClockUsesTimezone(t *testing.T) {
	c, err := NewClock(config.Config{Timezone: "Asia/Kolkata"})
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	if name := c.Now().Location().String(); name != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %s", name)
	}

	if _, err := NewClock(config.Config{Timezone: "Mars/Olympus"}); err == nil {
		t.Fatalf("expected unknown timezone to fail")
	}
}
