package popupcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/popupcache"
)

func TestOpen_DisabledWithoutAddr(t *testing.T) {
	c, err := popupcache.Open(context.Background(), "", "", 0, time.Minute)
	if err != nil || c != nil {
		t.Fatalf("expected nil cache, got %v / %v", c, err)
	}
}

func TestNilCache_AlwaysRenders(t *testing.T) {
	var c *popupcache.Cache
	calls := 0
	render := func() (string, error) {
		calls++
		return "<table></table>", nil
	}
	for i := 0; i < 2; i++ {
		html, err := c.GetOrRender(context.Background(), "k", render)
		if err != nil || html != "<table></table>" {
			t.Fatalf("unexpected %q / %v", html, err)
		}
	}
	if calls != 2 {
		t.Errorf("nil cache should render every time, got %d calls", calls)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNilCache_RenderError(t *testing.T) {
	var c *popupcache.Cache
	boom := errors.New("boom")
	if _, err := c.GetOrRender(context.Background(), "k", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("expected render error, got %v", err)
	}
}

func TestKey_IncludesVersion(t *testing.T) {
	a := popupcache.Key(districts.ChamberLower, "42", "b1.r1")
	b := popupcache.Key(districts.ChamberLower, "42", "b1.r2")
	if a == b {
		t.Errorf("keys for different versions should differ: %s", a)
	}
}
