package defaults

import (
	"testing"
	"time"
)

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "ns"); got != "ns" {
		t.Fatalf("Coalesce(\"\") = %q", got)
	}
	if got := Coalesce("pages", "ns"); got != "pages" {
		t.Fatalf("Coalesce(pages) = %q", got)
	}
	if got := Coalesce(time.Duration(0), time.Second); got != time.Second {
		t.Fatalf("Coalesce(0s) = %v", got)
	}
}

func TestPositive(t *testing.T) {
	if got := Positive(-time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("Positive(-1s) = %v", got)
	}
	if got := Positive(3*time.Second, 10*time.Second); got != 3*time.Second {
		t.Fatalf("Positive(3s) = %v", got)
	}
}
