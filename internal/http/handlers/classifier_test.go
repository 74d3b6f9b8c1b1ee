package handlers

import (
	"testing"
)

func TestValidJobType(t *testing.T) {
	for _, jt := range []string{"all", "unclassified", "catch_all"} {
		if !validJobType(jt) {
			t.Fatalf("expected %q to be a valid job type", jt)
		}
	}
	for _, jt := range []string{"", "estimate", "ALL", "catch-all", "everything"} {
		if validJobType(jt) {
			t.Fatalf("expected %q to be rejected", jt)
		}
	}
}
