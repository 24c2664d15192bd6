package gateway

import (
	"sync"
	"testing"
)

func TestAllowlist_Allowed(t *testing.T) {
	a := NewAllowlist([]string{"example.com", "Classx.co.in", ".studyuk.site"})

	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"a.example.com", true},
		{"deep.a.example.com", true},
		{"EXAMPLE.COM", true},
		{"example.com.", true},
		{"badexample.com", false},
		{"example.com.evil.net", false},
		{"testseries-assets.classx.co.in", true},
		{"studyuk.site", true},
		{"co.in", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := a.Allowed(tt.host); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestAllowlist_Replace(t *testing.T) {
	a := NewAllowlist([]string{"old.example"})
	a.Replace([]string{"new.example", " "})

	if a.Allowed("old.example") {
		t.Error("old domain should be gone after Replace")
	}
	if !a.Allowed("api.new.example") {
		t.Error("new domain should be allowed after Replace")
	}
	if got := a.Domains(); len(got) != 1 || got[0] != "new.example" {
		t.Errorf("Domains() = %v", got)
	}
}

func TestAllowlist_ConcurrentReplace(t *testing.T) {
	a := NewAllowlist([]string{"example.com"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Replace([]string{"example.com", "other.com"})
		}()
		go func() {
			defer wg.Done()
			if !a.Allowed("example.com") {
				t.Error("example.com should stay allowed")
			}
		}()
	}
	wg.Wait()
}
