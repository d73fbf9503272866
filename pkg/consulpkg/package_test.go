package consulpkg

import "testing"

func TestSplitKey(t *testing.T) {
	cases := []struct {
		in        string
		dir, base string
	}{
		{"config.json", "", "config.json"},
		{"service/a/config.json", "service/a", "config.json"},
	}

	for _, c := range cases {
		dir, base := splitKey(c.in)
		if dir != c.dir || base != c.base {
			t.Errorf("splitKey(%q) = (%q, %q), want (%q, %q)", c.in, dir, base, c.dir, c.base)
		}
	}
}

func TestConfigNormalizedDefaults(t *testing.T) {
	c := Config{}.normalized()
	if c.Address != "127.0.0.1:8500" {
		t.Errorf("Address = %q, want default", c.Address)
	}
	if c.Prefix != "/" {
		t.Errorf("Prefix = %q, want default", c.Prefix)
	}
}
