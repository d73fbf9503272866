package s3pkg

import "testing"

func TestSplitKey(t *testing.T) {
	cases := []struct {
		in       string
		dir, base string
	}{
		{"file.txt", "", "file.txt"},
		{"a/file.txt", "a", "file.txt"},
		{"a/b/c/file.txt", "a/b/c", "file.txt"},
	}

	for _, c := range cases {
		dir, base := splitKey(c.in)
		if dir != c.dir || base != c.base {
			t.Errorf("splitKey(%q) = (%q, %q), want (%q, %q)", c.in, dir, base, c.dir, c.base)
		}
	}
}
