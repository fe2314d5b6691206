package utils

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"héllo", 2, "h..."},
		{"abc", 0, "abc"},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.max); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("  find today's\nweather\r\nin Paris \n"); got != "find today's weather in Paris" {
		t.Fatalf("got %q", got)
	}
}
