package server

import "testing"

func TestNormaliseEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		host   string
		secure bool
		err    bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://s3.eu-central-1.example.com", "s3.eu-central-1.example.com", true, false},
		{"https://host/with/path", "", false, true},
		{"", "", false, true},
	}
	for _, c := range cases {
		host, secure, err := normaliseEndpoint(c.in)
		if c.err {
			if err == nil {
				t.Fatalf("normaliseEndpoint(%q): want error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normaliseEndpoint(%q): %v", c.in, err)
		}
		if host != c.host || secure != c.secure {
			t.Fatalf("normaliseEndpoint(%q) = (%q, %v)", c.in, host, secure)
		}
	}
}
