package server

import "testing"

func TestCapacityOK(t *testing.T) {
	cases := []struct {
		name                   string
		used, base, addon, add int64
		want                   bool
	}{
		{"empty wallet", 0, 100, 0, 50, true},
		{"exactly at cap", 40, 100, 0, 60, true},
		{"one over cap", 41, 100, 0, 60, false},
		{"addon extends cap", 100, 100, 50, 50, true},
		{"addon boundary exceeded", 100, 100, 50, 51, false},
		{"zero add always fits under cap", 100, 100, 0, 0, true},
	}
	for _, c := range cases {
		if got := capacityOK(c.used, c.base, c.addon, c.add); got != c.want {
			t.Fatalf("%s: capacityOK(%d,%d,%d,%d) = %v, want %v",
				c.name, c.used, c.base, c.addon, c.add, got, c.want)
		}
	}
}
