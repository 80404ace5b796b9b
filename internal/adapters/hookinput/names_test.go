package hookinput

import (
	"testing"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		key  autoclicker.Key
		want string
		ok   bool
	}{
		{key: "q", want: "q", ok: true},
		{key: "5", want: "5", ok: true},
		{key: " ", want: "space", ok: true},
		{key: "/", want: "/", ok: true},
		{key: autoclicker.KeyAltLeft, want: "alt", ok: true},
		{key: autoclicker.KeyShiftLeft, want: "shift", ok: true},
		{key: "<cmd>"},
		{key: "ß"},
	}
	for _, tc := range tests {
		got, ok := keyName(tc.key)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("keyName(%q) = %q,%v, want %q,%v", tc.key, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMouseNames(t *testing.T) {
	if name, ok := mouseName(autoclicker.ButtonRight); !ok || name != "right" {
		t.Fatalf("mouseName(right) = %q,%v", name, ok)
	}
	if _, ok := mouseName(autoclicker.Button4); ok {
		t.Fatalf("side buttons cannot be injected")
	}
	for raw, want := range map[uint16]autoclicker.Button{1: autoclicker.ButtonLeft, 4: autoclicker.Button4, 5: autoclicker.Button5} {
		if got, ok := buttonFromHook(raw); !ok || got != want {
			t.Fatalf("buttonFromHook(%d) = %s,%v, want %s", raw, got, ok, want)
		}
	}
	if _, ok := buttonFromHook(0); ok {
		t.Fatalf("button 0 should be unmapped")
	}
}
