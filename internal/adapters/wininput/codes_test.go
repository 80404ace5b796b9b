package wininput

import (
	"testing"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func TestKeyToVKMappings(t *testing.T) {
	tests := []struct {
		key autoclicker.Key
		vk  uint32
	}{
		{key: "a", vk: 0x41},
		{key: "z", vk: 0x5A},
		{key: "0", vk: 0x30},
		{key: ",", vk: vkOEMComma},
		{key: " ", vk: vkSPACE},
		{key: autoclicker.KeyAltLeft, vk: vkLMENU},
	}
	for _, tc := range tests {
		vk, ok := KeyToVK(tc.key)
		if !ok || vk != tc.vk {
			t.Fatalf("KeyToVK(%q)=%#x,%v, want %#x,true", tc.key, vk, ok, tc.vk)
		}
		key, ok := KeyFromVK(vk, 0)
		if !ok || key != tc.key {
			t.Fatalf("KeyFromVK(%#x)=%q,%v, want %q,true", vk, key, ok, tc.key)
		}
	}

	if _, ok := KeyToVK("<ctrl>"); ok {
		t.Fatalf("expected named non-alt key to be unmapped")
	}
}

func TestKeyFromVKAltVariants(t *testing.T) {
	if key, ok := KeyFromVK(vkMENU, 0); !ok || key != autoclicker.KeyAltLeft {
		t.Fatalf("KeyFromVK(VK_MENU)=%q,%v, want left alt", key, ok)
	}
	if _, ok := KeyFromVK(vkMENU, llkhfExtended); ok {
		t.Fatalf("extended VK_MENU is right alt and should be unmapped")
	}
	if _, ok := KeyFromVK(vkRMENU, llkhfExtended); ok {
		t.Fatalf("VK_RMENU should be unmapped")
	}
}

func TestShiftIsInjectableOnly(t *testing.T) {
	if vk, ok := KeyToVK(autoclicker.KeyShiftLeft); !ok || vk != vkLSHIFT {
		t.Fatalf("KeyToVK(shift) = %#x,%v, want %#x,true", vk, ok, vkLSHIFT)
	}
	if _, ok := KeyFromVK(vkLSHIFT, 0); ok {
		t.Fatalf("VK_LSHIFT should not be reported as a chord key")
	}
}

func TestXButtonFromMouseData(t *testing.T) {
	if button, ok := xButtonFromMouseData(0x0001 << 16); !ok || button != autoclicker.Button4 {
		t.Fatalf("XBUTTON1 = %s,%v, want button4", button, ok)
	}
	if button, ok := xButtonFromMouseData(0x0002 << 16); !ok || button != autoclicker.Button5 {
		t.Fatalf("XBUTTON2 = %s,%v, want button5", button, ok)
	}
	if _, ok := xButtonFromMouseData(0); ok {
		t.Fatalf("empty mouse data should be unmapped")
	}
}
