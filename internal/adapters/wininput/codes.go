package wininput

import (
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

const (
	vkSPACE  uint32 = 0x20
	vkMENU   uint32 = 0x12
	vkLSHIFT uint32 = 0xA0
	vkLMENU  uint32 = 0xA4
	vkRMENU  uint32 = 0xA5

	vkOEM1      uint32 = 0xBA
	vkOEMPlus   uint32 = 0xBB
	vkOEMComma  uint32 = 0xBC
	vkOEMMinus  uint32 = 0xBD
	vkOEMPeriod uint32 = 0xBE
	vkOEM2      uint32 = 0xBF
	vkOEM3      uint32 = 0xC0
	vkOEM4      uint32 = 0xDB
	vkOEM5      uint32 = 0xDC
	vkOEM6      uint32 = 0xDD
	vkOEM7      uint32 = 0xDE

	llkhfExtended uint32 = 0x01
)

// US layout positions for the punctuation keys.
var punctuationVKs = map[rune]uint32{
	' ':  vkSPACE,
	';':  vkOEM1,
	'=':  vkOEMPlus,
	',':  vkOEMComma,
	'-':  vkOEMMinus,
	'.':  vkOEMPeriod,
	'/':  vkOEM2,
	'`':  vkOEM3,
	'[':  vkOEM4,
	'\\': vkOEM5,
	']':  vkOEM6,
	'\'': vkOEM7,
}

var vkToKey = func() map[uint32]autoclicker.Key {
	m := make(map[uint32]autoclicker.Key, len(punctuationVKs))
	for r, vk := range punctuationVKs {
		m[vk] = autoclicker.CharKey(r)
	}
	return m
}()

// KeyToVK returns the virtual-key code that produces key.
func KeyToVK(key autoclicker.Key) (uint32, bool) {
	switch key {
	case autoclicker.KeyAltLeft:
		return vkLMENU, true
	case autoclicker.KeyShiftLeft:
		return vkLSHIFT, true
	}
	r, ok := key.Rune()
	if !ok {
		return 0, false
	}
	switch {
	case r >= 'a' && r <= 'z':
		return uint32(r-'a') + 'A', true
	case r >= '0' && r <= '9':
		return uint32(r), true
	}
	vk, ok := punctuationVKs[r]
	return vk, ok
}

// KeyFromVK maps a low-level hook report back to a key. Right alt arrives as VK_RMENU with
// the extended flag and is not the left alt modifier.
func KeyFromVK(vk, flags uint32) (autoclicker.Key, bool) {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return autoclicker.CharKey(rune(vk-'A') + 'a'), true
	case vk >= '0' && vk <= '9':
		return autoclicker.CharKey(rune(vk)), true
	case vk == vkLMENU:
		return autoclicker.KeyAltLeft, true
	case vk == vkMENU && flags&llkhfExtended == 0:
		return autoclicker.KeyAltLeft, true
	case vk == vkRMENU:
		return "", false
	}
	key, ok := vkToKey[vk]
	return key, ok
}

func xButtonFromMouseData(mouseData uint32) (autoclicker.Button, bool) {
	switch uint16(mouseData >> 16) {
	case 0x0001:
		return autoclicker.Button4, true
	case 0x0002:
		return autoclicker.Button5, true
	default:
		return 0, false
	}
}
