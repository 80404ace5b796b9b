package autoclicker

import (
	"encoding/json"
	"slices"
	"testing"
)

func configsEqual(a, b Config) bool {
	return a.WaitTime == b.WaitTime &&
		a.DeviationTime == b.DeviationTime &&
		a.DistributionType == b.DistributionType &&
		a.Toggle == b.Toggle &&
		a.InputMode == b.InputMode &&
		a.AltModifier == b.AltModifier &&
		slices.Equal(a.KeyCombination, b.KeyCombination) &&
		a.SpecialMousePress == b.SpecialMousePress &&
		a.OutputType == b.OutputType &&
		slices.Equal(a.OutputSequence, b.OutputSequence) &&
		a.MouseOutput == b.MouseOutput &&
		a.HoldTime == b.HoldTime
}

func TestConfigJSONRoundTrip(t *testing.T) {
	tests := []Config{
		{},
		{
			WaitTime:          0.125,
			DeviationTime:     0.03,
			DistributionType:  DistributionNormal,
			Toggle:            true,
			InputMode:         InputMouse,
			AltModifier:       true,
			KeyCombination:    []string{"a", "7"},
			SpecialMousePress: SideButton5,
			OutputType:        OutputKeyboard,
			OutputSequence:    []string{"q", "w", "e"},
			MouseOutput:       MouseOutputRight,
			HoldTime:          0.015,
		},
		{WaitTime: -1, DeviationTime: -2, OutputType: OutputKeyboard},
	}

	for i, cfg := range tests {
		data, err := json.Marshal(cfg)
		if err != nil {
			t.Fatalf("case %d: Marshal() error = %v", i, err)
		}
		var got Config
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("case %d: Unmarshal() error = %v", i, err)
		}
		if !configsEqual(got, cfg) {
			t.Fatalf("case %d: round trip = %+v, want %+v", i, got, cfg)
		}
	}
}

func TestConfigMarshalWritesEveryKey(t *testing.T) {
	data, err := json.Marshal(Config{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	keys := []string{
		"wait_time", "deviation_time", "distribution_type", "toggle", "input_mode", "alt_modifier",
		"key_combination", "special_mouse_press", "output_type", "output_sequence", "mouse_output", "hold_time",
	}
	if len(doc) != len(keys) {
		t.Fatalf("document has %d keys, want %d: %s", len(doc), len(keys), data)
	}
	for _, key := range keys {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if list, ok := doc["key_combination"].([]any); !ok || len(list) != 0 {
		t.Fatalf("key_combination = %#v, want empty list", doc["key_combination"])
	}
}

func TestConfigUnmarshalAppliesDefaults(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal([]byte(`{"wait_time": 0.5, "output_sequence": ["a"]}`), &cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Config{WaitTime: 0.5, OutputSequence: []string{"a"}}
	if !configsEqual(cfg, want) {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestConfigDescribe(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{
			cfg:  Config{AltModifier: true, KeyCombination: []string{"a", "b"}, Toggle: true},
			want: "Watching for input: <alt>+a+b, with toggle\nOutputting: left mouse button",
		},
		{
			cfg:  Config{InputMode: InputMouse, SpecialMousePress: SideButton5, OutputType: OutputKeyboard, OutputSequence: []string{"x", "y"}},
			want: "Watching for input: mouse button 5\nOutputting: x, y",
		},
		{
			cfg:  Config{InputMode: InputMouse, MouseOutput: MouseOutputRight},
			want: "Watching for input: mouse button 4\nOutputting: right mouse button",
		},
	}
	for _, tc := range tests {
		if got := tc.cfg.Describe(); got != tc.want {
			t.Fatalf("Describe() = %q, want %q", got, tc.want)
		}
	}
}

func TestConfigBindingAndSequence(t *testing.T) {
	cfg := Config{AltModifier: true, KeyCombination: []string{"A", "", "b"}, OutputSequence: []string{"X", "y"}}

	if got, want := cfg.AcceptedKeys(), []Key{KeyAltLeft, "a", "b"}; !slices.Equal(got, want) {
		t.Fatalf("AcceptedKeys() = %v, want %v", got, want)
	}
	if got, want := cfg.Sequence(), []Key{"X", "y"}; !slices.Equal(got, want) {
		t.Fatalf("Sequence() = %v, want %v", got, want)
	}
	if got := cfg.Binding().Button; got != Button4 {
		t.Fatalf("Binding().Button = %v, want button4", got)
	}
}

func TestKeyUnshift(t *testing.T) {
	tests := []struct {
		key     Key
		want    Key
		shifted bool
	}{
		{"A", "a", true},
		{"a", "a", false},
		{"7", "7", false},
		{KeyAltLeft, KeyAltLeft, false},
	}
	for _, tc := range tests {
		got, shifted := tc.key.Unshift()
		if got != tc.want || shifted != tc.shifted {
			t.Fatalf("Unshift(%q) = %q,%v, want %q,%v", tc.key, got, shifted, tc.want, tc.shifted)
		}
	}
}
