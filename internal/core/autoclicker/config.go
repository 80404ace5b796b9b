package autoclicker

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Distribution int

const (
	DistributionUniform Distribution = iota
	DistributionNormal
)

func (d Distribution) String() string {
	if d == DistributionNormal {
		return "normal"
	}
	return "uniform"
}

type InputMode int

const (
	InputKeyboard InputMode = iota
	InputMouse
)

func (m InputMode) String() string {
	if m == InputMouse {
		return "mouse"
	}
	return "keyboard"
}

// SideButton selects the mouse side button that activates clicking in mouse input mode.
type SideButton int

const (
	SideButton4 SideButton = iota
	SideButton5
)

func (s SideButton) Button() Button {
	if s == SideButton5 {
		return Button5
	}
	return Button4
}

type OutputType int

const (
	OutputMouse OutputType = iota
	OutputKeyboard
)

func (o OutputType) String() string {
	if o == OutputKeyboard {
		return "keyboard"
	}
	return "mouse"
}

type MouseOutput int

const (
	MouseOutputLeft MouseOutput = iota
	MouseOutputRight
)

func (m MouseOutput) Button() Button {
	if m == MouseOutputRight {
		return ButtonRight
	}
	return ButtonLeft
}

// Config holds every tunable of a Service. The zero value is the default configuration.
// Nothing is validated here; the Service copes with degenerate values.
type Config struct {
	WaitTime          float64      `json:"wait_time" toml:"wait_time" yaml:"wait_time"`
	DeviationTime     float64      `json:"deviation_time" toml:"deviation_time" yaml:"deviation_time"`
	DistributionType  Distribution `json:"distribution_type" toml:"distribution_type" yaml:"distribution_type"`
	Toggle            bool         `json:"toggle" toml:"toggle" yaml:"toggle"`
	InputMode         InputMode    `json:"input_mode" toml:"input_mode" yaml:"input_mode"`
	AltModifier       bool         `json:"alt_modifier" toml:"alt_modifier" yaml:"alt_modifier"`
	KeyCombination    []string     `json:"key_combination" toml:"key_combination" yaml:"key_combination"`
	SpecialMousePress SideButton   `json:"special_mouse_press" toml:"special_mouse_press" yaml:"special_mouse_press"`
	OutputType        OutputType   `json:"output_type" toml:"output_type" yaml:"output_type"`
	OutputSequence    []string     `json:"output_sequence" toml:"output_sequence" yaml:"output_sequence"`
	MouseOutput       MouseOutput  `json:"mouse_output" toml:"mouse_output" yaml:"mouse_output"`
	HoldTime          float64      `json:"hold_time" toml:"hold_time" yaml:"hold_time"`
}

type configJSON Config

// MarshalJSON always writes every key, with empty lists instead of null.
func (c Config) MarshalJSON() ([]byte, error) {
	out := configJSON(c.Clone())
	if out.KeyCombination == nil {
		out.KeyCombination = []string{}
	}
	if out.OutputSequence == nil {
		out.OutputSequence = []string{}
	}
	return json.Marshal(out)
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Config(in)
	return nil
}

func (c Config) Clone() Config {
	out := c
	if c.KeyCombination != nil {
		out.KeyCombination = append([]string{}, c.KeyCombination...)
	}
	if c.OutputSequence != nil {
		out.OutputSequence = append([]string{}, c.OutputSequence...)
	}
	return out
}

// AcceptedKeys returns the keys that form the activation chord.
func (c Config) AcceptedKeys() []Key {
	keys := make([]Key, 0, len(c.KeyCombination)+1)
	if c.AltModifier {
		keys = append(keys, KeyAltLeft)
	}
	for _, raw := range c.KeyCombination {
		if raw == "" {
			continue
		}
		keys = append(keys, Key(strings.ToLower(raw)))
	}
	return keys
}

// Sequence returns the emitted keys in order. Case is kept: an uppercase letter is typed
// with Shift held.
func (c Config) Sequence() []Key {
	keys := make([]Key, 0, len(c.OutputSequence))
	for _, raw := range c.OutputSequence {
		keys = append(keys, Key(raw))
	}
	return keys
}

func (c Config) Binding() Binding {
	return Binding{
		Mode:   c.InputMode,
		Keys:   c.AcceptedKeys(),
		Button: c.SpecialMousePress.Button(),
	}
}

// Describe renders the activation and output settings for status displays.
func (c Config) Describe() string {
	var input string
	if c.InputMode == InputMouse {
		if c.SpecialMousePress == SideButton5 {
			input = "mouse button 5"
		} else {
			input = "mouse button 4"
		}
	} else {
		parts := make([]string, 0, len(c.KeyCombination)+1)
		if c.AltModifier {
			parts = append(parts, "<alt>")
		}
		parts = append(parts, c.KeyCombination...)
		input = strings.Join(parts, "+")
	}
	if c.Toggle {
		input += ", with toggle"
	}

	var output string
	if c.OutputType == OutputKeyboard {
		output = strings.Join(c.OutputSequence, ", ")
	} else if c.MouseOutput == MouseOutputRight {
		output = "right mouse button"
	} else {
		output = "left mouse button"
	}
	return fmt.Sprintf("Watching for input: %s\nOutputting: %s", input, output)
}
