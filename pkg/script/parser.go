package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParseError reports a script file that could not be loaded. Callers must
// treat any parse failure as "keep the currently running script".
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Load reads and parses a script file. It returns either a fully populated
// script or a *ParseError; it never returns a partially populated script.
func Load(path string) (*GameScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	var gs GameScript
	gs.Metadata.Chapter = 1
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	if err := validate(&gs); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	applyDefaults(&gs)
	return &gs, nil
}

func validate(gs *GameScript) error {
	if gs.ScriptID == "" {
		return fmt.Errorf("missing required key scriptId")
	}
	if gs.Title == "" {
		return fmt.Errorf("missing required key title")
	}
	if len(gs.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	for i := range gs.Scenes {
		s := &gs.Scenes[i]
		if s.ID == "" {
			return fmt.Errorf("scene %d: missing required key id", i)
		}
		if s.Text == "" {
			return fmt.Errorf("scene %q: missing required key text", s.ID)
		}
		if s.Speaker == "" {
			return fmt.Errorf("scene %q: missing required key speaker", s.ID)
		}
	}
	return nil
}

func applyDefaults(gs *GameScript) {
	for i := range gs.Scenes {
		s := &gs.Scenes[i]
		if s.SpeakerColor == "" {
			s.SpeakerColor = DefaultSpeakerColor
		}
		if s.Effects != nil {
			s.Effects.AddItems = normalizeStacks(s.Effects.AddItems)
			s.Effects.RemoveItems = normalizeStacks(s.Effects.RemoveItems)
		}
	}
}

// normalizeStacks drops entries with no item id and defaults quantity to 1.
func normalizeStacks(stacks []ItemStack) []ItemStack {
	var out []ItemStack
	for _, st := range stacks {
		if st.ID == "" {
			continue
		}
		if st.Quantity < 1 {
			st.Quantity = 1
		}
		out = append(out, st)
	}
	return out
}

// ScriptIDFromPath derives the script identity used for resume
// reconciliation: the file basename without its extension.
func ScriptIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
