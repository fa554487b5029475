package script

// DefaultSpeakerColor is used when a scene does not specify one.
const DefaultSpeakerColor = "#ffffffff"

// EndSceneID is the sentinel scene id that marks the end of a script.
// It is never a real scene; reaching it signals script completion.
const EndSceneID = "END"

// Metadata carries optional script-level information for menus and
// chapter-select screens.
type Metadata struct {
	Chapter       int      `json:"chapter"`
	Unlocks       []string `json:"unlocks,omitempty"`
	EstimatedTime string   `json:"estimatedTime,omitempty"`
}

// Condition gates the visibility of a choice. Both clauses must pass
// (logical AND); an empty clause passes vacuously.
type Condition struct {
	// Flag must equal RequiredValue. A flag the player never set
	// evaluates as false.
	Flag string `json:"flag,omitempty"`
	// FlagsNot must be false or unset for the condition to pass.
	FlagsNot string `json:"flagsNot,omitempty"`
	// RequiredValue defaults to true when absent.
	RequiredValue *bool `json:"requiredValue,omitempty"`
}

// ItemStack is an (item id, quantity) pair inside an effect bundle.
type ItemStack struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Effects is the bundle of state mutations applied when a scene loads.
type Effects struct {
	AddFlag     string         `json:"addFlag,omitempty"`
	RemoveFlag  string         `json:"removeFlag,omitempty"`
	ModifyStats map[string]int `json:"modifyStat,omitempty"`
	AddItems    []ItemStack    `json:"addItems,omitempty"`
	RemoveItems []ItemStack    `json:"removeItems,omitempty"`
}

// Choice is a player-selectable option. NextScript, when non-empty, takes
// precedence over NextScene and chains into a different script file.
type Choice struct {
	Text       string     `json:"text"`
	NextScene  string     `json:"nextScene"`
	NextScript string     `json:"nextScript,omitempty"`
	Condition  *Condition `json:"condition,omitempty"`
}

// Scene is one narrative beat: text, speaker, background, and the choices
// leading out of it. Effects, when present, are applied on scene entry.
type Scene struct {
	ID           string   `json:"id"`
	Background   string   `json:"background"`
	Text         string   `json:"text"`
	Speaker      string   `json:"speaker"`
	SpeakerColor string   `json:"speakerColor"`
	Choices      []Choice `json:"choices"`
	Effects      *Effects `json:"effects,omitempty"`
}

// GameScript is a fully parsed story unit. Immutable once loaded; a script
// chain transition replaces the whole value.
type GameScript struct {
	ScriptID string   `json:"scriptId"`
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
	Scenes   []Scene  `json:"scenes"`
}

// FindScene returns the scene with the given id, or nil. A miss is normal
// control flow (e.g. the END sentinel), not an error.
func (gs *GameScript) FindScene(sceneID string) *Scene {
	for i := range gs.Scenes {
		if gs.Scenes[i].ID == sceneID {
			return &gs.Scenes[i]
		}
	}
	return nil
}

// FirstScene returns the opening scene of the script, or nil for an empty
// scene list.
func (gs *GameScript) FirstScene() *Scene {
	if len(gs.Scenes) == 0 {
		return nil
	}
	return &gs.Scenes[0]
}
