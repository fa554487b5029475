// Package state owns the mutable story state: flags, stats, and the
// persisted checkpoint pointer. It evaluates branch conditions and applies
// scene effects, delegating item effects to the inventory ledger.
package state

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mythicvoid/novel-engine/internal/storage"
	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/script"
)

// StartSceneID is the well-known opening scene written into a reset save,
// so "new game" and "continue" are both defined after a clear.
const StartSceneID = "a1_s01_mythic_void"

// IntroCompleteFlag survives a save clear: the intro is only ever watched
// once per install.
const IntroCompleteFlag = "intro_complete"

// SaveData is the persisted checkpoint: everything needed to resume a
// session exactly where it left off.
type SaveData struct {
	PlayerName    string                `json:"playerName"`
	CurrentScript string                `json:"currentScript"`
	CurrentScene  string                `json:"currentScene"`
	Flags         map[string]bool       `json:"flags"`
	Stats         map[string]int        `json:"stats"`
	Inventory     []inventory.SaveEntry `json:"inventory"`
}

// LoadKind distinguishes the ways a load can leave the store in a fresh
// state, so "no save ever existed" is observable apart from "save existed
// but was unreadable".
type LoadKind int

const (
	LoadFresh LoadKind = iota
	LoadResumed
	LoadCorrupted
)

// LoadOutcome is the result of LoadGame. Corrupted outcomes carry a reason
// for logging; the store itself is always left in a valid state.
type LoadOutcome struct {
	Kind   LoadKind
	Reason string
}

// GameState is the game state store. Single mutator, single thread; no
// locking by design.
type GameState struct {
	flags         map[string]bool
	stats         map[string]int
	playerName    string
	currentScript string
	currentScene  string

	store  storage.SaveStore
	logger *slog.Logger
}

// GameState must be usable as the ledger's flag sink.
var _ inventory.FlagSetter = (*GameState)(nil)

func New(store storage.SaveStore, logger *slog.Logger) *GameState {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameState{
		flags:  make(map[string]bool),
		stats:  make(map[string]int),
		store:  store,
		logger: logger,
	}
}

// CheckCondition evaluates a choice condition against the current flags.
// A nil condition, or one with both clauses empty, passes unconditionally.
// A flag the player never set evaluates as false.
func (gs *GameState) CheckCondition(c *script.Condition) bool {
	if c == nil {
		return true
	}

	if c.Flag != "" {
		required := true
		if c.RequiredValue != nil {
			required = *c.RequiredValue
		}
		if gs.flags[c.Flag] != required {
			return false
		}
	}

	if c.FlagsNot != "" && gs.flags[c.FlagsNot] {
		return false
	}

	return true
}

// ApplyEffects mutates flags, stats, and inventory in a fixed order:
// flag set, flag clear, stat deltas, item additions, item removals.
// The order is part of the contract; item removal can clear flags that a
// later effect kind would otherwise observe. Sub-steps that cannot apply
// (unknown item id, nil inventory) are local no-ops.
func (gs *GameState) ApplyEffects(e *script.Effects, inv *inventory.Ledger) {
	if e == nil {
		return
	}

	if e.AddFlag != "" {
		gs.flags[e.AddFlag] = true
	}
	if e.RemoveFlag != "" {
		gs.flags[e.RemoveFlag] = false
	}
	for stat, delta := range e.ModifyStats {
		gs.stats[stat] += delta
	}
	if inv != nil {
		for _, st := range e.AddItems {
			inv.AddItem(st.ID, st.Quantity)
		}
		for _, st := range e.RemoveItems {
			inv.RemoveItem(st.ID, st.Quantity, gs)
		}
	}
}

// SetFlag sets or clears a single flag.
func (gs *GameState) SetFlag(name string, value bool) {
	gs.flags[name] = value
}

// Flag returns a flag's value; unset flags read as false.
func (gs *GameState) Flag(name string) bool {
	return gs.flags[name]
}

// Stat returns a stat's value; unseen stats read as 0.
func (gs *GameState) Stat(name string) int {
	return gs.stats[name]
}

// Flags returns the live flags map for inspection (read-only by convention).
func (gs *GameState) Flags() map[string]bool {
	return gs.flags
}

// PlayerName returns the profile's player name; empty until set.
func (gs *GameState) PlayerName() string { return gs.playerName }

// SetPlayerName records the player name carried in every save.
func (gs *GameState) SetPlayerName(name string) { gs.playerName = name }

// CurrentScript returns the checkpoint's script id.
func (gs *GameState) CurrentScript() string { return gs.currentScript }

// CurrentScene returns the checkpoint's scene id.
func (gs *GameState) CurrentScene() string { return gs.currentScene }

// HasSaveData reports whether a checkpoint pointer is held.
func (gs *GameState) HasSaveData() bool { return gs.currentScript != "" }

// SaveGame moves the checkpoint pointer to (scriptID, sceneID) and writes
// the whole state through the save store. Effects for the scene must
// already be applied; the session controller sequences that. A write
// failure is logged and swallowed: the player keeps playing with an
// unpersisted checkpoint.
func (gs *GameState) SaveGame(ctx context.Context, scriptID, sceneID string, inv *inventory.Ledger) error {
	gs.currentScript = scriptID
	gs.currentScene = sceneID

	sd := SaveData{
		PlayerName:    gs.playerName,
		CurrentScript: scriptID,
		CurrentScene:  sceneID,
		Flags:         gs.flags,
		Stats:         gs.stats,
		Inventory:     []inventory.SaveEntry{},
	}
	if inv != nil {
		sd.Inventory = inv.SaveEntries()
	}

	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		gs.logger.Error("Failed to marshal save data", "error", err)
		return err
	}

	if err := gs.store.Save(ctx, data); err != nil {
		gs.logger.Error("Failed to save game", "script", scriptID, "scene", sceneID, "error", err)
		return err
	}

	gs.logger.Info("Game saved", "script", scriptID, "scene", sceneID)
	return nil
}

// LoadGame restores the checkpoint from the save store. A missing, empty,
// or unparseable save leaves the store in a valid fresh state; corruption
// is reported in the outcome but is never fatal.
func (gs *GameState) LoadGame(ctx context.Context, inv *inventory.Ledger) LoadOutcome {
	data, err := gs.store.Load(ctx)
	if err != nil {
		gs.logger.Warn("Failed to read save data, starting fresh", "error", err)
		return LoadOutcome{Kind: LoadCorrupted, Reason: err.Error()}
	}
	if data == nil {
		gs.logger.Info("No save file found, starting fresh")
		return LoadOutcome{Kind: LoadFresh}
	}

	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		gs.logger.Warn("Save data is corrupted, starting fresh", "error", err)
		return LoadOutcome{Kind: LoadCorrupted, Reason: err.Error()}
	}

	gs.playerName = sd.PlayerName
	gs.currentScript = sd.CurrentScript
	gs.currentScene = sd.CurrentScene
	for k, v := range sd.Flags {
		gs.flags[k] = v
	}
	for k, v := range sd.Stats {
		gs.stats[k] = v
	}
	if inv != nil {
		inv.LoadEntries(sd.Inventory)
	}

	gs.logger.Info("Game loaded", "script", gs.currentScript, "scene", gs.currentScene)
	return LoadOutcome{Kind: LoadResumed}
}

// ClearSave resets flags, stats, and the checkpoint pointer, preserving
// only the intro-completed marker, then writes the reset state with the
// scene pointer at the fixed starting scene.
func (gs *GameState) ClearSave(ctx context.Context) error {
	introSeen := gs.flags[IntroCompleteFlag]

	gs.flags = make(map[string]bool)
	gs.stats = make(map[string]int)
	gs.currentScript = ""
	gs.currentScene = ""

	if introSeen {
		gs.flags[IntroCompleteFlag] = true
	}

	sd := SaveData{
		PlayerName:    gs.playerName,
		CurrentScript: "",
		CurrentScene:  StartSceneID,
		Flags:         gs.flags,
		Stats:         gs.stats,
		Inventory:     []inventory.SaveEntry{},
	}

	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		return err
	}
	if err := gs.store.Save(ctx, data); err != nil {
		gs.logger.Error("Failed to reset save data", "error", err)
		return err
	}

	gs.logger.Info("Save data reset to beginning", "intro_preserved", introSeen)
	return nil
}
