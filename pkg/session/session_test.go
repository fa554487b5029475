package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mythicvoid/novel-engine/internal/storage"
	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

const introScript = `{
	"scriptId": "intro",
	"title": "Intro",
	"scenes": [
		{
			"id": "s1",
			"background": "void",
			"text": "You awaken.",
			"speaker": "Narrator",
			"choices": [
				{"text": "Stand up", "nextScene": "s2"},
				{"text": "Use the sword", "nextScene": "s3",
				 "condition": {"flag": "has_asgard_sword"}}
			]
		},
		{
			"id": "s2",
			"background": "hall",
			"text": "A hall stretches before you.",
			"speaker": "Narrator",
			"choices": [{"text": "Walk on", "nextScene": "END"}],
			"effects": {
				"addFlag": "met_npc",
				"modifyStat": {"courage": 1},
				"addItems": [{"id": "torch", "quantity": 2}]
			}
		},
		{
			"id": "s3",
			"background": "hall",
			"text": "The blade hums.",
			"speaker": "Narrator",
			"choices": []
		}
	]
}`

const gateScript = `{
	"scriptId": "asgard_gate",
	"title": "The Gate",
	"scenes": [
		{
			"id": "g1",
			"background": "gate",
			"text": "The gate looms.",
			"speaker": "Narrator",
			"choices": []
		}
	]
}`

type fixture struct {
	scriptPath string
	gatePath   string
	store      *storage.MockStore
	gameState  *state.GameState
	ledger     *inventory.Ledger
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	scriptPath := filepath.Join(dir, "intro.json")
	if err := os.WriteFile(scriptPath, []byte(introScript), 0644); err != nil {
		t.Fatal(err)
	}
	gatePath := filepath.Join(dir, "asgard_gate.json")
	if err := os.WriteFile(gatePath, []byte(gateScript), 0644); err != nil {
		t.Fatal(err)
	}
	catalogPath := filepath.Join(dir, "items.json")
	catalog := `{"torch": {"maxStackSize": 5}, "asgard_sword": {"stackable": false}}`
	if err := os.WriteFile(catalogPath, []byte(catalog), 0644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewMockStore()
	return &fixture{
		scriptPath: scriptPath,
		gatePath:   gatePath,
		store:      store,
		gameState:  state.New(store, testLogger()),
		ledger:     inventory.NewLedger(catalogPath, testLogger()),
	}
}

func (f *fixture) newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(Config{
		ScriptPath: f.scriptPath,
		State:      f.gameState,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// advance runs the fade machine to a steady state.
func advance(s *Session) {
	for i := 0; i < 100 && s.Fade() != Idle && !s.Completed(); i++ {
		s.Advance(0.05)
	}
}

func savedState(t *testing.T, store *storage.MockStore) state.SaveData {
	t.Helper()
	var sd state.SaveData
	if err := json.Unmarshal(store.Data, &sd); err != nil {
		t.Fatalf("Save data not valid JSON: %v", err)
	}
	return sd
}

func TestNew_StartsAtFirstScene(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)

	if s.CurrentScene() == nil || s.CurrentScene().ID != "s1" {
		t.Fatalf("Expected first scene s1, got %+v", s.CurrentScene())
	}
	if s.Fade() != FadingIn || s.Alpha() != 1 {
		t.Error("Expected session to start fading in from full dark")
	}

	// Every scene entry is a save point, effects or not
	if f.store.SaveCount != 1 {
		t.Errorf("Expected 1 checkpoint write, got %d", f.store.SaveCount)
	}
	sd := savedState(t, f.store)
	if sd.CurrentScript != "intro" || sd.CurrentScene != "s1" {
		t.Errorf("Unexpected checkpoint %s/%s", sd.CurrentScript, sd.CurrentScene)
	}
}

func TestNew_ParseFailureLeavesNothingToRender(t *testing.T) {
	f := setup(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"scriptId"`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{
		ScriptPath: bad,
		State:      f.gameState,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if s == nil {
		t.Fatal("Expected inert session, got nil")
	}
	if s.CurrentScene() != nil || len(s.VisibleChoices()) != 0 {
		t.Error("Inert session must have no scene and no choices")
	}

	// Poking the inert session must not panic
	s.Advance(0.1)
	s.Choose(0)
	s.ChooseByLabel('a')
	s.RemoveInventoryItem(0, 1)

	// A queued transition on an inert session must be refused, not
	// deferred into a scene lookup against the missing script
	s.StartTransition("anywhere")
	if s.Fade() != Idle {
		t.Error("Inert session must not start transitions")
	}
	advance(s)
	if s.CurrentScene() != nil {
		t.Error("Inert session must never acquire a scene")
	}
}

func TestConditionalVisibilityAndLabels(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)

	// has_asgard_sword unset: only the unconditional choice shows
	choices := s.VisibleChoices()
	if len(choices) != 1 {
		t.Fatalf("Expected 1 visible choice, got %d", len(choices))
	}
	if choices[0].Label != 'a' || choices[0].Text != "Stand up" {
		t.Errorf("Unexpected first choice: %+v", choices[0])
	}

	// With the flag set, both choices show with sequential labels
	f2 := setup(t)
	f2.gameState.SetFlag("has_asgard_sword", true)
	s2 := f2.newSession(t)
	choices = s2.VisibleChoices()
	if len(choices) != 2 {
		t.Fatalf("Expected 2 visible choices, got %d", len(choices))
	}
	if choices[1].Label != 'b' || choices[1].NextScene != "s3" {
		t.Errorf("Unexpected second choice: %+v", choices[1])
	}
}

func TestChoiceCapAtFour(t *testing.T) {
	f := setup(t)
	dir := t.TempDir()
	many := `{
		"scriptId": "many", "title": "Many",
		"scenes": [{
			"id": "m1", "background": "b", "text": "Pick.", "speaker": "N",
			"choices": [
				{"text": "one", "nextScene": "x", "condition": {"flag": "hidden"}},
				{"text": "two", "nextScene": "x"},
				{"text": "three", "nextScene": "x"},
				{"text": "four", "nextScene": "x"},
				{"text": "five", "nextScene": "x"},
				{"text": "six", "nextScene": "x"}
			]
		}]
	}`
	path := filepath.Join(dir, "many.json")
	if err := os.WriteFile(path, []byte(many), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{
		ScriptPath: path,
		State:      f.gameState,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	choices := s.VisibleChoices()
	if len(choices) != 4 {
		t.Fatalf("Expected cap of 4 visible choices, got %d", len(choices))
	}
	// First raw choice is gated out; labels start at the first visible one
	want := []struct {
		label rune
		text  string
	}{{'a', "two"}, {'b', "three"}, {'c', "four"}, {'d', "five"}}
	for i, w := range want {
		if choices[i].Label != w.label || choices[i].Text != w.text {
			t.Errorf("Choice %d: expected %c) %s, got %c) %s",
				i, w.label, w.text, choices[i].Label, choices[i].Text)
		}
	}
}

func TestSceneTransitionAppliesEffectsThenSaves(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)
	advance(s) // finish the intro fade-in

	s.Choose(0) // -> s2, which carries effects
	if s.Fade() != FadingOut {
		t.Fatal("Expected fade-out after choosing")
	}
	// Scene must not swap until full dark
	if s.CurrentScene().ID != "s1" {
		t.Error("Scene swapped before full dark")
	}

	advance(s)
	if s.CurrentScene().ID != "s2" {
		t.Fatalf("Expected scene s2, got %s", s.CurrentScene().ID)
	}

	// The persisted checkpoint reflects the entry effects of s2
	sd := savedState(t, f.store)
	if sd.CurrentScene != "s2" {
		t.Errorf("Expected checkpoint at s2, got %s", sd.CurrentScene)
	}
	if !sd.Flags["met_npc"] || sd.Stats["courage"] != 1 {
		t.Errorf("Checkpoint missing entry effects: %v %v", sd.Flags, sd.Stats)
	}
	if len(sd.Inventory) != 1 || sd.Inventory[0].ID != "torch" || sd.Inventory[0].Quantity != 2 {
		t.Errorf("Checkpoint missing item effects: %v", sd.Inventory)
	}
}

func TestTransitionsSerialized(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)
	advance(s)

	s.Choose(0)
	state1 := s.Fade()
	// Rapid second input while fading: ignored
	s.Choose(0)
	s.ChooseByLabel('a')
	s.StartTransition("s3")

	if s.Fade() != state1 {
		t.Error("Input during a transition must be ignored")
	}
	advance(s)
	if s.CurrentScene().ID != "s2" {
		t.Errorf("Expected s2, got %s", s.CurrentScene().ID)
	}
}

func TestUnknownSceneAbortsTransition(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)
	advance(s)
	saves := f.store.SaveCount

	s.StartTransition("nonexistent")
	advance(s)

	if s.CurrentScene().ID != "s1" {
		t.Errorf("Expected to stay on s1, got %s", s.CurrentScene().ID)
	}
	if f.store.SaveCount != saves {
		t.Error("Aborted transition must not write a checkpoint")
	}
}

func TestEndSentinelFiresCompletion(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)
	advance(s)

	completed := false
	s.OnComplete(func() { completed = true })

	s.Choose(0) // -> s2
	advance(s)
	s.Choose(0) // -> END
	advance(s)

	if !completed || !s.Completed() {
		t.Error("Expected completion callback for END target")
	}
	// Terminal: no further transitions
	s.StartTransition("s1")
	advance(s)
	if s.CurrentScene().ID != "s2" {
		t.Error("Completed session must not load new scenes")
	}
}

func TestScriptChaining(t *testing.T) {
	f := setup(t)
	dir := filepath.Dir(f.gatePath)
	chain := `{
		"scriptId": "chained", "title": "Chained",
		"scenes": [{
			"id": "c1", "background": "b", "text": "Choose your road.", "speaker": "N",
			"choices": [{"text": "To the gate", "nextScene": "ignored", "nextScript": "` + f.gatePath + `"}]
		}]
	}`
	path := filepath.Join(dir, "chained.json")
	if err := os.WriteFile(path, []byte(chain), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{
		ScriptPath: path,
		State:      f.gameState,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	advance(s)

	s.Choose(0)
	advance(s)

	if s.Script().ScriptID != "asgard_gate" {
		t.Fatalf("Expected chained script, got %s", s.Script().ScriptID)
	}
	if s.CurrentScene().ID != "g1" {
		t.Errorf("Expected first scene of chained script, got %s", s.CurrentScene().ID)
	}
	sd := savedState(t, f.store)
	if sd.CurrentScript != "asgard_gate" || sd.CurrentScene != "g1" {
		t.Errorf("Checkpoint not moved to chained script: %s/%s", sd.CurrentScript, sd.CurrentScene)
	}
}

func TestChainingToBrokenScriptKeepsCurrent(t *testing.T) {
	f := setup(t)
	dir := filepath.Dir(f.gatePath)
	badPath := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(badPath, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	chain := `{
		"scriptId": "chained", "title": "Chained",
		"scenes": [{
			"id": "c1", "background": "b", "text": "t", "speaker": "N",
			"choices": [{"text": "go", "nextScene": "ignored", "nextScript": "` + badPath + `"}]
		}]
	}`
	path := filepath.Join(dir, "chained.json")
	if err := os.WriteFile(path, []byte(chain), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := New(Config{
		ScriptPath: path,
		State:      f.gameState,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	advance(s)

	s.Choose(0)
	advance(s)

	if s.Script().ScriptID != "chained" || s.CurrentScene().ID != "c1" {
		t.Error("Failed chain must leave the running script untouched")
	}
	if s.Fade() != Idle {
		t.Error("Failed chain must not start a transition")
	}
}

func TestResumeReconciliation(t *testing.T) {
	f := setup(t)

	// Simulate a prior session saved mid-script
	if err := f.gameState.SaveGame(context.Background(), "intro", "s2", f.ledger); err != nil {
		t.Fatal(err)
	}

	// Same script: resume at the saved scene
	resumed := state.New(f.store, testLogger())
	s, err := New(Config{
		ScriptPath: f.scriptPath,
		State:      resumed,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentScene().ID != "s2" {
		t.Errorf("Expected resume at s2, got %s", s.CurrentScene().ID)
	}

	// Different script: the saved scene id is ignored
	fresh := state.New(f.store, testLogger())
	s2, err := New(Config{
		ScriptPath: f.gatePath,
		State:      fresh,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s2.CurrentScene().ID != "g1" {
		t.Errorf("Expected fresh start at g1, got %s", s2.CurrentScene().ID)
	}
}

func TestResumeIgnoresDanglingSceneID(t *testing.T) {
	f := setup(t)
	if err := f.gameState.SaveGame(context.Background(), "intro", "deleted_scene", f.ledger); err != nil {
		t.Fatal(err)
	}

	resumed := state.New(f.store, testLogger())
	s, err := New(Config{
		ScriptPath: f.scriptPath,
		State:      resumed,
		Inventory:  f.ledger,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentScene().ID != "s1" {
		t.Errorf("Expected fallback to first scene, got %s", s.CurrentScene().ID)
	}
}

func TestChooseByLabel(t *testing.T) {
	f := setup(t)
	f.gameState.SetFlag("has_asgard_sword", true)
	s := f.newSession(t)
	advance(s)

	s.ChooseByLabel('b')
	advance(s)

	if s.CurrentScene().ID != "s3" {
		t.Errorf("Expected label b to select the second visible choice, got %s", s.CurrentScene().ID)
	}
}

func TestRemoveInventoryItemResaves(t *testing.T) {
	f := setup(t)
	s := f.newSession(t)
	advance(s)

	f.ledger.AddItem("torch", 3)
	saves := f.store.SaveCount

	s.RemoveInventoryItem(0, 1)

	if f.store.SaveCount != saves+1 {
		t.Error("Expected confirmed removal to write a checkpoint")
	}
	sd := savedState(t, f.store)
	if len(sd.Inventory) != 1 || sd.Inventory[0].Quantity != 2 {
		t.Errorf("Checkpoint does not reflect the removal: %v", sd.Inventory)
	}
}
