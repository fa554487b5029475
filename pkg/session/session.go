// Package session is the playing-session state machine: it owns the loaded
// script, tracks the current scene, resolves player choices (conditional
// visibility, cross-script chaining) and drives the
// apply-effects-then-persist-then-advance sequence behind a fade
// transition.
package session

import (
	"context"
	"log/slog"

	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/script"
	"github.com/mythicvoid/novel-engine/pkg/state"
)

// FadeState is the transition phase of the session. New transitions can
// only start from Idle; input is suppressed in every other state.
type FadeState int

const (
	Idle FadeState = iota
	FadingOut
	FadingIn
)

// DefaultFadeDuration is the fade in/out time in seconds.
const DefaultFadeDuration = 0.25

// MaxVisibleChoices caps the choice list; labels run a through d.
const MaxVisibleChoices = 4

const choiceLabels = "abcd"

// ChoiceView is one visible, labeled choice. Labels are assigned over the
// visible subset, not over the scene's raw choice list.
type ChoiceView struct {
	Label      rune
	Text       string
	NextScene  string
	NextScript string
}

// Config carries the session's dependencies. State and Inventory are
// required; collaborator interfaces default to no-ops.
type Config struct {
	ScriptPath   string
	State        *state.GameState
	Inventory    *inventory.Ledger
	Wrapper      TextWrapper
	WrapWidth    int
	Sound        SoundPlayer
	Backgrounds  BackgroundLoader
	FadeDuration float64
	Logger       *slog.Logger
}

// Session is the scene transition controller.
type Session struct {
	script     *script.GameScript
	scriptPath string
	current    *script.Scene
	visible    []ChoiceView
	wrapped    string

	gameState *state.GameState
	ledger    *inventory.Ledger

	fade         FadeState
	alpha        float64
	fadeDuration float64
	pendingScene string
	completed    bool
	onComplete   func()

	wrapper     TextWrapper
	wrapWidth   int
	sound       SoundPlayer
	backgrounds BackgroundLoader

	ctx    context.Context
	logger *slog.Logger
}

// New builds a session for the script at cfg.ScriptPath. On parse failure
// the returned session is inert (no current scene, no choices, nothing to
// render) and the parse error is returned for logging; the caller must
// not crash.
//
// On success the session reconciles against the save file: if the saved
// script id matches the requested script (by file basename) and the saved
// scene still exists, play resumes there; otherwise it starts at the
// script's first scene. Either way the session begins fading in from full
// dark.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		gameState:    cfg.State,
		ledger:       cfg.Inventory,
		scriptPath:   cfg.ScriptPath,
		fadeDuration: cfg.FadeDuration,
		wrapper:      cfg.Wrapper,
		wrapWidth:    cfg.WrapWidth,
		sound:        cfg.Sound,
		backgrounds:  cfg.Backgrounds,
		ctx:          context.Background(),
		logger:       logger,
	}
	if s.fadeDuration <= 0 {
		s.fadeDuration = DefaultFadeDuration
	}
	if s.wrapper == nil {
		s.wrapper = NopWrapper{}
	}
	if s.sound == nil {
		s.sound = NopSound{}
	}

	gs, err := script.Load(cfg.ScriptPath)
	if err != nil {
		logger.Error("Failed to load script", "path", cfg.ScriptPath, "error", err)
		return s, err
	}
	s.script = gs
	logger.Info("Loaded script", "title", gs.Title, "chapter", gs.Metadata.Chapter)

	outcome := s.gameState.LoadGame(s.ctx, s.ledger)
	startID := ""
	if first := gs.FirstScene(); first != nil {
		startID = first.ID
	}

	requestedID := script.ScriptIDFromPath(cfg.ScriptPath)
	if outcome.Kind == state.LoadResumed &&
		s.gameState.CurrentScript() == requestedID &&
		gs.FindScene(s.gameState.CurrentScene()) != nil {
		startID = s.gameState.CurrentScene()
		logger.Info("Resuming saved game", "script", requestedID, "scene", startID)
	}

	if startID != "" {
		s.loadScene(startID)
	}

	s.fade = FadingIn
	s.alpha = 1
	return s, nil
}

// OnComplete registers the callback fired when the script signals
// completion (a choice targeting the END sentinel).
func (s *Session) OnComplete(fn func()) {
	s.onComplete = fn
}

// loadScene performs the atomic scene entry protocol: resolve the scene,
// apply its effects, persist the checkpoint, rebuild the visible choice
// list, and hand display data to the collaborators. A scene id that does
// not resolve aborts the whole load and the previous scene stays current.
func (s *Session) loadScene(sceneID string) bool {
	sc := s.script.FindScene(sceneID)
	if sc == nil {
		s.logger.Warn("Scene not found", "scene", sceneID, "script", s.script.ScriptID)
		return false
	}

	// Effects must be fully applied in memory before the checkpoint is
	// written; the save always reflects the state as of this scene entry.
	if sc.Effects != nil {
		s.gameState.ApplyEffects(sc.Effects, s.ledger)
	}
	if err := s.gameState.SaveGame(s.ctx, s.script.ScriptID, sc.ID, s.ledger); err != nil {
		s.logger.Warn("Checkpoint not persisted, play continues", "scene", sc.ID)
	}

	s.current = sc
	s.rebuildChoices()
	s.wrapped = s.wrapper.Wrap(sc.Text, s.wrapWidth)
	if s.backgrounds != nil && sc.Background != "" {
		if err := s.backgrounds.Load(sc.Background); err != nil {
			s.logger.Warn("Failed to load background", "background", sc.Background, "error", err)
		}
	}
	return true
}

// rebuildChoices filters the scene's choices through the condition check,
// in order, and labels the visible subset a through d, capped at four.
func (s *Session) rebuildChoices() {
	s.visible = s.visible[:0]
	for i := range s.current.Choices {
		if len(s.visible) >= MaxVisibleChoices {
			break
		}
		c := &s.current.Choices[i]
		if !s.gameState.CheckCondition(c.Condition) {
			continue
		}
		s.visible = append(s.visible, ChoiceView{
			Label:      rune(choiceLabels[len(s.visible)]),
			Text:       c.Text,
			NextScene:  c.NextScene,
			NextScript: c.NextScript,
		})
	}
}

// StartTransition queues a fade to the target scene id. Ignored unless
// Idle, which serializes transitions against rapid input.
func (s *Session) StartTransition(sceneID string) {
	if s.script == nil || s.fade != Idle || s.completed {
		return
	}
	s.pendingScene = sceneID
	s.fade = FadingOut
	s.alpha = 0
}

// Advance drives the fade state machine by dt seconds. The scene swap
// happens at full dark; an END target fires the completion callback
// instead of loading a scene.
func (s *Session) Advance(dt float64) {
	if s.completed {
		return
	}
	switch s.fade {
	case FadingOut:
		s.alpha += dt / s.fadeDuration
		if s.alpha < 1 {
			return
		}
		s.alpha = 1

		target := s.pendingScene
		s.pendingScene = ""

		if target == script.EndSceneID {
			// Terminal: the overlay stays at full dark and the owner
			// swaps screens from the callback.
			s.completed = true
			s.fade = Idle
			if s.onComplete != nil {
				s.onComplete()
			}
			return
		}

		s.loadScene(target)
		s.fade = FadingIn

	case FadingIn:
		s.alpha -= dt / s.fadeDuration
		if s.alpha <= 0 {
			s.alpha = 0
			s.fade = Idle
		}
	}
}

// Choose resolves the visible choice at index. A choice with a script
// chain target replaces the script model and transitions to its first
// scene; otherwise the target is a scene within the current script. Both
// go through the fade, never an instant cut. Ignored unless Idle.
func (s *Session) Choose(index int) {
	if s.fade != Idle || s.completed {
		return
	}
	if index < 0 || index >= len(s.visible) {
		return
	}
	cv := s.visible[index]
	s.sound.Play("click")

	if cv.NextScript != "" {
		next, err := script.Load(cv.NextScript)
		if err != nil {
			s.logger.Error("Failed to chain script, staying on current scene",
				"path", cv.NextScript, "error", err)
			return
		}
		first := next.FirstScene()
		if first == nil {
			return
		}
		s.script = next
		s.scriptPath = cv.NextScript
		s.logger.Info("Chained into script", "title", next.Title)
		s.StartTransition(first.ID)
		return
	}

	s.StartTransition(cv.NextScene)
}

// ChooseByLabel resolves a keyboard shortcut (a-d) against the visible
// choice list.
func (s *Session) ChooseByLabel(label rune) {
	for i, cv := range s.visible {
		if cv.Label == label {
			s.Choose(i)
			return
		}
	}
}

// RemoveInventoryItem is the UI-confirmed destructive removal path: it
// mutates the ledger (with flag side effects) and re-runs the same
// save-after-mutate sequence as effect application.
func (s *Session) RemoveInventoryItem(index, quantity int) {
	s.ledger.RemoveItemAt(index, quantity, s.gameState)
	if s.current == nil {
		return
	}
	if err := s.gameState.SaveGame(s.ctx, s.script.ScriptID, s.current.ID, s.ledger); err != nil {
		s.logger.Warn("Checkpoint not persisted after item removal")
	}
}

// CurrentScene returns the scene being shown, or nil when there is
// nothing to render.
func (s *Session) CurrentScene() *script.Scene { return s.current }

// Script returns the loaded script model, or nil after a failed load.
func (s *Session) Script() *script.GameScript { return s.script }

// VisibleChoices returns the labeled, condition-filtered choice list.
func (s *Session) VisibleChoices() []ChoiceView { return s.visible }

// WrappedText returns the current scene's display text, wrapped by the
// TextWrapper collaborator.
func (s *Session) WrappedText() string { return s.wrapped }

// Fade returns the transition phase.
func (s *Session) Fade() FadeState { return s.fade }

// Alpha returns the overlay darkness in [0, 1].
func (s *Session) Alpha() float64 { return s.alpha }

// Completed reports whether the script has signalled completion.
func (s *Session) Completed() bool { return s.completed }
