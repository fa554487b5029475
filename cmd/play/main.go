package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/mythicvoid/novel-engine/internal/config"
	"github.com/mythicvoid/novel-engine/internal/logger"
	"github.com/mythicvoid/novel-engine/internal/storage"
	"github.com/mythicvoid/novel-engine/internal/tui"
	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/session"
	"github.com/mythicvoid/novel-engine/pkg/state"
)

func main() {
	cfg := config.Load()

	scriptPath := flag.String("script", cfg.ScriptPath, "story script to play")
	newGame := flag.Bool("new", false, "clear the save and start from the beginning")
	flag.Parse()

	log := logger.Setup(cfg, os.Stderr)
	sessionID := uuid.New()
	log = logger.WithSession(log, sessionID.String())

	var store storage.SaveStore
	switch cfg.SaveBackend {
	case "redis":
		// The profile id is stable across sessions; the session id is not.
		profile, err := uuid.Parse(cfg.ProfileID)
		if err != nil {
			profile = uuid.Nil
		}
		rs, err := storage.NewRedisStore(cfg.RedisURL, profile, log)
		if err != nil {
			log.Error("Failed to configure redis save backend", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		store = rs
	default:
		store = storage.NewFileStore(cfg.SavePath, log)
	}

	ledger := inventory.NewLedger(cfg.CatalogPath, log)
	gameState := state.New(store, log)

	if *newGame {
		if err := gameState.ClearSave(context.Background()); err != nil {
			log.Warn("Failed to reset save data", "error", err)
		}
	}

	s, loadErr := session.New(session.Config{
		ScriptPath: *scriptPath,
		State:      gameState,
		Inventory:  ledger,
		Wrapper:    tui.Wrapper{},
		WrapWidth:  76,
		Logger:     log,
	})
	if loadErr != nil {
		log.Error("Script failed to load, nothing to play", "path", *scriptPath, "error", loadErr)
	}

	s.OnComplete(func() {
		// The script ran to its END: clear progress so the next launch
		// starts a fresh story, keeping the intro marker.
		if err := gameState.ClearSave(context.Background()); err != nil {
			log.Warn("Failed to clear save after completion", "error", err)
		}
	})

	p := tea.NewProgram(tui.NewModel(s, ledger, loadErr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
