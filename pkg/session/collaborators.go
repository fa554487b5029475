package session

// The session drives rendering and audio through narrow collaborator
// interfaces; it has no dependency on how the UI layer implements them.

// TextWrapper wraps a text block to a display width for the renderer.
type TextWrapper interface {
	Wrap(text string, width int) string
}

// SoundPlayer plays a named sound effect.
type SoundPlayer interface {
	Play(name string)
}

// BackgroundLoader loads and caches a background image by id.
type BackgroundLoader interface {
	Load(id string) error
}

// NopWrapper returns text unchanged.
type NopWrapper struct{}

func (NopWrapper) Wrap(text string, _ int) string { return text }

// NopSound discards sound requests.
type NopSound struct{}

func (NopSound) Play(string) {}
