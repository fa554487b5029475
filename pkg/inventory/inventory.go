// Package inventory owns the item catalog and the player's stackable item
// instances: add/remove/query plus serialization into the save format.
package inventory

import (
	"encoding/json"
	"log/slog"
	"os"
)

// ItemDefinition is a catalog entry, immutable after load.
type ItemDefinition struct {
	ID           string `json:"-"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Texture      string `json:"texture,omitempty"`
	Stackable    *bool  `json:"stackable,omitempty"`
	MaxStackSize int    `json:"maxStackSize,omitempty"`
}

// IsStackable reports the stackable flag, defaulting to true.
func (d *ItemDefinition) IsStackable() bool {
	return d.Stackable == nil || *d.Stackable
}

// Item is one stack in the inventory: an item id and a quantity >= 1.
type Item struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// SaveEntry is the persisted form of one stack.
type SaveEntry struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// FlagSetter is the slice of the game state store the ledger needs for
// item-removal flag side effects. Defined here to avoid an import cycle
// with the state package.
type FlagSetter interface {
	SetFlag(name string, value bool)
}

// dependentFlags couples specific item ids to flags that must be cleared
// when the item count reaches zero. A deliberate simplification, not a
// general rule system; some script content depends on it.
var dependentFlags = map[string]string{
	"asgard_sword": "has_asgard_sword",
	"bronze_key":   "has_bronze_key",
}

// Ledger manages the item catalog and the player's stacks.
type Ledger struct {
	defs   map[string]*ItemDefinition
	items  []Item
	logger *slog.Logger
}

// NewLedger constructs a ledger with the catalog at catalogPath. A catalog
// that fails to load is a configuration error, not a fatal one: the ledger
// still works, but AddItem for unknown ids will fail.
func NewLedger(catalogPath string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		defs:   make(map[string]*ItemDefinition),
		logger: logger,
	}
	if err := l.loadCatalog(catalogPath); err != nil {
		logger.Error("Failed to load item catalog", "path", catalogPath, "error", err)
	}
	return l
}

func (l *Ledger) loadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]*ItemDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for id, def := range raw {
		def.ID = id
		if def.Name == "" {
			def.Name = id
		}
		if def.MaxStackSize <= 0 {
			def.MaxStackSize = 99
		}
		l.defs[id] = def
	}

	l.logger.Debug("Loaded item catalog", "path", path, "items", len(l.defs))
	return nil
}

// Definition returns the catalog entry for an item id, or nil.
func (l *Ledger) Definition(itemID string) *ItemDefinition {
	return l.defs[itemID]
}

// AddItem adds quantity of an item, topping off existing under-capacity
// stacks first and then creating new stacks capped at the definition's max
// size. Non-stackable items get one stack per unit. Returns false for an
// item id with no catalog definition.
func (l *Ledger) AddItem(itemID string, quantity int) bool {
	def := l.defs[itemID]
	if def == nil {
		l.logger.Warn("Item not found in catalog", "item", itemID)
		return false
	}

	remaining := quantity

	if def.IsStackable() {
		for i := range l.items {
			it := &l.items[i]
			if it.ID != itemID || it.Quantity >= def.MaxStackSize {
				continue
			}
			canAdd := min(remaining, def.MaxStackSize-it.Quantity)
			it.Quantity += canAdd
			remaining -= canAdd
			if remaining <= 0 {
				return true
			}
		}
	}

	for remaining > 0 {
		size := 1
		if def.IsStackable() {
			size = min(remaining, def.MaxStackSize)
		}
		l.items = append(l.items, Item{ID: itemID, Quantity: size})
		remaining -= size
	}

	return true
}

// RemoveItem removes up to quantity of an item, consuming stacks in list
// order. Requests beyond the held total are capped. Returns whether the
// full requested quantity was removed. When a removal brings the item
// count to zero, any dependent flag is cleared through flags; removing an
// item that was never held changes nothing.
func (l *Ledger) RemoveItem(itemID string, quantity int, flags FlagSetter) bool {
	remaining := quantity

	out := l.items[:0]
	for _, it := range l.items {
		if it.ID != itemID || remaining <= 0 {
			out = append(out, it)
			continue
		}
		if it.Quantity <= remaining {
			remaining -= it.Quantity
			continue // stack fully consumed
		}
		it.Quantity -= remaining
		remaining = 0
		out = append(out, it)
	}
	l.items = out

	if remaining < quantity {
		l.clearDependentFlag(itemID, flags)
	}
	return remaining == 0
}

// RemoveItemAt removes quantity from the stack at the given position in
// the backing list. Out-of-range indices are a no-op. Used by UI-driven
// single-slot deletion.
func (l *Ledger) RemoveItemAt(index, quantity int, flags FlagSetter) {
	if index < 0 || index >= len(l.items) {
		return
	}

	itemID := l.items[index].ID
	if l.items[index].Quantity <= quantity {
		l.items = append(l.items[:index], l.items[index+1:]...)
	} else {
		l.items[index].Quantity -= quantity
	}

	l.clearDependentFlag(itemID, flags)
}

func (l *Ledger) clearDependentFlag(itemID string, flags FlagSetter) {
	if flags == nil || l.HasItem(itemID) {
		return
	}
	if flag, ok := dependentFlags[itemID]; ok {
		flags.SetFlag(flag, false)
	}
}

// HasItem reports whether at least one of the item is held.
func (l *Ledger) HasItem(itemID string) bool {
	for _, it := range l.items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// ItemCount sums quantities across all stacks of an item.
func (l *Ledger) ItemCount(itemID string) int {
	count := 0
	for _, it := range l.items {
		if it.ID == itemID {
			count += it.Quantity
		}
	}
	return count
}

// Items returns the ordered stack list.
func (l *Ledger) Items() []Item {
	return l.items
}

// SaveEntries serializes the stack list for the save file.
func (l *Ledger) SaveEntries() []SaveEntry {
	entries := make([]SaveEntry, 0, len(l.items))
	for _, it := range l.items {
		entries = append(entries, SaveEntry{ID: it.ID, Quantity: it.Quantity})
	}
	return entries
}

// LoadEntries replaces the stack list from save data. Entries referencing
// an item id with no catalog definition are dropped, so a save written
// against an older catalog degrades instead of failing the whole load.
func (l *Ledger) LoadEntries(entries []SaveEntry) {
	l.items = l.items[:0]
	for _, e := range entries {
		if e.ID == "" || l.defs[e.ID] == nil {
			if e.ID != "" {
				l.logger.Warn("Dropping saved item with no catalog definition", "item", e.ID)
			}
			continue
		}
		if e.Quantity < 1 {
			e.Quantity = 1
		}
		l.items = append(l.items, Item{ID: e.ID, Quantity: e.Quantity})
	}
}
