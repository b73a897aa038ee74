package config

import (
	"fmt"
	"strconv"

	"github.com/kastheco/tareas/config/kvstore"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/view"
)

// Theme is the persisted colour scheme preference.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Next cycles auto → dark → light → auto.
func (t Theme) Next() Theme {
	switch t {
	case ThemeAuto:
		return ThemeDark
	case ThemeDark:
		return ThemeLight
	default:
		return ThemeAuto
	}
}

// ViewMode is the persisted task list density.
type ViewMode string

const (
	ViewTable   ViewMode = "table"
	ViewCompact ViewMode = "compact"
)

// Toggle flips between table and compact.
func (m ViewMode) Toggle() ViewMode {
	if m == ViewCompact {
		return ViewTable
	}
	return ViewCompact
}

// Prefs reads and writes UI preferences in the state store. Reads never fail:
// a missing or unreadable value yields the default.
type Prefs struct {
	store           kvstore.Store
	defaultPageSize int
}

// NewPrefs returns Prefs over store. defaultPageSize is used until a page
// size has been saved; invalid values fall back to view.DefaultPageSize.
func NewPrefs(store kvstore.Store, defaultPageSize int) *Prefs {
	return &Prefs{store: store, defaultPageSize: view.PageSizeOrDefault(defaultPageSize)}
}

func (p *Prefs) get(key string) (string, bool) {
	v, ok, err := p.store.Get(key)
	if err != nil {
		log.WarningLog.Printf("prefs: read %s: %v", key, err)
		return "", false
	}
	return v, ok
}

// PageSize returns the saved page size or the default.
func (p *Prefs) PageSize() int {
	raw, ok := p.get(kvstore.KeyPageSize)
	if !ok {
		return p.defaultPageSize
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !view.ValidPageSize(n) {
		return p.defaultPageSize
	}
	return n
}

// SavePageSize persists n. Sizes outside view.PageSizes are rejected.
func (p *Prefs) SavePageSize(n int) error {
	if !view.ValidPageSize(n) {
		return fmt.Errorf("invalid page size %d", n)
	}
	return p.store.Set(kvstore.KeyPageSize, strconv.Itoa(n))
}

func (p *Prefs) Theme() Theme {
	raw, _ := p.get(kvstore.KeyTheme)
	switch t := Theme(raw); t {
	case ThemeDark, ThemeLight:
		return t
	default:
		return ThemeAuto
	}
}

func (p *Prefs) SaveTheme(t Theme) error {
	return p.store.Set(kvstore.KeyTheme, string(t))
}

func (p *Prefs) ViewMode() ViewMode {
	raw, _ := p.get(kvstore.KeyViewMode)
	if ViewMode(raw) == ViewCompact {
		return ViewCompact
	}
	return ViewTable
}

func (p *Prefs) SaveViewMode(m ViewMode) error {
	return p.store.Set(kvstore.KeyViewMode, string(m))
}

// HelpSeen reports whether the first-run help screen was already dismissed.
func (p *Prefs) HelpSeen() bool {
	raw, _ := p.get(kvstore.KeyHelpSeen)
	return raw == "1"
}

func (p *Prefs) MarkHelpSeen() error {
	return p.store.Set(kvstore.KeyHelpSeen, "1")
}
