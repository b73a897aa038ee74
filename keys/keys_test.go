package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalKeyStringsMap_EveryNameHasBinding(t *testing.T) {
	for str, name := range GlobalKeyStringsMap {
		binding, ok := GlobalkeyBindings[name]
		if assert.True(t, ok, "no binding for %q", str) {
			assert.Contains(t, binding.Keys(), str, "binding for %q does not list it", str)
		}
	}
}

func TestGlobalKeyStringsMap_Aliases(t *testing.T) {
	assert.Equal(t, KeyToggle, GlobalKeyStringsMap["enter"])
	assert.Equal(t, KeyToggle, GlobalKeyStringsMap["x"])
	assert.Equal(t, KeyDelete, GlobalKeyStringsMap["delete"])
	assert.Equal(t, KeyQuit, GlobalKeyStringsMap["ctrl+c"])
}

func TestGlobalKeyBindings_HelpLabels(t *testing.T) {
	if got := GlobalkeyBindings[KeyToggle].Help().Desc; got != "done" {
		t.Fatalf("KeyToggle help desc = %q, want %q", got, "done")
	}
	assert.Equal(t, "space", GlobalkeyBindings[KeySelect].Help().Key)
	assert.Equal(t, "esc", GlobalkeyBindings[KeyCancel].Help().Key)
}
