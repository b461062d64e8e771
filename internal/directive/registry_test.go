package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twardoch/zmarkdown/internal/config"
	"github.com/twardoch/zmarkdown/internal/errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := &Registry{}
	require.NoError(t, reg.Register("secret", TitleOptional, []string{"spoiler"}, true))
	require.NoError(t, reg.Register("information", TitleOptional, []string{"information", "ico-after"}, false))
	require.NoError(t, reg.Register("neutre", TitleRequired, []string{"neutral"}, false))
	require.NoError(t, reg.Register("warning", TitleForbidden, nil, false))
	return reg
}

func TestParseTitlePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want TitlePolicy
	}{
		{"", TitleForbidden},
		{"forbidden", TitleForbidden},
		{"optional", TitleOptional},
		{"Required", TitleRequired},
	}
	for _, tt := range tests {
		got, err := ParseTitlePolicy(tt.in)
		if err != nil {
			t.Fatalf("ParseTitlePolicy(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseTitlePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	_, err := ParseTitlePolicy("sometimes")
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("ParseTitlePolicy(sometimes) error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestRegister_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		dirName string
		classes []string
	}{
		{"empty name", "", nil},
		{"space in name", "my block", nil},
		{"tab in name", "my\tblock", nil},
		{"pipe in name", "a|b", nil},
		{"bracket in name", "a]b", nil},
		{"empty class", "ok", []string{""}},
		{"class with space", "ok", []string{"two words"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &Registry{}
			err := reg.Register(tt.dirName, TitleOptional, tt.classes, false)
			if !errors.Is(err, errors.ErrConfiguration) {
				t.Errorf("Register(%q) error = %v, want CONFIGURATION_ERROR", tt.dirName, err)
			}
			if reg.Len() != 0 {
				t.Errorf("Len() = %d after rejected Register, want 0", reg.Len())
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := testRegistry(t)
	err := reg.Register("secret", TitleForbidden, nil, false)
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "error = %v", err)

	def, ok := reg.Lookup("secret")
	require.True(t, ok)
	assert.Equal(t, TitleOptional, def.Title, "duplicate must not replace the original")
}

func TestLookup(t *testing.T) {
	reg := testRegistry(t)

	def, ok := reg.Lookup("information")
	require.True(t, ok)
	assert.Equal(t, Definition{
		Name:    "information",
		Title:   TitleOptional,
		Classes: []string{"information", "ico-after"},
	}, def)

	def.Classes[0] = "mutated"
	again, _ := reg.Lookup("information")
	assert.Equal(t, "information", again.Classes[0])

	_, ok = reg.Lookup("unknown")
	assert.False(t, ok)
}

func TestNames_Sorted(t *testing.T) {
	assert.Equal(t, []string{"information", "neutre", "secret", "warning"}, testRegistry(t).Names())
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(map[string]config.Directive{
		"secret": {Title: "optional", Class: "spoiler  hidden", Details: true},
		"neutre": {Title: "required"},
		"plain":  {},
	})
	require.NoError(t, err)

	secret, ok := reg.Lookup("secret")
	require.True(t, ok)
	assert.Equal(t, []string{"spoiler", "hidden"}, secret.Classes)
	assert.True(t, secret.Collapsible)

	plain, _ := reg.Lookup("plain")
	assert.Equal(t, TitleForbidden, plain.Title)
	assert.Empty(t, plain.Classes)
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "empty map error = %v", err)

	_, err = NewRegistry(map[string]config.Directive{"ok": {}, "bad name": {}})
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "bad name error = %v", err)

	_, err = NewRegistry(map[string]config.Directive{"ok": {Title: "maybe"}})
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "bad policy error = %v", err)
}

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(config.DefaultDirectives())
	require.NoError(t, err)
	assert.Equal(t, len(config.DefaultDirectives()), reg.Len())

	n, ok := reg.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, TitleRequired, n.Title)
}
