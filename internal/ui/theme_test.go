package ui

import (
	"testing"

	"github.com/five82/courier/internal/mailapi"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("missing").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(missing).Name = %q, want Nightfox", got)
	}
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
}

func TestThemes_ColorEveryCampaignStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range mailapi.CampaignStatuses {
			if th.StatusColors[s] == "" {
				t.Fatalf("theme %s has no color for %s", name, s)
			}
		}
	}
}

func TestStatusColor_UnknownUsesMuted(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()
	if got := styles.StatusColor(mailapi.StatusFailed); got != th.StatusColors[mailapi.StatusFailed] {
		t.Fatalf("StatusColor(failed) = %q, want %q", got, th.StatusColors[mailapi.StatusFailed])
	}
	if got := styles.StatusColor("bogus"); got != th.Muted {
		t.Fatalf("StatusColor(bogus) = %q, want %q", got, th.Muted)
	}
}
