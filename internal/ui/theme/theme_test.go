package theme

import "testing"

func TestApplySwapsPalette(t *testing.T) {
	t.Cleanup(func() { Apply(Dark) })

	Apply(Light)
	if Current().Name != "light" {
		t.Errorf("Current = %q, want light", Current().Name)
	}
	if Text != Light.Text {
		t.Error("expected Text to follow the light palette")
	}

	Apply(Dark)
	if Primary != Dark.Primary {
		t.Error("expected Primary to follow the dark palette")
	}
}

func TestByName(t *testing.T) {
	if ByName("light").Name != "light" {
		t.Error("expected light palette")
	}
	if ByName("solarized").Name != "dark" {
		t.Error("expected unknown names to fall back to dark")
	}
}
