package worldstub

import "testing"

func TestWorldBaseStateFlat(t *testing.T) {
	w := NewWorld(5)

	// Shallow flat terrain: bedrock at y=0, dirt at y=1..3, grass at y=4.
	tests := []struct {
		y    int
		want string
	}{
		{0, Bedrock},
		{1, Dirt},
		{3, Dirt},
		{4, Grass},
		{5, Air},
		{255, Air},
		{-1, Air},
	}
	for _, tt := range tests {
		if got := w.GetBlock(7, tt.y, -3); got != tt.want {
			t.Errorf("GetBlock(7,%d,-3) = %q, want %q", tt.y, got, tt.want)
		}
	}

	deep := NewWorld(64)
	if got := deep.GetBlock(0, 30, 0); got != Stone {
		t.Errorf("GetBlock(0,30,0) = %q, want stone", got)
	}
}

func TestWorldSetBlock(t *testing.T) {
	w := NewWorld(5)

	if !w.SetBlock(3, 10, 5, "minecraft:cobblestone") {
		t.Fatal("SetBlock should report a change")
	}
	if got := w.GetBlock(3, 10, 5); got != "minecraft:cobblestone" {
		t.Errorf("GetBlock(3,10,5) = %q", got)
	}

	// Unnamespaced ids get the minecraft namespace.
	w.SetBlock(3, 11, 5, "glass")
	if got := w.GetBlock(3, 11, 5); got != "minecraft:glass" {
		t.Errorf("GetBlock(3,11,5) = %q", got)
	}

	if w.SetBlock(3, 11, 5, "minecraft:glass") {
		t.Error("setting the same block should not report a change")
	}
	if w.SetBlock(0, 256, 0, "minecraft:stone") {
		t.Error("SetBlock above build height should be rejected")
	}
}

func TestWorldSetBlockRemovesRedundantOverride(t *testing.T) {
	w := NewWorld(5)

	w.SetBlock(0, 4, 0, Air)
	w.SetBlock(0, 4, 0, Grass) // restores base state

	count := 0
	w.ForEachOverride(func(BlockPos, string) { count++ })
	if count != 0 {
		t.Fatalf("expected no overrides after restoring base state, got %d", count)
	}
	if got := w.GetBlock(0, 4, 0); got != Grass {
		t.Fatalf("GetBlock(0,4,0) = %q, want grass", got)
	}
}

func TestParseState(t *testing.T) {
	s := parseState("minecraft:oak_log[axis=x,waterlogged=false]")
	if s.Name != "minecraft:oak_log" || s.Properties["axis"] != "x" || s.Properties["waterlogged"] != "false" {
		t.Fatalf("parseState = %+v", s)
	}
	if s := parseState("minecraft:stone"); s.Name != "minecraft:stone" || s.Properties != nil {
		t.Fatalf("parseState(stone) = %+v", s)
	}
}
