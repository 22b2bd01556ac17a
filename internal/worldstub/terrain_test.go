package worldstub

import "testing"

func TestSimplexDeterministicAndBounded(t *testing.T) {
	a, b := newSimplex(12345), newSimplex(12345)
	for i := 0; i < 10000; i++ {
		x, y := float64(i)*0.37-500, float64(i)*0.53-500
		v := a.at(x, y)
		if v != b.at(x, y) {
			t.Fatalf("noise not deterministic at (%f, %f)", x, y)
		}
		if v < -1 || v > 1 {
			t.Fatalf("noise(%f, %f) = %f, out of [-1,1]", x, y, v)
		}
	}
}

func TestHillsTerrain(t *testing.T) {
	h := NewHills(42, 64, 20)
	w := NewTerrainWorld(h)

	varied := false
	first := h.Ground(0, 0)
	for x := -64; x < 64; x += 7 {
		for z := -64; z < 64; z += 5 {
			g := h.Ground(x, z)
			if g < 64-20 || g > 64+20 {
				t.Fatalf("Ground(%d,%d) = %d outside 44..84", x, z, g)
			}
			if g != first {
				varied = true
			}
			if got := w.GetBlock(x, g-1, z); got != Grass {
				t.Fatalf("surface block at (%d,%d,%d) = %q", x, g-1, z, got)
			}
			if got := w.GetBlock(x, g, z); got != Air {
				t.Fatalf("block above surface = %q", got)
			}
			switch b := h.Biome(x, g, z); b {
			case biomePlains, biomeDesert, biomeMountains:
			default:
				t.Fatalf("Biome(%d,%d) = %d", x, z, b)
			}
		}
	}
	if !varied {
		t.Fatal("hills terrain is flat")
	}
	if NewHills(42, 64, 20).Ground(17, -3) != h.Ground(17, -3) {
		t.Fatal("terrain not deterministic")
	}
}

func TestFlatTerrain(t *testing.T) {
	f := Flat(10)
	if f.Ground(-100, 3) != 10 || f.Biome(0, 0, 0) != biomePlains {
		t.Fatalf("Flat(10) = %d, %d", f.Ground(-100, 3), f.Biome(0, 0, 0))
	}
}
