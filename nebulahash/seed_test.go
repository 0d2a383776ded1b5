package nebulahash

import "testing"

func TestSeedFarmIsDeterministic(t *testing.T) {
	a := SeedFarm("red", 42)
	b := SeedFarm("red", 42)
	if a != b {
		t.Fatalf("SeedFarm not deterministic: %d != %d", a, b)
	}
}

func TestSeedFarmVariesByChannelAndIndex(t *testing.T) {
	base := SeedFarm("red", 0)
	if SeedFarm("blue", 0) == base {
		t.Fatalf("SeedFarm collided across channel names")
	}
	if SeedFarm("red", 1) == base {
		t.Fatalf("SeedFarm collided across orbit indices")
	}
}
