package tables

import "testing"

func TestWeightPerKB(t *testing.T) {
	if got := WeightPerKB(".ts"); got != 1.0 {
		t.Fatalf("expected 1.0 for .ts, got %v", got)
	}
	if got := WeightPerKB(".RS"); got != 1.2 {
		t.Fatalf("expected case-insensitive lookup, got %v", got)
	}
	if got := WeightPerKB(".unknown"); got != DefaultWeightPerKB {
		t.Fatalf("expected default weight, got %v", got)
	}
	if got := WeightPerKB(""); got != DefaultWeightPerKB {
		t.Fatalf("expected default weight for no extension, got %v", got)
	}
}

func TestResolveRegion(t *testing.T) {
	r := ResolveRegion("eu-north")
	if r.Key != "EU-NORTH" || r.Intensity != 25 {
		t.Fatalf("unexpected region: %+v", r)
	}
	fallback := ResolveRegion("MARS-1")
	if fallback.Key != DefaultRegion || fallback.Intensity != 475 {
		t.Fatalf("expected global average fallback, got %+v", fallback)
	}
	if ResolveRegion("") != fallback {
		t.Fatal("empty key should resolve to the default region")
	}
	if _, ok := LookupRegion("MARS-1"); ok {
		t.Fatal("unknown region should not be found")
	}
}

func TestRegionsSorted(t *testing.T) {
	keys := RegionKeys()
	if len(keys) != 7 {
		t.Fatalf("expected 7 regions, got %d", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}

func TestHardwareProfiles(t *testing.T) {
	p, ok := LookupHardwareProfile("Server")
	if !ok || p.CPUTDPWatts != 150 || p.MemPerGB != 0.5 {
		t.Fatalf("unexpected server profile: %+v %v", p, ok)
	}
	all := HardwareProfiles()
	if len(all) != 3 || all[0].Key != "laptop" || all[2].Key != "server" {
		t.Fatalf("unexpected ordering: %+v", all)
	}
}

func TestExclusionAndHeavyAssets(t *testing.T) {
	for _, name := range []string{"node_modules", ".git", "dist", "build", "target", "vendor", "coverage", ".cache"} {
		if !IsExcludedDir(name) {
			t.Fatalf("expected %s excluded", name)
		}
	}
	if IsExcludedDir("src") {
		t.Fatal("src should not be excluded")
	}
	if !IsHeavyAssetExt(".PNG") || !IsHeavyAssetExt(".tiff") {
		t.Fatal("expected media extensions to be heavy assets")
	}
	if IsHeavyAssetExt(".svg") {
		t.Fatal("svg is not in the heavy asset set")
	}
}

func TestExcludedDirsSorted(t *testing.T) {
	dirs := ExcludedDirs()
	if len(dirs) != 21 {
		t.Fatalf("expected 21 excluded directories, got %d", len(dirs))
	}
	for i := 1; i < len(dirs); i++ {
		if dirs[i-1] >= dirs[i] {
			t.Fatalf("excluded directories not sorted: %v", dirs)
		}
	}
	for _, d := range dirs {
		if !IsExcludedDir(d) {
			t.Fatalf("%s listed but not excluded", d)
		}
	}
}
