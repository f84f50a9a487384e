package persona

import "testing"

func TestParseRoundTrip(t *testing.T) {
	for _, h := range All() {
		got, err := Parse(h.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", h.String(), err)
		}
		if got != h {
			t.Fatalf("Parse(%q) = %v, want %v", h.String(), got, h)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("oracle"); err == nil {
		t.Fatal("expected error for unknown helper")
	}
}

func TestEveryHelperHasIdentity(t *testing.T) {
	for _, h := range All() {
		if h.Identity() == "" {
			t.Fatalf("%s has no identity block", h)
		}
		if h.Stage() == "unknown" {
			t.Fatalf("%s has no stage", h)
		}
	}
}

func TestRelevantPeers_DesignCaresAboutUpstream(t *testing.T) {
	if !Iris.IsRelevantPeer(Muse) || !Iris.IsRelevantPeer(Atlas) {
		t.Fatal("iris should consider muse and atlas relevant")
	}
	if Iris.IsRelevantPeer(Summit) {
		t.Fatal("iris should not consider summit relevant")
	}
}

func TestRelevantPeers_NeverSelf(t *testing.T) {
	for _, h := range All() {
		if h.IsRelevantPeer(h) {
			t.Fatalf("%s lists itself as a relevant peer", h)
		}
	}
}

func TestGuidanceLimits_ForgeGetsMost(t *testing.T) {
	forge := Forge.Guidance()
	muse := Muse.Guidance()
	if forge.MaxTokens <= muse.MaxTokens {
		t.Fatalf("forge guidance budget (%d) should exceed muse's (%d)", forge.MaxTokens, muse.MaxTokens)
	}
}
