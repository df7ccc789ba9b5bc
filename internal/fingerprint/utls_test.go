package fingerprint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransport_GoProfile(t *testing.T) {
	rt, err := Transport(ProfileGo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := &http.Client{Transport: rt}
	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTransport_KnownProfiles(t *testing.T) {
	for _, p := range []Profile{ProfileChrome, ProfileFirefox, ProfileSafari, ProfileRandom} {
		if _, err := Transport(p); err != nil {
			t.Errorf("profile %q: unexpected error: %v", p, err)
		}
	}
}

func TestTransport_UnknownProfile(t *testing.T) {
	if _, err := Transport(Profile("netscape")); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}
