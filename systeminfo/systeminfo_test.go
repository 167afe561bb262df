package systeminfo

import "testing"

func TestGather(t *testing.T) {
	info, err := Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if info == nil {
		t.Fatal("Gather returned nil info")
	}
	if info.Hostname == "" {
		t.Error("hostname not collected")
	}
	if info.Platform == "" {
		t.Error("platform not collected")
	}
}
