package transcription

import "testing"

// TestResolvedDefaults checks the device/compute default rules.
func TestResolvedDefaults(t *testing.T) {
	r := Options{}.Resolved()
	if r.Model != "small" || r.Device != "cpu" || r.Compute != "int8" {
		t.Fatalf("resolved = %s/%s/%s, want small/cpu/int8", r.Model, r.Device, r.Compute)
	}

	r = Options{Device: "CUDA"}.Resolved()
	if r.Device != "cuda" {
		t.Fatalf("device = %s, want lower-cased cuda", r.Device)
	}
	if r.Compute != "float16" {
		t.Fatalf("compute = %s, want float16 on cuda", r.Compute)
	}

	r = Options{Device: "cuda", Compute: "int8"}.Resolved()
	if r.Compute != "int8" {
		t.Fatalf("compute = %s, explicit value must win", r.Compute)
	}
}
