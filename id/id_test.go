package id_test

import (
	"strings"
	"testing"

	"github.com/droverhq/drover/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"InstanceID", id.NewInstanceID, "wfrun_"},
		{"StateInstanceID", id.NewStateInstanceID, "state_"},
		{"ContainerID", id.NewContainerID, "ctr_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixInstance)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixInstance {
		t.Errorf("expected prefix %q, got %q", id.PrefixInstance, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"InstanceID", id.NewInstanceID, id.ParseInstanceID},
		{"StateInstanceID", id.NewStateInstanceID, id.ParseStateInstanceID},
		{"ContainerID", id.NewContainerID, id.ParseContainerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	ctr := id.NewContainerID()
	if _, err := id.ParseInstanceID(ctr.String()); err == nil {
		t.Error("expected instance parse to reject a container ID")
	}

	inst := id.NewInstanceID()
	if _, err := id.ParseContainerID(inst.String()); err == nil {
		t.Error("expected container parse to reject an instance ID")
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "not-a-typeid", "wfrun_!!!"} {
		if _, err := id.Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error", input)
		}
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID
	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID String() = %q, want empty", nilID.String())
	}

	data, err := nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("nil ID MarshalText = %q, want empty", data)
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewInstanceID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestScanValue(t *testing.T) {
	original := id.NewStateInstanceID()
	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("scan round-trip mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("Scan(nil) should produce the Nil ID")
	}
}
