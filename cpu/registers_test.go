package cpu

import (
	"testing"

	"github.com/lakesis-vm/lakesis/word"
)

func TestState_RegisterOutOfRange(t *testing.T) {
	var s State

	if _, err := s.Register(4); err == nil {
		t.Fatal("expected error reading R4")
	}
	if err := s.SetRegister(4, word.Of(1)); err == nil {
		t.Fatal("expected error writing R4")
	}
}

func TestState_SetRegisterRoundTrip(t *testing.T) {
	var s State

	if err := s.SetRegister(2, word.Ref(0xFF)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Register(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0xFF || got.Tag != word.Reference {
		t.Logf("got %#v", got)
		t.Fail()
	}
}
