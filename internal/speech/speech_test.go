package speech

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func withLookPath(t *testing.T, installed ...string) {
	t.Helper()
	prev := lookPath
	lookPath = func(name string) (string, error) {
		for _, n := range installed {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = prev })
}

func TestNewAutoDetect(t *testing.T) {
	withLookPath(t, "espeak")
	sp, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cmd, ok := sp.(*Command)
	if !ok || cmd.Name() != "espeak" {
		t.Fatalf("expected espeak speaker, got %#v", sp)
	}
	if got := cmd.args("hello", "en-US"); !reflect.DeepEqual(got, []string{"-v", "en-us", "-s", "160", "hello"}) {
		t.Fatalf("unexpected args: %v", got)
	}
}

func TestNewNothingInstalled(t *testing.T) {
	withLookPath(t)
	sp, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := sp.(Nop); !ok {
		t.Fatalf("expected Nop speaker, got %#v", sp)
	}
	if sp, _ := New("none"); sp != (Nop{}) {
		t.Fatalf("expected none to disable playback")
	}
}

func TestNewCustomCommand(t *testing.T) {
	withLookPath(t, "piper-say")
	sp, err := New("piper-say --voice amy")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cmd := sp.(*Command)
	if got := cmd.args("hi there", "en-US"); !reflect.DeepEqual(got, []string{"--voice", "amy", "hi there"}) {
		t.Fatalf("unexpected args: %v", got)
	}
	if _, err := New("missing-tts"); err == nil {
		t.Fatalf("expected error for missing command")
	}
}

func TestNopSpeak(t *testing.T) {
	if err := (Nop{}).Speak(context.Background(), "hello", ""); err != nil {
		t.Fatalf("nop speak: %v", err)
	}
}
