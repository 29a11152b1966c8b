package utils

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\nc")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %v, want %v", got, want)
	}
	if n := len(SplitLines("")); n != 1 {
		t.Errorf("empty string should be one line, got %d", n)
	}
}

func TestCountLines(t *testing.T) {
	if CountLines("a\nb\nc") != 3 {
		t.Error("expected 3 lines")
	}
	if CountLines("") != 1 {
		t.Error("empty string counts as one line")
	}
}

func TestClampAndRoundPercent(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp out of range")
	}
	if RoundPercent(1, 3) != 33 {
		t.Errorf("RoundPercent(1,3) = %d", RoundPercent(1, 3))
	}
	if RoundPercent(10, 0) != 0 {
		t.Error("zero denominator should yield 0")
	}
	if RoundPercent(7, 7) != 100 {
		t.Error("complete should be 100")
	}
}
