package index

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercase and punctuation", "Foreign KEY, constraint!", []string{"foreign", "key", "constraint"}},
		{"short tokens dropped", "a b c of", []string{"of"}},
		{"stopwords kept", "it is the os", []string{"it", "is", "the", "os"}},
		{"digits kept", "utf8 http2", []string{"utf8", "http2"}},
		{"empty", "", nil},
		{"only punctuation", "--- *** !!!", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	got := TokenSet("key KEY key value")
	want := []string{"key", "value"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenSet = %v, want %v", got, want)
	}
}
