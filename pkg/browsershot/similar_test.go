package browsershot

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func encodeNoise(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, noiseImage(w, h)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestIsSimilarToAny(t *testing.T) {
	a := encodeNoise(t, 120, 120)
	b := encodeNoise(t, 121, 90)

	similar, err := IsSimilarToAny(a, [][]byte{b, a}, 96)
	if err != nil {
		t.Fatalf("IsSimilarToAny: %v", err)
	}
	if !similar {
		t.Fatalf("identical image must be similar")
	}

	similar, err = IsSimilarToAny(a, nil, 96)
	if err != nil || similar {
		t.Fatalf("expected no match against empty set, got %v, %v", similar, err)
	}

	similar, err = IsSimilarToAny([]byte("tiny"), [][]byte{[]byte("tiny")}, 96)
	if err != nil || similar {
		t.Fatalf("images too small to hash must not match, got %v, %v", similar, err)
	}
}

func TestIsSimilarToAnyThreshold(t *testing.T) {
	for _, threshold := range []int{0, 101} {
		if _, err := IsSimilarToAny(nil, nil, threshold); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("threshold %d: expected ErrInvalidArgument, got %v", threshold, err)
		}
	}
}

func TestOrigin(t *testing.T) {
	tests := map[string]string{
		"https://example.com:443/a/b": "https://example.com",
		"http://example.com:80":       "http://example.com",
		"http://example.com:8080/x":   "http://example.com:8080",
		"https://example.com":         "https://example.com",
	}
	for in, want := range tests {
		got, err := Origin(in)
		if err != nil || got != want {
			t.Errorf("Origin(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
