package bitarray

import (
	"errors"
	"math/rand"
	"testing"
)

func TestRoundTripAllWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for bits := 4; bits <= 32; bits++ {
		for _, n := range []int{0, 1, 7, 64, 256, 4096} {
			limit := uint64(1)<<uint(bits) - 1
			values := make([]uint32, n)
			for i := range values {
				values[i] = uint32(rng.Uint64() & limit)
			}

			a, err := New(bits, n, Encode(values, bits))
			if err != nil {
				t.Fatalf("New(%d, %d): %v", bits, n, err)
			}
			for i, want := range values {
				got, err := a.Get(i)
				if err != nil {
					t.Fatalf("bits=%d n=%d Get(%d): %v", bits, n, i, err)
				}
				if got != want {
					t.Fatalf("bits=%d n=%d Get(%d) = %d, want %d", bits, n, i, got, want)
				}
			}
		}
	}
}

func TestFiveBitWord(t *testing.T) {
	// 00001, 00011, 10101 packed low to high.
	word := uint64(0b10101_00011_00001)
	a, err := New(5, 3, []uint64{word})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, want := range []uint32{0b00001, 0b00011, 0b10101} {
		got, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %05b, want %05b", i, got, want)
		}
	}
}

func TestEntriesDoNotSpanWords(t *testing.T) {
	// 9 bits: 7 entries per word, top bit of each word is padding.
	words := []uint64{1 << 63, 0x1FF}
	a, err := New(9, 8, words)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 7; i++ {
		if got, _ := a.Get(i); got != 0 {
			t.Errorf("Get(%d) = %d, want 0 (padding must be ignored)", i, got)
		}
	}
	if got, _ := a.Get(7); got != 0x1FF {
		t.Errorf("Get(7) = %d, want 511", got)
	}
}

func TestNewRejectsShortPayload(t *testing.T) {
	tests := []struct {
		name   string
		bits   int
		length int
		words  int
	}{
		{"heightmap", 9, 256, 36},
		{"section_4bit", 4, 4096, 255},
		{"empty_words", 5, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.bits, tt.length, make([]uint64, tt.words))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("New() error = %v, want ErrMalformedPayload", err)
			}
		})
	}

	if _, err := New(9, 256, make([]uint64, 37)); err != nil {
		t.Fatalf("New(9, 256, 37 words): %v", err)
	}
}

func TestNewRejectsBadWidth(t *testing.T) {
	for _, bits := range []int{0, -1, 33} {
		if _, err := New(bits, 1, make([]uint64, 1)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("New(bits=%d) error = %v, want ErrMalformedPayload", bits, err)
		}
	}
}

func TestGetOutOfRange(t *testing.T) {
	a, err := New(4, 16, make([]uint64, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, i := range []int{-1, 16, 100} {
		if _, err := a.Get(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Get(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestWordsNeeded(t *testing.T) {
	tests := []struct {
		bits, length, want int
	}{
		{4, 4096, 256},
		{5, 4096, 342},
		{9, 256, 37},
		{32, 3, 2},
		{16, 0, 0},
	}
	for _, tt := range tests {
		if got := WordsNeeded(tt.bits, tt.length); got != tt.want {
			t.Errorf("WordsNeeded(%d, %d) = %d, want %d", tt.bits, tt.length, got, tt.want)
		}
	}
}
