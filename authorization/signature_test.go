package authorization_test

import (
	"strings"
	"testing"

	"github.com/otimlabs/otim-go/authorization"
)

func TestNormalizeV(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		want uint8
	}{
		{name: "Parity zero passes through", v: 0, want: 0},
		{name: "Parity one passes through", v: 1, want: 1},
		{name: "Legacy 27 maps to 0", v: 27, want: 0},
		{name: "Legacy 28 maps to 1", v: 28, want: 1},
		{name: "EIP-155 chain 0 parity 0", v: 35, want: 0},
		{name: "EIP-155 chain 0 parity 1", v: 36, want: 1},
		{name: "EIP-155 chain 8453 parity 0", v: 16941, want: 0},
		{name: "EIP-155 chain 8453 parity 1", v: 16942, want: 1},
		{name: "Unrecognized even value falls back to parity", v: 2, want: 0},
		{name: "Unrecognized odd value falls back to parity", v: 29, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := authorization.NormalizeV(tc.v); got != tc.want {
				t.Errorf("NormalizeV(%d) = %d, want %d", tc.v, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Converts legacy v and pads words", func(t *testing.T) {
		sig, err := authorization.Normalize(authorization.RawSignature{
			R: "0x1b2c",
			S: "0x2",
			V: "1c",
		})
		if err != nil {
			t.Fatalf("Failed to normalize: %v", err)
		}
		if sig.YParity != 1 {
			t.Errorf("YParity = %d, want 1", sig.YParity)
		}
		if want := "0x" + strings.Repeat("0", 60) + "1b2c"; sig.R != want {
			t.Errorf("R = %s, want %s", sig.R, want)
		}
		if want := "0x" + strings.Repeat("0", 63) + "2"; sig.S != want {
			t.Errorf("S = %s, want %s", sig.S, want)
		}
	})

	t.Run("Keeps full-width words intact", func(t *testing.T) {
		fullR := strings.Repeat("ab", 32)
		sig, err := authorization.Normalize(authorization.RawSignature{
			R: "0x" + fullR,
			S: "0x" + strings.Repeat("cd", 32),
			V: "00",
		})
		if err != nil {
			t.Fatalf("Failed to normalize: %v", err)
		}
		if sig.R != "0x"+fullR {
			t.Errorf("R = %s, want 0x%s", sig.R, fullR)
		}
		if sig.YParity != 0 {
			t.Errorf("YParity = %d, want 0", sig.YParity)
		}
	})

	t.Run("Rejects oversized r", func(t *testing.T) {
		_, err := authorization.Normalize(authorization.RawSignature{
			R: "0x" + strings.Repeat("11", 33),
			S: "0x02",
			V: "1b",
		})
		if err == nil {
			t.Error("Expected error for 33-byte r")
		}
	})

	t.Run("Rejects empty v", func(t *testing.T) {
		_, err := authorization.Normalize(authorization.RawSignature{
			R: "0x01",
			S: "0x02",
			V: "",
		})
		if err == nil {
			t.Error("Expected error for empty recovery id")
		}
	})
}

func TestFlat(t *testing.T) {
	t.Run("Concatenates r, s and v", func(t *testing.T) {
		flat, err := authorization.Flat(authorization.RawSignature{
			R: "0x01",
			S: "0x02",
			V: "1b",
		})
		if err != nil {
			t.Fatalf("Failed to flatten: %v", err)
		}
		want := "0x" + strings.Repeat("0", 63) + "1" + strings.Repeat("0", 63) + "2" + "1b"
		if flat != want {
			t.Errorf("Flat = %s, want %s", flat, want)
		}
		if len(flat) != 2+130 {
			t.Errorf("Flat length = %d, want 132", len(flat))
		}
	})

	t.Run("Lowercases hex digits", func(t *testing.T) {
		flat, err := authorization.Flat(authorization.RawSignature{
			R: "0x" + strings.Repeat("AB", 32),
			S: "0x" + strings.Repeat("CD", 32),
			V: "00",
		})
		if err != nil {
			t.Fatalf("Failed to flatten: %v", err)
		}
		want := "0x" + strings.Repeat("ab", 32) + strings.Repeat("cd", 32) + "00"
		if flat != want {
			t.Errorf("Flat = %s, want %s", flat, want)
		}
	})

	t.Run("Rejects recovery id wider than one byte", func(t *testing.T) {
		_, err := authorization.Flat(authorization.RawSignature{
			R: "0x01",
			S: "0x02",
			V: "0x100",
		})
		if err == nil {
			t.Error("Expected error for two-byte recovery id")
		}
	})
}
