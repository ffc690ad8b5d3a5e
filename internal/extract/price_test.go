package extract

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,299.99", 1299.99},
		{"$1.299,00", 1299},
		{"USD 899", 899},
		{"$ 1,299", 1299},
		{"1.299", 1299},
		{"12,5", 12.5},
		{"$2.499.000", 2499000},
		{"Precio: $649.90 IVA incluido", 649.9},
	}
	for _, tt := range tests {
		got := ParsePrice(tt.in)
		if got == nil || *got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePrice_Unknown(t *testing.T) {
	for _, in := range []string{"", "Consultar", "$0.00", "gratis"} {
		if got := ParsePrice(in); got != nil {
			t.Errorf("ParsePrice(%q) = %v, want nil", in, *got)
		}
	}
}
