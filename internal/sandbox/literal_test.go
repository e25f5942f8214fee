package sandbox

import "testing"

func TestEncodeLiteralScalars(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{float64(3), "3"},
		{float64(3.5), "3.5"},
		{"hi", `"hi"`},
	}
	for _, c := range cases {
		got, err := EncodeLiteral(c.in)
		if err != nil {
			t.Fatalf("EncodeLiteral(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("EncodeLiteral(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncodeLiteralListAndObject(t *testing.T) {
	got, err := EncodeLiteral([]interface{}{float64(1), "two", nil})
	if err != nil {
		t.Fatalf("encode list: %v", err)
	}
	if got != `[1, "two", None]` {
		t.Fatalf("list = %q", got)
	}

	got, err = EncodeLiteral(map[string]interface{}{"b": float64(2), "a": float64(1)})
	if err != nil {
		t.Fatalf("encode object: %v", err)
	}
	if got != `{"a": 1, "b": 2}` {
		t.Fatalf("object = %q (keys must sort for determinism)", got)
	}
}

func TestEncodeLiteralUnrepresentableType(t *testing.T) {
	type weird struct{ X int }
	if _, err := EncodeLiteral(weird{X: 1}); err == nil {
		t.Fatalf("expected error for unrepresentable type")
	}
}

func TestEncodeCallRejectsUnrepresentableArgument(t *testing.T) {
	type weird struct{ X int }
	_, err := EncodeCall("f", map[string]interface{}{"a": weird{X: 1}}, []string{"a"})
	if err == nil {
		t.Fatalf("expected ArgumentError")
	}
	if _, ok := err.(*ArgumentError); !ok {
		t.Fatalf("error type = %T", err)
	}
}
