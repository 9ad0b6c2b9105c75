package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("") is well known.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestJSON(t *testing.T) {
	type rec struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	x, err := JSON(rec{"x", 1})
	if err != nil {
		t.Fatal(err)
	}
	y, _ := JSON(rec{"x", 1})
	z, _ := JSON(rec{"x", 2})
	if x != y {
		t.Error("equal records should share a checksum")
	}
	if x == z {
		t.Error("different records should not share a checksum")
	}
	if x != Sum([]byte(`{"a":"x","b":1}`)) {
		t.Error("JSON should hash the compact encoding")
	}
	if _, err := JSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}
