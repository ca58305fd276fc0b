package core

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestDictionaryGenerate(t *testing.T) {
	reg := NewCommandRegistry()
	reg.Register("identify", "offset=%u count=%c", "offset=%u data=%*s", nil)
	reg.Register("servo_detach", "index=%c", "", nil)
	reg.Register("eth_info", "", "link=%c", nil)

	d := NewDictionary(reg, "1.0.0", `EK "test"`)
	d.AddConstant("B", "2")
	d.AddConstant("A", "1")

	want := `{"version":"1.0.0","board":"EK \"test\"",` +
		`"constants":{"A":"1","B":"2"},` +
		`"commands":{"identify offset=%u count=%c":0,"servo_detach index=%c":1,"eth_info":2},` +
		`"responses":{"identify_response offset=%u data=%*s":0,"servo_detach_response":1,"eth_info_response link=%c":2}}`
	if got := string(d.Generate()); got != want {
		t.Errorf("Dictionary mismatch\nexpected %s\n     got %s", want, got)
	}

	var parsed map[string]any
	if err := json.Unmarshal(d.Generate(), &parsed); err != nil {
		t.Errorf("Dictionary is not valid JSON: %v", err)
	}

	d.AddConstant("C", "3")
	if !bytes.Contains(d.Generate(), []byte(`"C":"3"`)) {
		t.Error("Expected the cache to be rebuilt after AddConstant")
	}
}

func TestDictionaryChunk(t *testing.T) {
	reg := NewCommandRegistry()
	d := NewDictionary(reg, "1.0.0", "board")
	full := d.Generate()

	var joined []byte
	for off := uint32(0); ; {
		c := d.Chunk(off, 7)
		if c == nil {
			break
		}
		if len(c) > 7 {
			t.Fatalf("Chunk longer than requested: %d", len(c))
		}
		joined = append(joined, c...)
		off += uint32(len(c))
	}
	if !bytes.Equal(full, joined) {
		t.Errorf("Chunks do not reassemble the dictionary:\n%s\n%s", full, joined)
	}
	if d.Chunk(uint32(len(full))+10, 7) != nil {
		t.Error("Expected nil past the end")
	}
}
