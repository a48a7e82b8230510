package smoother

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeBatch_Valid(t *testing.T) {
	payload := []byte(`{"detections":[{"x":1,"y":2,"width":3,"height":4,"label":1},{"x":0,"y":0,"width":5,"height":5,"label":"person","score":0.8}]}`)

	b, err := DecodeBatch(payload, 3, t0)
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}

	if b.Seq != 3 || !b.ReceivedAt.Equal(t0) {
		t.Errorf("Expected seq and timestamp to be kept, got %d %v", b.Seq, b.ReceivedAt)
	}
	if len(b.Detections) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(b.Detections))
	}
	if b.Detections[0].Label != "1" || b.Detections[0].ClassID != 1 {
		t.Errorf("Expected numeric label normalized to \"1\", got %+v", b.Detections[0])
	}
	if b.Detections[0].Box.Height != 4 {
		t.Errorf("Expected height 4, got %v", b.Detections[0].Box.Height)
	}
	if b.Detections[1].Label != "person" || b.Detections[1].Score != 0.8 {
		t.Errorf("Expected string label and score, got %+v", b.Detections[1])
	}
}

func TestDecodeBatch_Empty(t *testing.T) {
	b, err := DecodeBatch([]byte(`{"detections":[]}`), 1, time.Now())
	if err != nil {
		t.Fatalf("Empty list must be accepted: %v", err)
	}
	if len(b.Detections) != 0 {
		t.Errorf("Expected no detections, got %d", len(b.Detections))
	}
}

func TestDecodeBatch_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `hello`},
		{"top level list", `[{"x":1}]`},
		{"missing detections", `{}`},
		{"detections null", `{"detections":null}`},
		{"detections object", `{"detections":{"x":1}}`},
		{"missing x", `{"detections":[{"y":2,"width":3,"height":4,"label":1}]}`},
		{"string width", `{"detections":[{"x":1,"y":2,"width":"3","height":4,"label":1}]}`},
		{"missing label", `{"detections":[{"x":1,"y":2,"width":3,"height":4}]}`},
		{"null label", `{"detections":[{"x":1,"y":2,"width":3,"height":4,"label":null}]}`},
		{"bool label", `{"detections":[{"x":1,"y":2,"width":3,"height":4,"label":true}]}`},
		{"negative height", `{"detections":[{"x":1,"y":2,"width":3,"height":-4,"label":1}]}`},
		{"score above one", `{"detections":[{"x":1,"y":2,"width":3,"height":4,"label":1,"score":1.5}]}`},
		{"one bad entry", `{"detections":[{"x":1,"y":2,"width":3,"height":4,"label":1},{"x":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.payload), 1, time.Now())
			if !errors.Is(err, ErrMalformedBatch) {
				t.Errorf("Expected ErrMalformedBatch, got %v", err)
			}
		})
	}
}

func TestParseLabel_NumericNormalization(t *testing.T) {
	a, err := ParseLabel([]byte(`1.0`))
	if err != nil {
		t.Fatalf("ParseLabel failed: %v", err)
	}
	b, _ := ParseLabel([]byte(`1`))
	if a != b {
		t.Errorf("Expected 1.0 and 1 to normalize equally, got %q and %q", a, b)
	}
}

func TestParseLabel_StringAndNumberShareIdentity(t *testing.T) {
	tests := []struct {
		number string
		text   string
	}{
		{`1`, `"1"`},
		{`2.5`, `"2.5"`},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			a, err := ParseLabel([]byte(tt.number))
			if err != nil {
				t.Fatalf("ParseLabel(%s) failed: %v", tt.number, err)
			}
			b, err := ParseLabel([]byte(tt.text))
			if err != nil {
				t.Fatalf("ParseLabel(%s) failed: %v", tt.text, err)
			}
			if a != b {
				t.Errorf("Expected %s and %s to share a label, got %q and %q", tt.number, tt.text, a, b)
			}
		})
	}
}
