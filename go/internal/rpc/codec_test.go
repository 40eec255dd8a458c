package rpc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sample struct {
	Token string   `json:"token"`
	Score *float64 `json:"score"`
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec()
	if codec.Name() != "json" {
		t.Fatalf("name = %q", codec.Name())
	}

	score := 8.0
	in := sample{Token: "ABC", Score: &score}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"token":"ABC","score":8}` {
		t.Fatalf("unexpected payload %s", data)
	}

	var out sample
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONCodecEmptyBody(t *testing.T) {
	var out sample
	if err := JSONCodec().Unmarshal([]byte("  "), &out); err != nil {
		t.Fatalf("empty body should decode to zero value: %v", err)
	}
	if out.Token != "" {
		t.Fatalf("expected zero value, got %+v", out)
	}
}

func TestJSONCodecRejectsGarbage(t *testing.T) {
	var out sample
	if err := JSONCodec().Unmarshal([]byte("{"), &out); err == nil {
		t.Fatal("expected error for truncated json")
	}
}

func TestProcedure(t *testing.T) {
	got := Procedure("SessionService", "CreateSession")
	if got != "/planningpoker.v1.SessionService/CreateSession" {
		t.Fatalf("procedure = %q", got)
	}
}
