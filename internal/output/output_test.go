// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type record struct {
	Scheme  string   `json:"scheme"`
	Address string   `json:"ss58_address"`
	Signers []string `json:"signers"`
	Nested  struct {
		Threshold int  `json:"threshold"`
		Pallet    bool `json:"pallet"`
	} `json:"nested"`
	Empty []string `json:"empty"`
	Note  *string  `json:"note"`
}

func sample() record {
	r := record{
		Scheme:  "sr25519",
		Address: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		Signers: []string{"a", "b"},
		Empty:   []string{},
	}
	r.Nested.Threshold = 2
	return r
}

func TestJSONSink(t *testing.T) {
	var out, notices bytes.Buffer
	sink := New(&out, &notices, false)
	if _, ok := sink.(*JSONSink); !ok {
		t.Fatalf("New(styled=false) = %T", sink)
	}

	if err := sink.Emit(sample()); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	sink.Notice("saved %d key(s)", 2)

	var back record
	if err := json.Unmarshal(out.Bytes(), &back); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if back.Address != sample().Address || back.Nested.Threshold != 2 {
		t.Errorf("decoded %+v", back)
	}
	if !strings.Contains(out.String(), "\n  \"scheme\": \"sr25519\"") {
		t.Errorf("output should be 2-space indented:\n%s", out.String())
	}
	if notices.String() != "saved 2 key(s)\n" {
		t.Errorf("notice = %q", notices.String())
	}
	if strings.Contains(out.String(), "saved") {
		t.Error("notices must not reach the result stream")
	}
}

func TestStyledSink(t *testing.T) {
	var out, notices bytes.Buffer
	sink := New(&out, &notices, true)
	if _, ok := sink.(*StyledSink); !ok {
		t.Fatalf("New(styled=true) = %T", sink)
	}

	if err := sink.Emit(sample()); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	// A bytes.Buffer is not a terminal, so the renderer emits no escapes.
	want := strings.Join([]string{
		"scheme: sr25519",
		"ss58_address: 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		"signers:",
		"  - a",
		"  - b",
		"nested:",
		"  threshold: 2",
		"  pallet: false",
		"empty: []",
		"note: null",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("styled output:\n%s\nwant:\n%s", out.String(), want)
	}

	sink.Notice("done")
	if notices.String() != "done\n" {
		t.Errorf("notice = %q", notices.String())
	}
}

func TestStyledSinkScalarsAndLists(t *testing.T) {
	var out bytes.Buffer
	sink := NewStyledSink(&out, nil)

	if err := sink.Emit("5Grw"); err != nil {
		t.Fatal(err)
	}
	if err := sink.Emit([]map[string]int{{"n": 1}, {"n": 2}}); err != nil {
		t.Fatal(err)
	}
	want := "5Grw\n- \n  n: 1\n- \n  n: 2\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	// nil notices writer is tolerated
	sink.Notice("ignored")
}

func TestEmitUnencodable(t *testing.T) {
	var out bytes.Buffer
	for _, sink := range []Sink{NewJSONSink(&out, nil), NewStyledSink(&out, nil)} {
		if err := sink.Emit(make(chan int)); err == nil {
			t.Errorf("%T: expected an error for an unencodable value", sink)
		}
	}
}
