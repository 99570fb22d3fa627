package main

import "testing"

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{"ingest": false, "query": false, "serve": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", name)
		}
	}
}
