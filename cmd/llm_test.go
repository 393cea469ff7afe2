package cmd

import (
	"reflect"
	"testing"
)

func TestParseLLMTopicsDefaultIsStart(t *testing.T) {
	got, err := parseLLMTopics("")
	if err != nil {
		t.Fatalf("parseLLMTopics: %v", err)
	}
	if want := []string{"start"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("default topics mismatch: got %v want %v", got, want)
	}
}

func TestParseLLMTopicsAll(t *testing.T) {
	got, err := parseLLMTopics("all")
	if err != nil {
		t.Fatalf("parseLLMTopics: %v", err)
	}
	if len(got) != len(topicRegistry) {
		t.Fatalf("all topics size mismatch: got %d want %d", len(got), len(topicRegistry))
	}
	for i, tpc := range topicRegistry {
		if got[i] != tpc.Name {
			t.Fatalf("topic index %d mismatch: got %q want %q", i, got[i], tpc.Name)
		}
	}
}

func TestParseLLMTopicsRejectsUnknown(t *testing.T) {
	if _, err := parseLLMTopics("filters,weather"); err == nil {
		t.Fatal("expected unknown topic error")
	}
}

func TestBuildCommandsCoversTree(t *testing.T) {
	cmds := buildCommands(rootCmd)
	paths := make(map[string]llmCommand, len(cmds))
	for _, c := range cmds {
		paths[c.Path] = c
	}
	for _, want := range []string{"workwatch employees list", "workwatch reports create", "workwatch view save employees", "workwatch dashboard"} {
		if _, ok := paths[want]; !ok {
			t.Errorf("missing command %q", want)
		}
	}
	if _, ok := paths["workwatch employees list"].Flags["--status"]; !ok {
		t.Error("employees list should document --status")
	}
}
