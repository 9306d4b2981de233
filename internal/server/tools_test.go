package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"photo_enhance",
		"photo_inspect",
		"photo_plan_status",
		"photo_set_plan",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(toolMap) != len(tools) {
		t.Error("tool names must be unique")
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}

			if tool.Description == "" {
				t.Error("Tool description is empty")
			}

			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			schemaType, ok := tool.InputSchema["type"]
			if !ok {
				t.Error("InputSchema missing 'type' field")
			}
			if schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' field")
			}

			// Every required parameter must be declared.
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required parameter %s has no property definition", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	expected := map[string][]string{
		"photo_enhance":     {"paths", "output"},
		"photo_inspect":     {"path"},
		"photo_plan_status": nil,
		"photo_set_plan":    {"plan"},
	}

	for _, tool := range GetToolDefinitions() {
		want, ok := expected[tool.Name]
		if !ok {
			continue
		}

		t.Run(tool.Name, func(t *testing.T) {
			got, _ := tool.InputSchema["required"].([]string)
			if len(got) != len(want) {
				t.Fatalf("required: got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("required[%d]: got %s, want %s", i, got[i], want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_EnhanceVariants(t *testing.T) {
	var tool Tool
	for _, tt := range GetToolDefinitions() {
		if tt.Name == "photo_enhance" {
			tool = tt
			break
		}
	}
	if tool.Name == "" {
		t.Fatal("photo_enhance tool not found")
	}

	props := tool.InputSchema["properties"].(map[string]interface{})
	variant, ok := props["variant"].(map[string]interface{})
	if !ok {
		t.Fatal("photo_enhance should define a variant property")
	}

	enum, ok := variant["enum"].([]string)
	if !ok {
		t.Fatal("variant enum should be a string slice")
	}

	want := map[string]bool{"safe": true, "pro": true}
	for _, v := range enum {
		delete(want, v)
	}
	for missing := range want {
		t.Errorf("variant enum missing %s", missing)
	}
}
