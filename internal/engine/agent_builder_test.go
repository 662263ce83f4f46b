package engine

import (
	"testing"
)

func TestAgentBuilder_Validation(t *testing.T) {
	t.Run("missing LLM", func(t *testing.T) {
		_, err := NewAgentBuilder().WithToolRegistry(make(ToolRegistry)).Build()
		if err == nil || err.Error() != "LLM client not configured: use WithLLM" {
			t.Errorf("Build() error = %v, want 'LLM client not configured: use WithLLM'", err)
		}
	})

	t.Run("missing tools", func(t *testing.T) {
		_, err := NewAgentBuilder().WithLLM(&scriptedLLM{}).Build()
		if err == nil || err.Error() != "tools not configured: use WithToolRegistry" {
			t.Errorf("Build() error = %v, want 'tools not configured: use WithToolRegistry'", err)
		}
	})

	t.Run("unknown plugin", func(t *testing.T) {
		_, err := NewAgentBuilder().
			WithLLM(&scriptedLLM{}).
			WithToolRegistry(weatherRegistry()).
			WithPlugins("weather", "calendar").
			Build()
		if err == nil {
			t.Fatal("Build() expected error for unknown plugin, got nil")
		}
	})
}

func TestAgentBuilder_Success(t *testing.T) {
	agent, err := NewAgentBuilder().
		WithLLM(&scriptedLLM{}).
		WithModel("gpt-4o").
		WithToolRegistry(weatherRegistry()).
		WithMaxSteps(0).
		Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	if agent.Model() != "gpt-4o" {
		t.Errorf("Model() = %q, want gpt-4o", agent.Model())
	}
	if got := agent.Settings().MaxSteps; got != DefaultMaxSteps {
		t.Errorf("MaxSteps = %d, want default %d", got, DefaultMaxSteps)
	}
	if !agent.Settings().FunctionCall.AutoInvoke {
		t.Error("AutoInvoke should default to true")
	}
	if len(agent.Tools()) != 2 {
		t.Errorf("Tools() = %d, want 2", len(agent.Tools()))
	}
}

func TestToolRegistry(t *testing.T) {
	reg := weatherRegistry()

	if got := reg.Plugins(); len(got) != 2 || got[0] != "weather" || got[1] != "youtube_dl" {
		t.Errorf("Plugins() = %v", got)
	}

	schemas := reg.Schemas()
	if len(schemas) != 2 || schemas[0].Name != "download" || schemas[1].Name != "get_weather_for_city" {
		t.Errorf("Schemas() not sorted by name: %v", schemas)
	}

	if got := reg.FilterByPlugins([]string{"youtube_dl"}); len(got) != 1 {
		t.Errorf("FilterByPlugins() = %d tools, want 1", len(got))
	}
	if got := reg.FilterByPlugins(nil); len(got) != 2 {
		t.Errorf("FilterByPlugins(nil) = %d tools, want 2", len(got))
	}

	if err := reg.Register(Tool{Name: "download", Fn: mockToolFn}); err == nil {
		t.Error("Register() should reject duplicate names")
	}
	if err := reg.Register(Tool{Name: "noop"}); err == nil {
		t.Error("Register() should reject tools without a function")
	}
	if err := reg.Register(Tool{Name: "noop", Fn: mockToolFn}); err != nil {
		t.Errorf("Register() unexpected error: %v", err)
	}
}

func TestParseToolChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    ToolChoice
		wantErr bool
	}{
		{"", ToolChoiceAuto, false},
		{"auto", ToolChoiceAuto, false},
		{"none", ToolChoiceNone, false},
		{"required", ToolChoiceRequired, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseToolChoice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseToolChoice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseToolChoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUsage(t *testing.T) {
	var u Usage
	u.Add(Usage{Prompt: 3, Completion: 4, Total: 7})
	u.Add(Usage{Prompt: 1, Completion: 1, Total: 2})

	fields := u.Fields()
	want := []UsageField{{"prompt_tokens", 4}, {"completion_tokens", 5}, {"total_tokens", 9}}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Fields()[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}
