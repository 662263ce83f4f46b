// Package tools assembles the plugin tools the assistant may call.
package tools

import (
	"fmt"
	"sort"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/tools/semantic"
	"github.com/ChamsBouzaiene/ytchat/internal/tools/video"
	"github.com/ChamsBouzaiene/ytchat/internal/tools/weather"
)

// Deps carries the collaborators plugins are built from. A nil field leaves
// the plugins that need it out of the registry.
type Deps struct {
	Video    video.Client
	Commands *semantic.CommandGenerator
}

// Known returns every plugin name NewToolRegistry understands.
func Known() []string {
	names := []string{video.Plugin, weather.Plugin, semantic.Plugin}
	sort.Strings(names)
	return names
}

// NewToolRegistry creates the registry holding the tools of the named
// plugins. An empty list enables every plugin whose dependencies are set.
func NewToolRegistry(deps Deps, plugins []string) (engine.ToolRegistry, error) {
	known := make(map[string]bool)
	for _, p := range Known() {
		known[p] = true
	}
	for _, p := range plugins {
		if !known[p] {
			return nil, fmt.Errorf("unknown plugin %q (available: %v)", p, Known())
		}
	}

	reg := make(engine.ToolRegistry)
	add := func(tools ...engine.Tool) error {
		for _, t := range tools {
			if err := reg.Register(t); err != nil {
				return err
			}
		}
		return nil
	}

	if deps.Video != nil {
		if err := add(video.NewDownloadTool(deps.Video), video.NewVideoInfoTool(deps.Video)); err != nil {
			return nil, err
		}
	}
	if err := add(weather.NewWeatherTool()); err != nil {
		return nil, err
	}
	if deps.Commands != nil {
		if err := add(semantic.NewCommandTool(deps.Commands)); err != nil {
			return nil, err
		}
	}

	filtered := reg.FilterByPlugins(plugins)
	for _, p := range plugins {
		if len(filtered.FilterByPlugins([]string{p})) == 0 {
			return nil, fmt.Errorf("plugin %q is not available", p)
		}
	}
	return filtered, nil
}
