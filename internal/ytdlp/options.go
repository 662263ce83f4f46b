package ytdlp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// paramFlags maps YoutubeDL param names (after normalization) to CLI flags.
var paramFlags = map[string]string{
	"outtmpl":             "output",
	"writesubtitles":      "write-subs",
	"writeautomaticsub":   "write-auto-subs",
	"subtitleslangs":      "sub-langs",
	"subtitlesformat":     "sub-format",
	"noplaylist":          "no-playlist",
	"ratelimit":           "limit-rate",
	"writethumbnail":      "write-thumbnail",
	"writeinfojson":       "write-info-json",
	"merge-output-format": "merge-output-format",
	"playlistitems":       "playlist-items",
	"restrictfilenames":   "restrict-filenames",
	"nooverwrites":        "no-overwrites",
	"ignoreerrors":        "ignore-errors",
}

// allowedFlags are the only yt-dlp options the model may pass. Anything
// that names a program, a plugin, a config or cookie file, or a path outside
// the download dir is left out.
var allowedFlags = map[string]bool{
	// format selection
	"format":              true,
	"format-sort":         true,
	"merge-output-format": true,
	"prefer-free-formats": true,
	"check-formats":       true,
	"audio-multistreams":  true,
	"video-multistreams":  true,

	// naming
	"output":             true,
	"restrict-filenames": true,
	"windows-filenames":  true,
	"trim-filenames":     true,
	"no-overwrites":      true,
	"force-overwrites":   true,
	"no-part":            true,
	"no-mtime":           true,

	// playlists and filters
	"no-playlist":     true,
	"yes-playlist":    true,
	"playlist-items":  true,
	"playlist-start":  true,
	"playlist-end":    true,
	"max-downloads":   true,
	"match-filter":    true,
	"match-filters":   true,
	"min-filesize":    true,
	"max-filesize":    true,
	"date":            true,
	"datebefore":      true,
	"dateafter":       true,
	"live-from-start": true,

	// network pacing
	"limit-rate":           true,
	"throttled-rate":       true,
	"retries":              true,
	"fragment-retries":     true,
	"concurrent-fragments": true,
	"http-chunk-size":      true,
	"ignore-errors":        true,
	"abort-on-error":       true,

	// subtitles, thumbnails, metadata
	"write-subs":         true,
	"write-auto-subs":    true,
	"sub-langs":          true,
	"sub-format":         true,
	"convert-subs":       true,
	"embed-subs":         true,
	"write-thumbnail":    true,
	"embed-thumbnail":    true,
	"convert-thumbnails": true,
	"write-info-json":    true,
	"write-description":  true,
	"embed-metadata":     true,
	"embed-chapters":     true,
	"split-chapters":     true,

	// post-processing
	"postprocessors":      true,
	"extract-audio":       true,
	"audio-format":        true,
	"audio-quality":       true,
	"recode-video":        true,
	"remux-video":         true,
	"keep-video":          true,
	"no-post-overwrites":  true,
	"sponsorblock-remove": true,
	"sponsorblock-mark":   true,

	"quiet":       true,
	"no-warnings": true,
}

// commaFlags take a single comma separated value instead of being repeated.
var commaFlags = map[string]bool{
	"sub-langs": true,
}

var flagNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ParseOptions translates a JSON object of yt-dlp options into CLI arguments.
// Keys are emitted in sorted order. An empty string yields no arguments.
func ParseOptions(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var opts map[string]any
	if err := dec.Decode(&opts); err != nil {
		return nil, invalidOptions("options must be a JSON object: %v", err)
	}
	if dec.More() {
		return nil, invalidOptions("trailing data after options object")
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, key := range keys {
		flag := normalizeFlag(key)
		if !flagNameRe.MatchString(flag) {
			return nil, invalidOptions("bad option name %q", key)
		}
		if !allowedFlags[flag] {
			return nil, invalidOptions("option %q is not allowed", key)
		}

		if flag == "postprocessors" {
			pp, err := postprocessorArgs(opts[key])
			if err != nil {
				return nil, err
			}
			args = append(args, pp...)
			continue
		}

		vals, err := flagArgs(flag, opts[key])
		if err != nil {
			return nil, err
		}
		args = append(args, vals...)
	}
	return args, nil
}

func normalizeFlag(key string) string {
	k := strings.ToLower(strings.TrimLeft(strings.TrimSpace(key), "-"))
	k = strings.ReplaceAll(k, "_", "-")
	if f, ok := paramFlags[k]; ok {
		return f
	}
	if f, ok := paramFlags[strings.ReplaceAll(k, "-", "")]; ok {
		return f
	}
	return k
}

func flagArgs(flag string, v any) ([]string, error) {
	name := "--" + flag
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return []string{name}, nil
		}
		return nil, nil
	case string:
		if flag == "output" {
			if err := checkTemplate(val); err != nil {
				return nil, err
			}
		}
		return []string{name, val}, nil
	case json.Number:
		return []string{name, val.String()}, nil
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := scalarText(item)
			if !ok {
				return nil, invalidOptions("option %q only accepts a list of scalars", flag)
			}
			if flag == "output" {
				if err := checkTemplate(s); err != nil {
					return nil, err
				}
			}
			items = append(items, s)
		}
		if len(items) == 0 {
			return nil, nil
		}
		if commaFlags[flag] {
			return []string{name, strings.Join(items, ",")}, nil
		}
		out := make([]string, 0, 2*len(items))
		for _, s := range items {
			out = append(out, name, s)
		}
		return out, nil
	case map[string]any:
		if flag == "output" {
			return outputArgs(val)
		}
		return nil, invalidOptions("option %q has a nested object value", flag)
	default:
		return nil, invalidOptions("option %q has an unsupported value", flag)
	}
}

// outputArgs handles the per-type output template form {"default": ..., "thumbnail": ...}.
func outputArgs(tmpl map[string]any) ([]string, error) {
	types := make([]string, 0, len(tmpl))
	for t := range tmpl {
		types = append(types, t)
	}
	sort.Strings(types)

	var out []string
	for _, t := range types {
		s, ok := tmpl[t].(string)
		if !ok {
			return nil, invalidOptions("output template %q must be a string", t)
		}
		if err := checkTemplate(s); err != nil {
			return nil, err
		}
		if t == "default" {
			out = append(out, "--output", s)
		} else {
			out = append(out, "--output", t+":"+s)
		}
	}
	return out, nil
}

// checkTemplate keeps output templates inside the download dir.
func checkTemplate(tmpl string) error {
	p := filepath.ToSlash(strings.TrimSpace(tmpl))
	if path.IsAbs(p) || filepath.IsAbs(tmpl) || strings.HasPrefix(p, "~") {
		return invalidOptions("output template %q must be relative", tmpl)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return invalidOptions("output template %q leaves the download dir", tmpl)
		}
	}
	return nil
}

func scalarText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return fmt.Sprint(val), true
	default:
		return "", false
	}
}

// postprocessorArgs translates the YoutubeDL postprocessors list into the
// equivalent CLI flags.
func postprocessorArgs(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, invalidOptions("postprocessors must be a list")
	}

	var args []string
	for i, item := range list {
		pp, ok := item.(map[string]any)
		if !ok {
			return nil, invalidOptions("postprocessor %d must be an object", i)
		}
		key, _ := pp["key"].(string)
		switch key {
		case "FFmpegExtractAudio":
			args = append(args, "--extract-audio")
			if s, ok := scalarText(pp["preferredcodec"]); ok && s != "" {
				args = append(args, "--audio-format", s)
			}
			if s, ok := scalarText(pp["preferredquality"]); ok && s != "" {
				args = append(args, "--audio-quality", s)
			}
		case "FFmpegVideoConvertor":
			format, ok := scalarText(pp["preferedformat"])
			if !ok {
				format, ok = scalarText(pp["preferredformat"])
			}
			if !ok || format == "" {
				return nil, invalidOptions("FFmpegVideoConvertor needs preferedformat")
			}
			args = append(args, "--recode-video", format)
		case "FFmpegEmbedSubtitle":
			args = append(args, "--embed-subs")
		case "EmbedThumbnail":
			args = append(args, "--embed-thumbnail")
		case "FFmpegMetadata":
			args = append(args, "--embed-metadata")
		case "":
			return nil, invalidOptions("postprocessor %d has no key", i)
		default:
			return nil, invalidOptions("unsupported postprocessor %q", key)
		}
	}
	return args, nil
}
