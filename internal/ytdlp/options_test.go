package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"empty object", "{}", []string{}},
		{"format", `{"format": "bestaudio"}`, []string{"--format", "bestaudio"}},
		{"alias and bool", `{"outtmpl": "%(title)s.%(ext)s", "noplaylist": true}`,
			[]string{"--no-playlist", "--output", "%(title)s.%(ext)s"}},
		{"dashes and underscores", `{"--merge_output_format": "mp4"}`, []string{"--merge-output-format", "mp4"}},
		{"false and null omitted", `{"quiet": false, "format": null}`, []string{}},
		{"number", `{"ratelimit": 50000}`, []string{"--limit-rate", "50000"}},
		{"repeated list", `{"match_filter": ["a", "b"]}`, []string{"--match-filter", "a", "--match-filter", "b"}},
		{"nested relative output", `{"outtmpl": "%(uploader)s/%(title)s..%(ext)s"}`, []string{"--output", "%(uploader)s/%(title)s..%(ext)s"}},
		{"comma list", `{"subtitleslangs": ["en", "fr"], "writesubtitles": true}`,
			[]string{"--sub-langs", "en,fr", "--write-subs"}},
		{"output per type", `{"outtmpl": {"default": "%(id)s.%(ext)s", "thumbnail": "thumb/%(id)s"}}`,
			[]string{"--output", "%(id)s.%(ext)s", "--output", "thumbnail:thumb/%(id)s"}},
		{"postprocessors", `{"postprocessors": [
			{"key": "FFmpegExtractAudio", "preferredcodec": "mp3", "preferredquality": "192"},
			{"key": "FFmpegEmbedSubtitle"},
			{"key": "EmbedThumbnail"},
			{"key": "FFmpegMetadata"},
			{"key": "FFmpegVideoConvertor", "preferedformat": "mkv"}
		]}`, []string{
			"--extract-audio", "--audio-format", "mp3", "--audio-quality", "192",
			"--embed-subs", "--embed-thumbnail", "--embed-metadata", "--recode-video", "mkv",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.in)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseOptionsRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid json", `{"format": `},
		{"not an object", `["--format", "best"]`},
		{"trailing data", `{} {}`},
		{"exec", `{"exec": "rm -rf ~"}`},
		{"exec before download", `{"exec_before_download": "curl evil"}`},
		{"batch file", `{"--batch-file": "/etc/passwd"}`},
		{"config location", `{"config_locations": ["/tmp/x"]}`},
		{"nested object", `{"http_headers": {"X": "y"}}`},
		{"nested list", `{"format": [["a"]]}`},
		{"unknown postprocessor", `{"postprocessors": [{"key": "Exec", "exec_cmd": "ls"}]}`},
		{"postprocessor without key", `{"postprocessors": [{}]}`},
		{"postprocessors not a list", `{"postprocessors": {"key": "FFmpegMetadata"}}`},
		{"convertor without format", `{"postprocessors": [{"key": "FFmpegVideoConvertor"}]}`},
		{"bad name", `{"for mat": "best"}`},
		{"netrc command", `{"netrc_cmd": "sh -c 'touch /tmp/x'"}`},
		{"downloader path", `{"downloader": "/bin/sh", "downloader_args": "-c id"}`},
		{"external downloader", `{"external_downloader": "aria2c"}`},
		{"downloader args", `{"downloader_args": "ffmpeg:-i /etc/passwd"}`},
		{"ffmpeg location", `{"ffmpeg_location": "/tmp/evil"}`},
		{"plugin dirs", `{"plugin_dirs": ["/tmp/plugins"]}`},
		{"use postprocessor", `{"use_postprocessor": "Exec:exec_cmd=id"}`},
		{"cookie file", `{"cookiefile": "/home/u/.ssh/id_rsa"}`},
		{"cookies from browser", `{"cookies_from_browser": "firefox"}`},
		{"paths", `{"paths": "/etc"}`},
		{"unknown option", `{"load_info_json": "x.json"}`},
		{"absolute output", `{"outtmpl": "/etc/cron.d/%(id)s"}`},
		{"parent output", `{"output": "../../%(id)s.%(ext)s"}`},
		{"home output", `{"outtmpl": "~/.bashrc"}`},
		{"per type output escapes", `{"outtmpl": {"default": "%(id)s", "thumbnail": "../t/%(id)s"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.in)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}
