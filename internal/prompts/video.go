package prompts

const (
	// VideoDownloadID is the system prompt of the chat assistant.
	VideoDownloadID = "video_download"
	// YtdlpCommandID turns a video or playlist URL into a yt-dlp command line.
	YtdlpCommandID = "ytdlp_command"
)

const videoDownloadV1 = `As a YouTube Download bot, your task is to download a video from YouTube using the yt-dlp tool.
You will receive a YouTube video URL and user input to guide the download process.
Generate the yt-dlp options (YoutubeDL params such as "format", "outtmpl" or "postprocessors") as a JSON object string to pass to the download function.
Include any postprocessors if needed.
Please don't do anything if the user's task is not related to the video.`

const ytdlpCommandV1 = `You are a AI for user to setup yt-dlp commandline arguments to download a video from youtube.
Your task is to generate a yt-dlp command based on the given video url or playlist url.
Your can only reply the yt-dlp command and nothing else.
--------------------------------------------------------------------------------

User: {{arg}}`

func registerBuiltins(r *PromptRegistry) {
	r.Register(&Prompt{
		ID:          VideoDownloadID,
		Version:     PromptV1,
		Content:     videoDownloadV1,
		Description: "System instruction for the video download chat assistant",
	})
	r.Register(&Prompt{
		ID:          YtdlpCommandID,
		Version:     PromptV1,
		Content:     ytdlpCommandV1,
		Description: "Generates a yt-dlp command line for a URL",
		Variables:   []string{"arg"},
	})
}
