package handlers

const (
	// OAuth providers, as goth names them
	providerGitHub  = "github"
	providerTwitter = "twitterv2"

	// Response headers
	headerChatTitle = "X-Chat-Title"

	// SSE stream terminator
	sseDone = "[DONE]"

	// Redirect targets after the X handshake
	redirectHome          = "/"
	redirectTwitterFailed = "/?error=twitter_auth_failed"
)
