package constants

const (
	// Key-value store keys
	KeyTheme          = "theme"
	KeySection        = "section"
	KeyUser           = "user"
	KeyDailyHighlight = "dailyHighlight"
	KeyTasks          = "tasks" // legacy task list, read only as a fallback
	// KeyLegacyImport is set while a legacy import is unfinished.
	KeyLegacyImport   = "legacyImport"

	// Default values
	DefaultTheme     = "light"
	DefaultSection   = 0
	DefaultAvatar    = "anon"
	DefaultTimezone  = "Local"
	DefaultKVBackend = "file"

	// KV backends
	KVBackendFile = "file"
	KVBackendDisk = "disk"
)

// SystemPrompt is the fixed first message of every chat transcript.
// %s is replaced by the local time when the transcript is created.
const SystemPrompt = `You are Mo, an AI buddy in app Mono.
You are here to help the user with their daily tasks and provide information.
You are friendly and helpful.
One of your main goals is to help the user stay focused and productive.
Current Local Time: %s
Your default language is English and Traditional Chinese.
You can also respond in other languages if the user asks you to.`

// HighlightSuggestions are offered when no daily highlight is set.
var HighlightSuggestions = []string{
	"Take a 30-minute walk outside",
	"Read one chapter of your book",
	"Connect with an old friend",
	"Spend 15 minutes meditating",
}
