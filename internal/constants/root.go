package constants

import "time"

// ChangeKind identifies which piece of application state a mutation touched.
type ChangeKind string

const (
	AppName            = "mono"
	DefaultKeyringUser = "chat-token"
	KeyringConnUser    = "database-connection"
	DefaultDataDir     = "~/.config/mono"
	Version            = "v0.3.0"

	DateFormat = "2006-01-02" // mood dates, challenge start
	TimeFormat = "15:04"      // task times

	// TimestampFormat is a fixed-width UTC ISO-8601 layout, so stored timestamps
	// sort lexically in the same order as chronologically.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"

	// Under the data directory.
	KVFileName       = "store.json"
	KVDirName        = "store"
	DatabaseFileName = "main.db"
	LogDirName       = "logs"
	LogFileName      = "mono.log"

	// SQLite backups: <DataDir>/backups/mono-YYYYMMDD-HHMMSS.db
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "mono-"
	BackupFileSuffix = ".db"

	// Tray app notifier
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "mono-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.mono"
	TrayAppExecutable      = "mono-tray"

	// Remote endpoints
	DefaultChatURL       = "https://mono-rosy.vercel.app/api/chat"
	DefaultChallengesURL = "https://mono-rosy.vercel.app/api/challenges"
	DefaultCompletionURL = "https://mono-rosy.vercel.app/api/completion"
	DefaultServeAddr     = "127.0.0.1:8787"

	// ChallengeLength is the number of days in a challenge.
	ChallengeLength = 30

	// SectionCount is the number of swipeable home sections.
	SectionCount = 3

	// Change kinds emitted by the state facade
	ChangeTheme      ChangeKind = "theme"
	ChangeSection    ChangeKind = "section"
	ChangeUser       ChangeKind = "user"
	ChangeHighlight  ChangeKind = "highlight"
	ChangeTasks      ChangeKind = "tasks"
	ChangeMoods      ChangeKind = "moods"
	ChangeChallenges ChangeKind = "challenges"
	ChangeLoaded     ChangeKind = "loaded"
)
