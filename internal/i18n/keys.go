package i18n

// Message keys. The English text doubles as the key so a missing
// translation still renders something readable.
const (
	NotAllowed         = "You are not allowed to use this command."
	StorageUnavailable = "Storage is unavailable right now, please try again later."
	Apology            = "Something went wrong on our side. Incident `%s` has been reported."
	ClientFailure      = "Discord rejected the request (%d): %s"
	ForbiddenHint      = "Check that the bot has the permissions it needs in this channel."
	PageBounds         = "Page must be a number between %d and %d."
	PageFooter         = "Page %d of %d"
	PageNotNumber      = "Page must be a number."
	ReactionsForbidden = "I can't add reactions here, type your choice instead."

	Pong              = "Pong! Gateway latency: %s"
	HelpTitle         = "Commands"
	HelpCategory      = "%s commands"
	PrefixCurrent     = "Current prefix is `%s`."
	PrefixSet         = "Prefix set to `%s`."
	PrefixConfirm     = "Reset the prefix to `%s`? React ✅ or ❌, or type yes or no."
	PrefixResetDone   = "Prefix reset to `%s`."
	Cancelled         = "Cancelled."
	LocaleCurrent     = "Current language is `%s`. Available: %s"
	LocaleSet         = "Language set to `%s`."
	LocaleUnknown     = "Unknown language `%s`. Available: %s"
	RoleGranted       = "Granted `%s` to %s."
	RoleRevoked       = "Revoked `%s` from %s."
	RoleUnknown       = "Unknown role `%s`. Use admin or moderator."
	HistoryTitle      = "Recent commands"
	HistoryEmpty      = "No commands recorded yet."
	RankTitle         = "%s leaderboard"
	RankEmpty         = "Nobody is ranked in `%s` yet."
	RankUnknown       = "Unknown category `%s`. Try one of: %s"
	RankUsersNotFound = "None of the requested players are ranked in `%s`."
)
