package handlers

import (
	"strings"
)

// parseCommand returns the bot command in text, without any @botname
// suffix or arguments. ok is false when text is not a command.
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", false
	}
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	if len(cmd) < 2 {
		return "", false
	}
	return strings.ToLower(cmd), true
}
