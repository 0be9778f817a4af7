package core

import (
	"strconv"
	"strings"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandChat broadcasts a message to all other sessions.
	CommandChat CommandKind = iota
	// CommandPrivateMessage delivers a message to one named session.
	CommandPrivateMessage
	// CommandFileTransfer relays a binary payload to one named session.
	CommandFileTransfer
	// CommandQuery runs an entry of the read-only query catalog.
	CommandQuery
	// CommandExit terminates the session.
	CommandExit
)

// String returns the metric label for the command kind.
func (k CommandKind) String() string {
	switch k {
	case CommandChat:
		return "chat"
	case CommandPrivateMessage:
		return "pm"
	case CommandFileTransfer:
		return "file"
	case CommandQuery:
		return "query"
	case CommandExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Command represents one parsed request from a session. Constructed per
// input line, discarded after dispatch.
type Command struct {
	Kind     CommandKind
	Text     string // chat or private message body
	Target   string // recipient for pm and file
	Filename string
	Size     int64 // declared file payload size in bytes
	QueryID  int
	QueryArg string
	HasArg   bool
}

// Parse decodes one input line into a Command. Lines matching a known verb
// but not its shape produce an error; anything else is plain chat.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)

	if strings.EqualFold(trimmed, "exit") {
		return Command{Kind: CommandExit}, nil
	}

	switch {
	case strings.HasPrefix(trimmed, "/pm "):
		// Split on the first two spaces only; the message may contain spaces.
		parts := strings.SplitN(trimmed, " ", 3)
		if len(parts) < 3 || parts[1] == "" || strings.TrimSpace(parts[2]) == "" {
			return Command{}, ErrInvalidCommand
		}
		return Command{Kind: CommandPrivateMessage, Target: parts[1], Text: parts[2]}, nil

	case strings.HasPrefix(trimmed, "/file "):
		parts := strings.Fields(trimmed)
		if len(parts) != 4 {
			return Command{}, ErrInvalidCommand
		}
		size, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil || size < 0 {
			return Command{}, ErrInvalidCommand
		}
		return Command{Kind: CommandFileTransfer, Target: parts[1], Filename: parts[2], Size: size}, nil

	case strings.HasPrefix(trimmed, "/query "):
		parts := strings.Fields(trimmed)
		if len(parts) < 2 {
			return Command{}, ErrInvalidQuery
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return Command{}, ErrInvalidQuery
		}
		cmd := Command{Kind: CommandQuery, QueryID: id}
		if len(parts) >= 3 {
			cmd.QueryArg = parts[2]
			cmd.HasArg = true
		}
		return cmd, nil
	}

	return Command{Kind: CommandChat, Text: trimmed}, nil
}
