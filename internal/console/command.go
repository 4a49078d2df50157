package console

import (
	"fmt"
	"strings"
)

type CommandKind int

const (
	// CommandSend is plain input to forward to the agent.
	CommandSend CommandKind = iota
	CommandModels
	CommandSetModel
	CommandSave
	CommandReconnect
	CommandExit
	CommandHelp
)

type Command struct {
	Kind  CommandKind
	Text  string
	Field string
	Model string
	Path  string
}

const helpText = `Commands:
  /models                 show the model selection and available models
  /model <field> <name>   set the model for one request field
  /save <file>            write an HTML transcript
  /reconnect              reconnect to the agent backend (also Ctrl+R)
  /exit                   quit
Any other input is sent to the agent.`

// ParseCommand classifies one line of user input. Lines that do not start
// with "/" are messages for the agent.
func ParseCommand(input string) (Command, error) {
	text := strings.TrimSpace(input)
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: CommandSend, Text: text}, nil
	}
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	args := fields[1:]
	switch name {
	case "/models":
		return Command{Kind: CommandModels}, nil
	case "/model":
		if len(args) != 2 {
			return Command{}, fmt.Errorf("usage: /model <field> <name>")
		}
		return Command{Kind: CommandSetModel, Field: args[0], Model: args[1]}, nil
	case "/save":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("usage: /save <file>")
		}
		return Command{Kind: CommandSave, Path: strings.TrimSpace(strings.TrimPrefix(text, fields[0]))}, nil
	case "/reconnect":
		return Command{Kind: CommandReconnect}, nil
	case "/exit", "/quit":
		return Command{Kind: CommandExit}, nil
	case "/help", "/?":
		return Command{Kind: CommandHelp}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}
