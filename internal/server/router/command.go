package router

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// ArgKind describes what a command accepts after its name.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgInt64
)

type CommandSpec struct {
	Name        string
	Description string
	Args        ArgKind
}

// Command is a recognized command token.
type Command struct {
	Name string
	// Int is set for ArgInt64 commands.
	Int int64
}

// Public commands, available to everybody.
const (
	CmdStart      = "start"
	CmdHelp       = "help"
	CmdMyID       = "myid"
	CmdMaintainer = "maintainer"
	CmdStars      = "stars"
)

// Maintainer-only commands.
const (
	CmdGetGroup = "getgroup"
	CmdSetGroup = "setgroup"
	CmdTestMsg  = "testmsg"
)

var PublicCommands = []CommandSpec{
	{Name: CmdStart, Description: "Начало работы"},
	{Name: CmdHelp, Description: "Эта подсказка"},
	{Name: CmdMyID, Description: "Узнать свой UserId"},
	{Name: CmdMaintainer, Description: "Узнать UserId хозяина бота"},
	{Name: CmdStars, Description: "Сколько у меня ⭐️"},
}

var MaintainerCommands = []CommandSpec{
	{Name: CmdGetGroup, Description: "Show chat id of currently assigned group"},
	{Name: CmdSetGroup, Description: "Assign new group", Args: ArgInt64},
	{Name: CmdTestMsg, Description: "Send a test message to a target group"},
}

// Reply keyboard labels. Pressing StarsButton sends its text, which is
// treated as /stars.
const (
	GiveStarButton = "Вручить ⭐️"
	StarsButton    = "Мои ⭐️"
)

var aliases = map[string]string{
	StarsButton: CmdStars,
}

// BotCommands converts specs to the list registered with setMyCommands.
func BotCommands(specs []CommandSpec) []telegram.BotCommand {
	out := make([]telegram.BotCommand, 0, len(specs))
	for _, s := range specs {
		out = append(out, telegram.BotCommand{Command: s.Name, Description: s.Description})
	}
	return out
}

// Descriptions renders specs as "/name - description" lines.
func Descriptions(specs []CommandSpec) string {
	var b strings.Builder
	for i, s := range specs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("/" + s.Name + " - " + s.Description)
	}
	return b.String()
}

// ParseCommand recognizes text as one of specs. The accepted syntax is
// "/name" or "/name@botUsername" followed by optional arguments after the
// first space; the name is case-insensitive. A mention of another bot, an
// unknown name or arguments that do not fit its CommandSpec yield ok=false.
func ParseCommand(text, botUsername string, specs []CommandSpec) (Command, bool) {
	if alias, ok := aliases[strings.TrimSpace(text)]; ok {
		text = "/" + alias
	}
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	token, args, _ := strings.Cut(text[1:], " ")
	args = strings.TrimSpace(args)

	name, mention, hasMention := strings.Cut(token, "@")
	if hasMention && botUsername != "" && !strings.EqualFold(mention, botUsername) {
		return Command{}, false
	}
	name = strings.ToLower(name)

	for _, s := range specs {
		if s.Name != name {
			continue
		}
		cmd := Command{Name: name}
		switch s.Args {
		case ArgNone:
			if args != "" {
				return Command{}, false
			}
		case ArgInt64:
			n, err := strconv.ParseInt(args, 10, 64)
			if err != nil {
				return Command{}, false
			}
			cmd.Int = n
		}
		return cmd, true
	}
	return Command{}, false
}
