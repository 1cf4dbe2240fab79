// Package shell is an interactive terminal front-end for the coordinator.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/diamondburned/mirage/internal/prober"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/pkg/errors"
)

// ErrQuit is returned by Exec when the user asked to quit.
var ErrQuit = errors.New("quit")

// Loop runs functions on the goroutine that owns the state.
type Loop interface {
	IdleAdd(fn func())
	Invoke(ctx context.Context, fn func()) error
}

// Shell runs commands against the state.
type Shell struct {
	state  *state.State
	loop   Loop
	prober *prober.Prober
	out    io.Writer
}

// New creates a shell that prints into out. The prober may be nil, in which
// case local files are added without probing.
func New(s *state.State, loop Loop, p *prober.Prober, out io.Writer) *Shell {
	return &Shell{
		state:  s,
		loop:   loop,
		prober: p,
		out:    out,
	}
}

type command struct {
	usage string
	help  string
	run   func(sh *Shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {"help", "show this help", (*Shell).help},
		"quit":   {"quit", "save and quit", func(*Shell, []string) error { return ErrQuit }},
		"ls":     {"ls [search]", "list the library", (*Shell).list},
		"add":    {"add <path|url>...", "add files to the library", (*Shell).add},
		"rm":     {"rm <file>", "remove a file from the library", (*Shell).remove},
		"play":   {"play <file>", "play a file", (*Shell).play},
		"pause":  {"pause", "pause playback", simple((*state.State).PausePlayback)},
		"resume": {"resume", "resume playback", simple((*state.State).ResumePlayback)},
		"toggle": {"toggle", "pause or resume playback", simple((*state.State).TogglePlayback)},
		"next":   {"next", "play the next file", simple((*state.State).NextTrack)},
		"prev":   {"prev", "play the previous file", simple((*state.State).PreviousTrack)},
		"seek":   {"seek <[+-]seconds>", "seek to or by a position", (*Shell).seek},
		"vol":    {"vol <0-100>", "set the volume", (*Shell).volume},
		"mute":   {"mute", "mute or unmute", (*Shell).mute},
		"repeat": {"repeat [none|all|single]", "set or cycle the repeat mode", (*Shell).repeat},
		"fav":    {"fav [file]", "list favorites or toggle one", (*Shell).favorite},
		"pl":     {"pl [new|add|rm|del|rename|show|export|import] ...", "manage playlists", (*Shell).playlist},
		"status": {"status", "show what is playing", (*Shell).status},
		"stats":  {"stats", "show library statistics", (*Shell).stats},
		"save":   {"save", "save the library now", (*Shell).save},
	}
}

func simple(fn func(*state.State)) func(*Shell, []string) error {
	return func(sh *Shell, args []string) error {
		if err := sh.invoke(func() { fn(sh.state) }); err != nil {
			return err
		}
		return sh.status(nil)
	}
}

func (sh *Shell) invoke(fn func()) error {
	return sh.loop.Invoke(context.Background(), fn)
}

func (sh *Shell) printf(f string, v ...interface{}) {
	fmt.Fprintf(sh.out, f, v...)
}

// Exec runs a single command line. It returns ErrQuit if the shell should
// exit.
func (sh *Shell) Exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return errors.Errorf("unknown command %q, try help", args[0])
	}

	return cmd.run(sh, args[1:])
}

// Run reads commands from the terminal until the user quits, the input ends or
// ctx is done.
func (sh *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mirage> ",
		HistoryFile:     filepath.Join(os.TempDir(), "mirage.history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return errors.Wrap(err, "failed to start readline")
	}
	defer rl.Close()

	sh.out = rl.Stdout()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF, interrupt or closed.
			return nil
		}

		if err := sh.Exec(line); err != nil {
			if err == ErrQuit {
				return nil
			}
			sh.printf("error: %v\n", err)
		}
	}
}

func completer() readline.AutoCompleter {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		switch name {
		case "add":
			items = append(items, readline.PcItem(name, readline.PcItemDynamic(listFiles)))
		case "repeat":
			items = append(items, readline.PcItem(name,
				readline.PcItem("none"), readline.PcItem("all"), readline.PcItem("single"),
			))
		case "pl":
			items = append(items, readline.PcItem(name,
				readline.PcItem("new"), readline.PcItem("add"), readline.PcItem("rm"),
				readline.PcItem("del"), readline.PcItem("rename"), readline.PcItem("show"),
				readline.PcItem("export"), readline.PcItem("import", readline.PcItemDynamic(listFiles)),
			))
		default:
			items = append(items, readline.PcItem(name))
		}
	}

	return readline.NewPrefixCompleter(items...)
}

// listFiles completes the last word of the line as a path.
func listFiles(line string) []string {
	fields := strings.Fields(line)
	var prefix string
	if len(fields) > 0 && !strings.HasSuffix(line, " ") {
		prefix = fields[len(fields)-1]
	}

	dir := filepath.Dir(prefix)
	if prefix == "" {
		dir = "."
	}

	entries, _ := os.ReadDir(dir)

	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

func (sh *Shell) help(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		sh.printf("  %-50s %s\n", cmd.usage, cmd.help)
	}
	return nil
}
