package shell

import (
	"strings"

	"github.com/diamondburned/mirage/internal/durafmt"
	"github.com/diamondburned/mirage/internal/media"
	"github.com/pkg/errors"
)

func (sh *Shell) playlist(args []string) error {
	if len(args) == 0 {
		return sh.invoke(sh.printPlaylists)
	}

	sub, args := args[0], args[1:]

	switch sub {
	case "new":
		if len(args) == 0 {
			return errors.New("usage: pl new <name>")
		}
		name := strings.Join(args, " ")
		return sh.invoke(func() {
			pl := sh.state.CreatePlaylist(name)
			sh.printf("created %s\n", pl.Name)
		})

	case "add", "rm":
		if len(args) != 2 {
			return errors.Errorf("usage: pl %s <playlist> <file>", sub)
		}
		return sh.withPlaylist(args[0], func(pl *media.Playlist) error {
			item := sh.findFile(args[1])
			if item == nil {
				return errors.Errorf("no file %q", args[1])
			}

			if sub == "add" {
				sh.state.AddToPlaylist(pl.ID, item.ID)
			} else {
				sh.state.RemoveFromPlaylist(pl.ID, item.ID)
			}

			sh.printf("%s has %d item(s)\n", pl.Name, len(pl.Items))
			return nil
		})

	case "del":
		if len(args) != 1 {
			return errors.New("usage: pl del <playlist>")
		}
		return sh.withPlaylist(args[0], func(pl *media.Playlist) error {
			sh.state.DeletePlaylist(pl.ID)
			sh.printf("deleted %s\n", pl.Name)
			return nil
		})

	case "rename":
		if len(args) < 2 {
			return errors.New("usage: pl rename <playlist> <name>")
		}
		return sh.withPlaylist(args[0], func(pl *media.Playlist) error {
			sh.state.RenamePlaylist(pl.ID, strings.Join(args[1:], " "))
			sh.printf("renamed to %s\n", pl.Name)
			return nil
		})

	case "show":
		if len(args) != 1 {
			return errors.New("usage: pl show <playlist>")
		}
		return sh.withPlaylist(args[0], func(pl *media.Playlist) error {
			sh.printf("%s (%s)\n", pl.Name, durafmt.Seconds(pl.Duration()))
			sh.printItems(pl.Items)
			return nil
		})

	case "export":
		if len(args) != 2 {
			return errors.New("usage: pl export <playlist> <path>")
		}
		path := args[1]
		return sh.withPlaylist(args[0], func(pl *media.Playlist) error {
			name := pl.Name
			sh.state.ExportPlaylist(pl.ID, path, func(err error) {
				sh.loop.IdleAdd(func() {
					if err != nil {
						sh.printf("cannot export %s: %v\n", name, err)
					} else {
						sh.printf("exported %s to %s\n", name, path)
					}
				})
			})
			return nil
		})

	case "import":
		if len(args) != 1 {
			return errors.New("usage: pl import <path>")
		}
		var err error
		ierr := sh.invoke(func() {
			var pl *media.Playlist
			pl, err = sh.state.ImportPlaylist(args[0])
			if err == nil {
				sh.printf("imported %s with %d item(s)\n", pl.Name, len(pl.Items))
			}
		})
		if ierr != nil {
			return ierr
		}
		return err

	default:
		return errors.Errorf("unknown playlist command %q", sub)
	}
}

func (sh *Shell) printPlaylists() {
	playlists := sh.state.Playlists()
	if len(playlists) == 0 {
		sh.printf("no playlists\n")
		return
	}

	for i, pl := range playlists {
		sh.printf("%3d  %-30s %3d item(s)  %s\n",
			i+1, pl.Name, len(pl.Items), durafmt.Seconds(pl.Duration()))
	}
}

func (sh *Shell) withPlaylist(ref string, fn func(*media.Playlist) error) error {
	var err error
	ierr := sh.invoke(func() {
		pl := sh.findPlaylist(ref)
		if pl == nil {
			err = errors.Errorf("no playlist %q", ref)
			return
		}
		err = fn(pl)
	})
	if ierr != nil {
		return ierr
	}
	return err
}
