package shell

import (
	"os"
	"strconv"
	"strings"

	"github.com/diamondburned/mirage/internal/durafmt"
	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/diamondburned/mirage/internal/prober"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/diamondburned/mirage/internal/stats"
	"github.com/pkg/errors"
)

// Commands are run outside the main loop; everything touching the state goes
// through invoke.

// findFile resolves a 1-based library index or an item ID.
func (sh *Shell) findFile(ref string) *media.Item {
	lib := sh.state.Library()

	if n, err := strconv.Atoi(ref); err == nil {
		return lib.At(n - 1)
	}

	item, _ := lib.Get(ref)
	return item
}

// findPlaylist resolves a 1-based playlist index, an ID or a name.
func (sh *Shell) findPlaylist(ref string) *media.Playlist {
	playlists := sh.state.Playlists()

	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(playlists) {
			return playlists[n-1]
		}
		return nil
	}

	if pl, ok := sh.state.Playlist(ref); ok {
		return pl
	}
	if pl, ok := sh.state.PlaylistByName(ref); ok {
		return pl
	}
	return nil
}

func (sh *Shell) printItems(items []*media.Item) {
	_, current := sh.state.NowPlaying()
	lib := sh.state.Library()

	for _, item := range items {
		mark := " "
		if current != nil && current.ID == item.ID {
			mark = ">"
		}

		fav := " "
		if sh.state.IsFavorite(item.ID) {
			fav = "*"
		}

		title := item.Title
		if item.Artist != "" {
			title = item.Artist + " - " + title
		}

		duration := durafmt.Unknown
		if item.Duration > 0 {
			duration = durafmt.Seconds(item.Duration)
		}

		sh.printf("%s%s %3d  %-5s  %8s  %s\n",
			mark, fav, lib.Index(item.ID)+1, item.Type, duration, title)
	}
}

func (sh *Shell) list(args []string) error {
	return sh.invoke(func() {
		lib := sh.state.Library()

		var items []*media.Item
		if len(args) > 0 {
			items = lib.Search(strings.Join(args, " "))
		} else {
			items = lib.Items()
		}

		if len(items) == 0 {
			sh.printf("nothing found\n")
			return
		}

		sh.printItems(items)
	})
}

func (sh *Shell) add(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <path|url>...")
	}

	var jobs []prober.Job

	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil && sh.prober != nil {
			path := arg
			jobs = append(jobs, prober.Job{
				Path: path,
				Done: func(item *media.Item, err error) {
					if err != nil {
						sh.printf("cannot add %s: %v\n", path, err)
						return
					}
					if sh.state.AddFile(item) {
						sh.printf("added %s\n", item.Title)
					}
				},
			})
			continue
		}

		url := arg
		err := sh.invoke(func() {
			item := &media.Item{
				ID:    sh.state.NewID(),
				Title: playlist.TitleFromPath(url),
				URL:   url,
				Type:  media.TypeFromPath(url),
			}
			if sh.state.AddFile(item) {
				sh.printf("added %s\n", item.Title)
			}
		})
		if err != nil {
			return err
		}
	}

	if len(jobs) > 0 {
		sh.printf("probing %d file(s)\n", len(jobs))
		sh.prober.Queue(jobs...)
	}

	return nil
}

func (sh *Shell) withFile(args []string, fn func(*media.Item)) error {
	if len(args) != 1 {
		return errors.New("expected one file")
	}

	var found bool
	err := sh.invoke(func() {
		if item := sh.findFile(args[0]); item != nil {
			found = true
			fn(item)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("no file %q", args[0])
	}
	return nil
}

func (sh *Shell) remove(args []string) error {
	return sh.withFile(args, func(item *media.Item) {
		sh.state.RemoveFile(item.ID)
		sh.printf("removed %s\n", item.Title)
	})
}

func (sh *Shell) play(args []string) error {
	err := sh.withFile(args, func(item *media.Item) {
		sh.state.PlayFile(item)
	})
	if err != nil {
		return err
	}
	return sh.status(nil)
}

func (sh *Shell) seek(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: seek <[+-]seconds>")
	}

	arg := args[0]
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")

	secs, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return errors.Wrap(err, "invalid position")
	}

	return sh.invoke(func() {
		if relative {
			secs += sh.state.Session().Position
		}
		sh.state.SeekTo(secs)
		sh.printStatus()
	})
}

func (sh *Shell) volume(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: vol <0-100>")
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
	if err != nil {
		return errors.Wrap(err, "invalid volume")
	}

	return sh.invoke(func() {
		sh.state.SetVolume(v / 100)
		sh.printf("volume %.0f%%\n", sh.state.Session().Volume*100)
	})
}

func (sh *Shell) mute(args []string) error {
	return sh.invoke(func() {
		muted := !sh.state.Session().Muted
		sh.state.SetMuted(muted)

		if muted {
			sh.printf("muted\n")
		} else {
			sh.printf("unmuted\n")
		}
	})
}

func (sh *Shell) repeat(args []string) error {
	var mode state.RepeatMode
	var err error

	if len(args) > 0 {
		mode, err = state.ParseRepeatMode(args[0])
		if err != nil {
			return err
		}
	}

	return sh.invoke(func() {
		if len(args) == 0 {
			mode = sh.state.RepeatMode().Cycle()
		}
		sh.state.SetRepeatMode(mode)
		sh.printf("repeat %s\n", mode)
	})
}

func (sh *Shell) favorite(args []string) error {
	if len(args) == 0 {
		return sh.invoke(func() {
			favs := sh.state.Favorites()
			if len(favs) == 0 {
				sh.printf("no favorites\n")
				return
			}
			sh.printItems(favs)
		})
	}

	return sh.withFile(args, func(item *media.Item) {
		if sh.state.ToggleFavorite(item.ID) {
			sh.printf("marked %s\n", item.Title)
		} else {
			sh.printf("unmarked %s\n", item.Title)
		}
	})
}

func (sh *Shell) printStatus() {
	session := sh.state.Session()
	if session.IsEmpty() {
		sh.printf("nothing playing\n")
		return
	}

	verb := "paused"
	if session.Playing {
		verb = "playing"
	}

	volume := "muted"
	if !session.Muted {
		volume = strconv.Itoa(int(session.Volume*100+0.5)) + "%"
	}

	sh.printf("%s %s [%s] vol %s, repeat %s\n",
		verb, session.Item.Title,
		durafmt.Progress(session.Position, session.Duration),
		volume, sh.state.RepeatMode())
}

func (sh *Shell) status(args []string) error {
	return sh.invoke(sh.printStatus)
}

func (sh *Shell) stats(args []string) error {
	return sh.invoke(func() {
		sum := stats.Summarize(sh.state.Files())

		sh.printf("%d files (%d audio, %d video)\n", sum.Items, sum.Audio, sum.Video)
		sh.printf("total %s, mean %s\n",
			durafmt.Seconds(sum.TotalDuration), durafmt.Seconds(sum.MeanDuration))
		sh.printf("size %.1f MiB, mean %.1f MiB\n",
			float64(sum.TotalSize)/(1<<20), sum.MeanSize/(1<<20))
	})
}

func (sh *Shell) save(args []string) error {
	var err error
	if ierr := sh.invoke(func() { err = sh.state.SaveAll() }); ierr != nil {
		return ierr
	}
	if err != nil {
		return err
	}

	sh.printf("saved\n")
	return nil
}
