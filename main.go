package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diamondburned/mirage/internal/config"
	"github.com/diamondburned/mirage/internal/mainloop"
	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/mpris"
	"github.com/diamondburned/mirage/internal/muse"
	"github.com/diamondburned/mirage/internal/muse/metadata"
	"github.com/diamondburned/mirage/internal/muse/metadata/ffmpeg"
	"github.com/diamondburned/mirage/internal/prober"
	"github.com/diamondburned/mirage/internal/remote"
	"github.com/diamondburned/mirage/internal/shell"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

// saveInterval is how often unsaved changes are written.
const saveInterval = 15 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalln("Failed to load config:", err)
	}

	fs := afero.NewOsFs()

	logFile, err := config.SetupLog(fs, cfg)
	if err != nil {
		log.Fatalln("Failed to set up logging:", err)
	}
	defer logFile.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, fs, cfg); err != nil {
		log.Errorln(err)
		logFile.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, fs afero.Fs, cfg *config.Config) error {
	st, err := state.ReadFromFile(fs, cfg.StateFile())
	if err != nil {
		return errors.Wrap(err, "failed to restore state")
	}

	loop := mainloop.New()

	audio, err := muse.NewSession(muse.Options{
		Name:    "audio",
		Binary:  cfg.Mpv,
		IdleAdd: loop.IdleAdd,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create mpv session")
	}
	defer audio.Stop()

	audio.SetHandler(st.BackendEvents(media.Audio))
	// Start is non-blocking; events are queued onto the loop.
	audio.Start()
	st.UseAudio(audio)

	hub := remote.NewHub()

	switch cfg.VideoBackend {
	case config.VideoMpv:
		video, err := muse.NewSession(muse.Options{
			Name:    "video",
			Binary:  cfg.Mpv,
			Video:   true,
			IdleAdd: loop.IdleAdd,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create mpv video session")
		}
		defer video.Stop()

		video.SetHandler(st.BackendEvents(media.Video))
		video.Start()
		st.UseVideo(muse.NewVideoPlayer(video))

	case config.VideoRemote:
		st.UseVideo(hub)
	}

	defer ffmpeg.StopAll()

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()

	probe := prober.New(loopCtx, loop.IdleAdd, metadata.Options{
		CoverDir: cfg.CoverDir(),
		NewID:    uuid.NewString,
	}, cfg.ProbeJobs)

	if cfg.MPRIS {
		conn, err := mpris.New(st, loop.IdleAdd)
		if err != nil {
			log.Warnln("MPRIS is unavailable:", err)
		} else {
			defer conn.Close()
			st.OnUpdate(conn.Update)
		}
	}

	if cfg.Listen != "" {
		srv := remote.New(st, loop, hub, probe)
		st.OnUpdate(srv.Update)

		go func() {
			if err := srv.ListenAndServe(loopCtx, cfg.Listen); err != nil {
				log.Errorln("Remote stopped:", err)
			}
		}()
	}

	go saveEvery(loopCtx, loop, st)

	loopDone := make(chan struct{})
	go func() {
		loop.Run(loopCtx)
		close(loopDone)
	}()

	if cfg.Shell {
		sh := shell.New(st, loop, probe, os.Stdout)
		if err := sh.Run(loopCtx); err != nil {
			log.Errorln("Shell failed:", err)
		}
	} else {
		<-loopCtx.Done()
	}

	stopLoop()
	<-loopDone

	// The loop is stopped, so the state is ours now.
	if err := st.SaveAll(); err != nil {
		return errors.Wrap(err, "failed to save state")
	}

	return nil
}

func saveEvery(ctx context.Context, loop *mainloop.Loop, st *state.State) {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loop.IdleAdd(func() {
				st.SaveState(func(err error) {
					if err != nil {
						log.Errorln("Failed to save state:", err)
					}
				})
			})
		}
	}
}
