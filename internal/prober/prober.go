// Package prober probes local files into media items on a small pool of
// background workers.
package prober

import (
	"context"
	"sync"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/metadata"
	log "github.com/sirupsen/logrus"
)

// Job is a file to probe. Done is called in the main loop with the result.
type Job struct {
	Path string
	Done func(*media.Item, error)
}

// DefaultJobs is quite arbitrary, but it should be fast enough on a local disk
// and doesn't clog much on a remote mount.
const DefaultJobs = 4

type probeFunc func(ctx context.Context, path string, opts metadata.Options) (*media.Item, error)

// Prober runs probe jobs. Workers are started when jobs are queued and stop
// once the queue is drained.
type Prober struct {
	ctx     context.Context
	idleAdd func(func())
	opts    metadata.Options
	maxJobs int
	probe   probeFunc

	// Variables needed for dynamically scaling workers.
	runningMut sync.Mutex
	probeQueue chan Job
	queuers    int
}

// New creates a prober. Results are delivered through idleAdd. A jobs value
// below 1 uses DefaultJobs.
func New(ctx context.Context, idleAdd func(func()), opts metadata.Options, jobs int) *Prober {
	if jobs < 1 {
		jobs = DefaultJobs
	}

	return &Prober{
		ctx:     ctx,
		idleAdd: idleAdd,
		opts:    opts,
		maxJobs: jobs,
		probe:   metadata.Probe,
	}
}

func (p *Prober) ensureRunning() chan<- Job {
	p.runningMut.Lock()
	defer p.runningMut.Unlock()

	p.queuers++

	if p.probeQueue == nil {
		p.probeQueue = make(chan Job)
		p.startRunning(p.probeQueue)
	}

	return p.probeQueue
}

func (p *Prober) stopRunning() {
	p.runningMut.Lock()
	defer p.runningMut.Unlock()

	p.queuers--

	// Kill all current workers once nothing else is queueing.
	if p.queuers == 0 {
		close(p.probeQueue)
		p.probeQueue = nil
	}
}

func (p *Prober) startRunning(queue <-chan Job) {
	for i := 0; i < p.maxJobs; i++ {
		go func() {
			for job := range queue {
				job := job // copy for IdleAdd

				item, err := p.probe(p.ctx, job.Path, p.opts)
				if err != nil {
					log.WithError(err).WithField("path", job.Path).Warnln("Failed to probe")
				}

				if job.Done != nil {
					p.idleAdd(func() { job.Done(item, err) })
				}
			}
		}()
	}
}

// Queue queues multiple jobs. It is thread-safe and non-blocking.
func (p *Prober) Queue(jobs ...Job) {
	if len(jobs) == 0 {
		return
	}

	queue := p.ensureRunning()

	go func() {
		defer p.stopRunning()

		for _, job := range jobs {
			queue <- job
		}
	}()
}
