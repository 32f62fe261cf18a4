package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Delivery reports the outcome of one broadcast.
type Delivery struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Broadcaster delivers rendered events to every member of a room.
type Broadcaster struct {
	registry     *Registry
	log          *zerolog.Logger
	writeTimeout time.Duration
	concurrency  int
}

// NewBroadcaster creates a broadcaster over registry. writeTimeout bounds each
// delivery (zero means unbounded); concurrency caps parallel deliveries per
// broadcast (zero or negative means no cap).
func NewBroadcaster(registry *Registry, logger *zerolog.Logger, writeTimeout time.Duration, concurrency int) *Broadcaster {
	if concurrency <= 0 {
		concurrency = -1
	}
	return &Broadcaster{
		registry:     registry,
		log:          logger,
		writeTimeout: writeTimeout,
		concurrency:  concurrency,
	}
}

// Broadcast sends ev to every connection in the room snapshot taken at call time.
// A failed delivery never stops the others and is never returned as an error.
// It returns once every delivery has finished, so a caller that broadcasts
// serially keeps its messages in order for each recipient.
func (b *Broadcaster) Broadcast(ctx context.Context, roomID RoomID, ev Event) Delivery {
	members := b.registry.Snapshot(roomID)
	d := Delivery{Recipients: len(members)}
	if len(members) == 0 {
		return d
	}

	line := ev.Render()
	var failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, c := range members {
		g.Go(func() error {
			if err := b.deliver(ctx, c, line); err != nil {
				failed.Add(1)
				b.log.Debug().
					Err(err).
					Str("conn_id", c.ID()).
					Int64("room_id", int64(roomID)).
					Stringer("event", ev.Kind).
					Msg("broadcast delivery failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	d.Failed = int(failed.Load())
	d.Delivered = d.Recipients - d.Failed
	return d
}

func (b *Broadcaster) deliver(ctx context.Context, c Conn, line string) error {
	if b.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.writeTimeout)
		defer cancel()
	}
	return c.Send(ctx, line)
}
