package stream

import (
	"context"

	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"
)

// Lifecycle states of one parse.
const (
	Fresh     = "fresh"
	Running   = "running"
	Completed = "completed"
	Aborted   = "aborted"
	Failed    = "failed"
)

var (
	// The lifecycle events act as transitions in our state machine.
	Begin  = "begin"
	Finish = "finish"
	Abort  = "abort"
	Fail   = "fail"

	// The transitions. Finish, Abort and Fail accept Fresh so that
	// degenerate inputs (no chunk ever fed) still terminate cleanly.
	transitions = fsm.Events{
		{Name: Begin, Src: []string{Fresh}, Dst: Running},
		{Name: Finish, Src: []string{Fresh, Running}, Dst: Completed},
		{Name: Abort, Src: []string{Fresh, Running}, Dst: Aborted},
		{Name: Fail, Src: []string{Fresh, Running}, Dst: Failed},
	}
)

func newMachine(s *Streamer) *fsm.FSM {
	return fsm.NewFSM(Fresh, transitions, newCallbacks(s))
}

// The terminal callbacks dispatch the user's complete/error hooks;
// routing them through the machine is what guarantees they fire at
// most once per parse.
func newCallbacks(s *Streamer) fsm.Callbacks {
	return fsm.Callbacks{
		Begin: func(_ context.Context, e *fsm.Event) {
			log.WithField("parse", s.id).Debug("parse started")
		},
		Finish: func(_ context.Context, e *fsm.Event) {
			log.WithFields(log.Fields{
				"parse":  s.id,
				"rows":   s.rowCount,
				"cursor": s.meta.Cursor,
			}).Debug("parse completed")

			s.dispatchComplete()
		},
		Abort: func(_ context.Context, e *fsm.Event) {
			log.WithField("parse", s.id).Debug("parse aborted")

			s.dispatchComplete()
		},
		Fail: func(_ context.Context, e *fsm.Event) {
			err, _ := e.Args[0].(error)

			log.WithField("parse", s.id).WithError(err).Debug("parse failed")

			if s.cfg.Error != nil {
				s.cfg.Error(err)
			}
		},
	}
}
