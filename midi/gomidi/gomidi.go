// package gomidi listens to MIDI input ports through rtmidi.
package gomidi

import (
	"context"
	"errors"
	"fmt"

	gm "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/pfcm/synth/midi"
)

// ErrNoPorts is returned when there are no MIDI inputs at all.
var ErrNoPorts = errors.New("no midi input ports")

// Ports lists the names of the MIDI inputs.
func Ports() []string {
	var names []string
	for _, in := range gm.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Open finds the input whose name contains name, or the first input if name
// is empty.
func Open(name string) (drivers.In, error) {
	if len(gm.GetInPorts()) == 0 {
		return nil, ErrNoPorts
	}
	if name == "" {
		return gm.InPort(0)
	}
	in, err := gm.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("midi input %q: %w", name, err)
	}
	return in, nil
}

// Listener returns a midi.Listener reading channel voice messages from the
// input called name. System messages are dropped.
func Listener(name string) midi.Listener {
	return func(ctx context.Context, f func([]uint32)) error {
		in, err := Open(name)
		if err != nil {
			return err
		}
		failed := make(chan error, 1)
		stop, err := gm.ListenTo(in, func(msg gm.Message, _ int32) {
			if w, ok := midi.FromBytes([]byte(msg)); ok {
				f([]uint32{w})
			}
		}, gm.HandleError(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}))
		if err != nil {
			return fmt.Errorf("listening to %v: %w", in, err)
		}
		defer stop()
		select {
		case <-ctx.Done():
			return nil
		case err := <-failed:
			return fmt.Errorf("%v: %w", in, err)
		}
	}
}

// Close shuts the driver down.
func Close() { gm.CloseDriver() }
