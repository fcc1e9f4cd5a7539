// command midi checks that midi is working.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pfcm/synth/midi"
	"github.com/pfcm/synth/midi/gomidi"
)

var (
	portFlag = flag.String("port", "", "input port to listen to, the first one if empty")
	listFlag = flag.Bool("list", false, "list the input ports and exit")
)

func main() {
	flag.Parse()
	defer gomidi.Close()

	if *listFlag {
		for i, p := range gomidi.Ports() {
			fmt.Printf("%d: %s\n", i, p)
		}
		return
	}

	ctx := interruptContext()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	d := midi.Listen(ctx, gomidi.Listener(*portFlag), logger)
	for m := range d.Subscribe() {
		fmt.Println(m)
	}
	if err := d.Wait(); err != nil {
		log.Fatal(err)
	}
	if n := d.Dropped(); n > 0 {
		log.Printf("dropped %d messages", n)
	}
	log.Println("all done")
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
