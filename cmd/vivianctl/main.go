// Command vivianctl is a thin demonstration CLI driving the façade
// against an in-process virtual device. It exists to exercise vivian.Client
// end to end without a real BLE peripheral, in the spirit of
// cmd/sdo_client's "wire the stack, issue a few calls, print the result."
// It is not the full CLI surface spec.md §1 calls out of scope.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/viiiiva/vivian/clock"
	"github.com/viiiiva/vivian/vivian"
)

func main() {
	debug := flag.Bool("debug", false, "enable verbose logging and the engine re-entrancy assertion")
	op := flag.String("op", "directory", "operation to run: directory, file, erase, settime")
	index := flag.Uint("index", 1, "directory index for file/erase operations")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	device := vivian.NewStaticDevice(clock.ToPosix(0x78563412))
	seedDevice(device)

	transport := vivian.NewVirtualTransport(device, logger)
	client := vivian.NewClient(transport, printEvent, vivian.WithLogger(logger), vivian.WithDebug(*debug))

	switch *op {
	case "directory":
		client.DownloadDirectory()
	case "file":
		client.DownloadFile(uint16(*index))
	case "erase":
		client.EraseFile(uint16(*index))
	case "settime":
		client.SetTimeAt(time.Now())
	default:
		fmt.Fprintf(os.Stderr, "unknown -op %q\n", *op)
		os.Exit(1)
	}
	transport.Pump(client)
}

func seedDevice(device *vivian.StaticDevice) {
	device.Files[1] = []byte("synthetic fit file contents for index 1")
}

func printEvent(ev vivian.Event) {
	switch ev.Kind {
	case vivian.EventError:
		fmt.Printf("error: %s: %s\n", ev.ErrorKind, ev.ErrorMessage)
	case vivian.EventParseClock:
		fmt.Printf("directory clock: %s\n", time.Unix(ev.ClockPosix, 0).UTC())
	case vivian.EventParseDirectoryEntry:
		fmt.Printf("entry: index=%04x type=%s length=%d time=%s\n",
			ev.Entry.Index, ev.Entry.FileType, ev.Entry.Length, time.Unix(ev.Entry.Time, 0).UTC())
	case vivian.EventFinishParsingDirectory:
		fmt.Println("directory listing complete")
	case vivian.EventDownloadFile:
		fmt.Printf("downloaded %d bytes for index %04x\n", len(ev.FileData), ev.FileIndex)
	case vivian.EventEraseFile:
		fmt.Printf("erase index %04x: success=%v\n", ev.EraseIndex, ev.EraseSuccess)
	case vivian.EventSetTime:
		fmt.Printf("set_time: success=%v\n", ev.SetTimeOK)
	}
}
