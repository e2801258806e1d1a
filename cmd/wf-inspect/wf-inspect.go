package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/cbeuw/wireframe/internal/wire"
	log "github.com/sirupsen/logrus"
)

var version string

func tagByName(name string) (wire.Tag, error) {
	switch strings.ToLower(name) {
	case "data":
		return wire.TagData, nil
	case "windowupdate":
		return wire.TagWindowUpdate, nil
	case "ping":
		return wire.TagPing, nil
	case "goaway":
		return wire.TagGoAway, nil
	}
	return 0, fmt.Errorf("unknown tag %v", name)
}

func main() {
	var hexInput string
	var filePath string
	var retag string
	var verbosity string

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	flag.StringVar(&hexInput, "x", "", "hex encoded frame bytes, spaces allowed")
	flag.StringVar(&filePath, "f", "", "path to a file containing raw frame bytes")
	flag.StringVar(&retag, "retag", "", "rewrite the frame's tag in place (Data, WindowUpdate, Ping or GoAway) and print the mutated bytes")
	askVersion := flag.Bool("v", false, "Print the version number")
	flag.StringVar(&verbosity, "verbosity", "info", "verbosity level")
	flag.Parse()

	if *askVersion {
		fmt.Printf("wf-inspect %s\n", version)
		return
	}
	lvl, err := log.ParseLevel(verbosity)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(lvl)

	var buf []byte
	switch {
	case hexInput != "":
		buf, err = hex.DecodeString(strings.ReplaceAll(hexInput, " ", ""))
		if err != nil {
			log.Fatalf("bad hex input: %v", err)
		}
	case filePath != "":
		buf, err = ioutil.ReadFile(filePath)
		if err != nil {
			log.Fatalf("failed to read %v: %v", filePath, err)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}

	frame, err := wire.ParseMut(buf)
	if err != nil {
		if err == wire.ErrShortBuffer {
			log.Fatalf("input is %v bytes, shorter than a %v byte header: need more bytes", len(buf), wire.HEADER_LEN)
		}
		log.Fatalf("frame is corrupt: %v", err)
	}

	fmt.Printf("version:   %d\n", frame.Version())
	fmt.Printf("tag:       %v\n", frame.Tag())
	fmt.Printf("flags:     %#04x\n", frame.Flags())
	fmt.Printf("stream id: %d\n", frame.StreamID())
	fmt.Printf("length:    %d declared, %d present\n", frame.Length(), len(frame.Body()))
	fmt.Printf("body:      %x\n", frame.Body())

	if retag != "" {
		tag, err := tagByName(retag)
		if err != nil {
			log.Fatal(err)
		}
		frame.SetTag(tag)
		fmt.Printf("retagged:  %x\n", buf)
	}
}
