package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"

	"github.com/cbeuw/wireframe/internal/journal"
	"github.com/cbeuw/wireframe/internal/relay"
	"github.com/cbeuw/wireframe/internal/wire"
	log "github.com/sirupsen/logrus"
)

var version string

func main() {
	var bindAddr string
	var wsMode bool
	var dbPath string
	var apiAddr string
	var fwdAddr string
	var rxRate, txRate int64
	var verbosity string

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	flag.StringVar(&bindAddr, "b", ":7785", "ip:port to listen on for framed connections")
	flag.BoolVar(&wsMode, "ws", false, "accept frames over websocket instead of raw TCP")
	flag.StringVar(&dbPath, "db", "journal.db", "path to the stream journal database")
	flag.StringVar(&apiAddr, "api", "", "ip:port to serve the journal API on, disabled when empty")
	flag.StringVar(&fwdAddr, "fwd", "", "ip:port to forward data frame payloads to, discarded when empty")
	flag.Int64Var(&rxRate, "rx", 0, "receive rate limit in bytes per second, 0 for unlimited")
	flag.Int64Var(&txRate, "tx", 0, "transmit rate limit in bytes per second, 0 for unlimited")
	askVersion := flag.Bool("v", false, "Print the version number")
	flag.StringVar(&verbosity, "verbosity", "info", "verbosity level")
	flag.Parse()

	if *askVersion {
		fmt.Printf("wf-relay %s\n", version)
		return
	}
	lvl, err := log.ParseLevel(verbosity)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(lvl)

	j, err := journal.MakeJournal(dbPath)
	if err != nil {
		log.Fatalf("failed to open journal %v: %v", dbPath, err)
	}
	defer j.Close()

	valve := wire.UnlimitedValve()
	if rxRate > 0 {
		valve.SetRxRate(rxRate)
	}
	if txRate > 0 {
		valve.SetTxRate(txRate)
	}

	conf := &relay.Config{
		Journal: j,
		Valve:   valve,
	}
	if fwdAddr != "" {
		sink, err := net.Dial("tcp", fwdAddr)
		if err != nil {
			log.Fatalf("failed to connect to forward address %v: %v", fwdAddr, err)
		}
		conf.Sink = sink
	}

	if apiAddr != "" {
		go func() {
			log.Error(http.ListenAndServe(apiAddr, journal.APIRouterOf(j)))
		}()
		log.Infof("journal API listening on %v", apiAddr)
	}

	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("relay listening on %v", bindAddr)
	if wsMode {
		log.Fatal(relay.ServeWebSocket(listener, conf))
	} else {
		relay.Serve(listener, conf)
	}
}
