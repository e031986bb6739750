/*
Package wire-server is a from-scratch HTTP/1.1 server toolkit built directly
on sockets, with regex routing, declarative parameter binding and
process-based worker channels.

Wire-Server deliberately avoids net/http: requests are parsed from raw bytes,
responses are assembled as wire text, and connections are read through one of
three interchangeable strategies.

Features

  - Hand-rolled HTTP/1.1 parsing: start line, headers, cookies, query
    strings, urlencoded/JSON/multipart bodies
  - Regex routing with named captures (/users/:id style patterns)
  - Two handler shapes: plain functions and per-request view objects
    dispatched by HTTP verb, with template fallbacks
  - Declarative parameter coercion (string/int/float/bool)
  - Three connection strategies: poller loop (epoll/kqueue), goroutine per
    connection, and per-connection reader processes
  - Worker channels: framed gob/JSON/protobuf messaging with spawned
    subprocesses, plus a keyed pool over them
  - Per-route request metrics

Quick Start

Basic usage example:

	package main

	import (
	    "log"

	    "github.com/searchktools/wire-server/app"
	    "github.com/searchktools/wire-server/config"
	    "github.com/searchktools/wire-server/core/dispatch"
	    "github.com/searchktools/wire-server/core/http"
	    "github.com/searchktools/wire-server/core/server"
	    "github.com/searchktools/wire-server/core/workers"
	)

	func main() {
	    if workers.RunChild(server.Entries()) {
	        return
	    }

	    a := app.New(config.New())

	    a.Handle("/hello/:name", dispatch.NewFunc(
	        func(req *http.Request, args dispatch.Args) (any, error) {
	            return "hello " + args.String("name"), nil
	        },
	        dispatch.P("name", dispatch.String),
	    ))

	    if err := a.Run(); err != nil {
	        log.Fatal(err)
	    }
	}

Architecture

The repository is organized as:

	config/               Flag-based configuration
	app/                  Application lifecycle and serve loop
	core/http/            Request parsing and response encoding
	core/router/          Pattern compilation and the routing table
	core/dispatch/        Handler invocation and result normalization
	core/server/          Connection sources (poll, async, offload)
	core/poller/          epoll/kqueue readiness wrappers
	core/workers/         Process channels, codecs, pools
	core/pools/           Buffer pooling
	core/observability/   Route metrics
	core/units/           Size and duration constants
	procs/                Process listing and termination helpers
	cmd/hotreload/        File-watching process restarter
*/
package wireserver
