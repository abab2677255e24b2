// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// kadbootnode runs one in-process Kademlia node against a shared,
// in-memory address book, optionally seeding a handful of stand-in
// peers to bootstrap against, and drops the operator into an
// interactive prompt to poke at the resulting routing table. It is
// deliberately thin: a manual exercise harness, not a scripted
// multi-node scenario driver.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	wordwrap "github.com/mitchellh/go-wordwrap"
	"github.com/peterh/liner"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/eth-classic/kademlia/logger"
	"github.com/eth-classic/kademlia/p2p/discover"
)

// Version is the application revision identifier. It can be set with
// the linker as in: go build -ldflags "-X main.Version="`git describe --tags`
var Version = "unknown"

var (
	idFlag = cli.StringFlag{
		Name:  "id",
		Usage: "local node id, as hex (default: derived from this machine's id)",
	}
	idLengthFlag = cli.IntFlag{
		Name:  "id-length",
		Usage: "bit width of node ids and count of routing-table buckets",
		Value: discover.DefaultConfig().IDLength,
	}
	kFlag = cli.IntFlag{
		Name:  "k",
		Usage: "per-bucket capacity",
		Value: discover.DefaultConfig().K,
	}
	alphaFlag = cli.IntFlag{
		Name:  "alpha",
		Usage: "iterative lookup concurrency (retained for config compatibility)",
		Value: discover.DefaultConfig().Alpha,
	}
	pingTimeoutFlag = cli.DurationFlag{
		Name:  "ping-timeout",
		Usage: "expiry for an outstanding PING",
		Value: discover.DefaultConfig().PingTimeout,
	}
	findNodeTimeoutFlag = cli.DurationFlag{
		Name:  "find-node-timeout",
		Usage: "expiry for an outstanding FIND_NODE",
		Value: discover.DefaultConfig().FindNodeTimeout,
	}
	poolScanPeriodFlag = cli.DurationFlag{
		Name:  "pool-scan-period",
		Usage: "per-bucket insertion-pool scanner tick",
		Value: discover.DefaultConfig().PoolScanPeriod,
	}
	inboxSizeFlag = cli.IntFlag{
		Name:  "inbox-size",
		Usage: "bound on a node's inbound message queue",
		Value: 256,
	}
	peersFlag = cli.IntFlag{
		Name:  "peers",
		Usage: "number of stand-in peers to start in-process and bootstrap against",
		Value: 3,
	}
	logDirFlag = cli.StringFlag{
		Name:  "log-dir",
		Usage: "directory for rotating JSON-lines mlog segments (disabled if empty)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "console log verbosity (0-9)",
		Value: 0,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "kadbootnode"
	app.Usage = "run one Kademlia routing-table node and explore it interactively"
	app.Version = Version
	app.Flags = []cli.Flag{
		idFlag, idLengthFlag, kFlag, alphaFlag,
		pingTimeoutFlag, findNodeTimeoutFlag, poolScanPeriodFlag,
		inboxSizeFlag, peersFlag, logDirFlag, verbosityFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	logger.SetVerbosity(logger.Level(ctx.Int(verbosityFlag.Name)))

	config := discover.Config{
		IDLength:        ctx.Int(idLengthFlag.Name),
		K:               ctx.Int(kFlag.Name),
		Alpha:           ctx.Int(alphaFlag.Name),
		PingTimeout:     ctx.Duration(pingTimeoutFlag.Name),
		FindNodeTimeout: ctx.Duration(findNodeTimeoutFlag.Name),
		PoolScanPeriod:  ctx.Duration(poolScanPeriodFlag.Name),
	}
	if err := config.Validate(); err != nil {
		return err
	}

	localID, err := resolveLocalID(ctx.String(idFlag.Name), config.IDLength)
	if err != nil {
		return fmt.Errorf("kadbootnode: resolving local id: %w", err)
	}

	var logSink *logger.RecordWriter
	if dir := ctx.String(logDirFlag.Name); dir != "" {
		sink, err := logger.NewRotatingFileSink(dir, "kadbootnode", 4<<20)
		if err != nil {
			return fmt.Errorf("kadbootnode: opening log sink: %w", err)
		}
		defer sink.Close()
		logSink = logger.NewRecordWriter(sink)
	}

	book := discover.NewAddressBook()
	ids := discover.NewIDGenerator()
	inboxSize := ctx.Int(inboxSizeFlag.Name)

	local, err := discover.NewNodeCore(localID, config, book, ids, inboxSize, nil, logSink)
	if err != nil {
		return fmt.Errorf("kadbootnode: starting local node: %w", err)
	}
	defer local.Close()

	peers, err := startStandinPeers(ctx.Int(peersFlag.Name), config, book, ids, inboxSize)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range peers {
			p.Close()
		}
	}()

	out := consoleWriter()
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintf(out, "kadbootnode: local id %s, %d stand-in peer(s)\n", local.ID(), len(peers))

	if len(peers) > 0 {
		if err := local.Bootstrap(peers[0].ID()); err != nil {
			fmt.Fprintf(out, "bootstrap against %s failed: %v\n", peers[0].ID(), err)
		} else {
			fmt.Fprintf(out, "bootstrapping against %s\n", peers[0].ID())
		}
	}

	return repl(local, out)
}

// consoleWriter wraps stdout so ANSI color sequences render correctly
// on Windows consoles too (github.com/mattn/go-colorable), and
// disables color altogether when stdout isn't a terminal
// (github.com/mattn/go-isatty) — e.g. when output is piped to a file.
func consoleWriter() io.Writer {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	return colorable.NewColorableStdout()
}

// resolveLocalID parses idHex if given, otherwise derives a stable
// default id from this machine's id (github.com/denisbrodbeck/machineid)
// so repeated manual runs on the same machine reuse the same id,
// falling back to a random id if the machine id is unavailable.
func resolveLocalID(idHex string, idLength int) (discover.NodeID, error) {
	if idHex != "" {
		return discover.HexID(idHex)
	}
	seed, err := machineid.ID()
	if err != nil {
		return discover.RandomNodeID(idLength)
	}
	return discover.HexID(hashToHex(seed))
}

// hashToHex folds an arbitrary machine-id string down to a hex digest
// sized for NodeID consumption. Node ids carry no cryptographic
// identity, so a simple FNV-1a fold is plenty for a stable-looking
// default id, which is all this is for.
func hashToHex(s string) string {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return fmt.Sprintf("%016x%016x", h, ^h)
}

func startStandinPeers(n int, config discover.Config, book *discover.AddressBook, ids *discover.IDGenerator, inboxSize int) ([]*discover.NodeCore, error) {
	peers := make([]*discover.NodeCore, 0, n)
	for i := 0; i < n; i++ {
		id, err := discover.RandomNodeID(config.IDLength)
		if err != nil {
			return nil, fmt.Errorf("kadbootnode: generating stand-in peer id: %w", err)
		}
		peer, err := discover.NewNodeCore(id, config, book, ids, inboxSize, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("kadbootnode: starting stand-in peer: %w", err)
		}
		if i > 0 {
			peer.Bootstrap(peers[0].ID())
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// repl drives the interactive prompt until the operator quits or
// closes stdin.
func repl(local *discover.NodeCore, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	help := "commands: dump, closest <hex>, ping <hex>, peers, quit"
	fmt.Fprintln(out, help)

	for {
		input, err := line.Prompt("kad> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "dump":
			fmt.Fprintln(out, wordwrap.WrapString(local.Snapshot(), 80))
			if logger.V(1) {
				fmt.Fprintln(out, local.Table().Explain())
			}
		case "closest":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: closest <hex-id>")
				continue
			}
			target, err := discover.HexID(fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			for _, id := range local.Table().FindClosest(target, 10) {
				fmt.Fprintln(out, " ", id)
			}
		case "ping":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: ping <hex-id>")
				continue
			}
			target, err := discover.HexID(fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := local.Ping(target); err != nil {
				fmt.Fprintln(out, err)
			}
		case "peers":
			fmt.Fprintln(out, local.Table().Dump())
		default:
			fmt.Fprintln(out, help)
		}
	}
}
