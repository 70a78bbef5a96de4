package main

import (
	"net"

	"github.com/muralwl/mural/internal/ipc"
)

// dial connects to the running daemon, translating a connection failure
// into a daemon-class exit code (2) rather than a user error (1): the
// client-side arguments were fine, the daemon just wasn't reachable.
func dial() (*net.UnixConn, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, daemonError("connect to murald: %w", err)
	}
	return conn, nil
}

// queryInfos asks the running daemon for every output's current state.
func queryInfos() ([]ipc.Info, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := ipc.SendQuery(conn); err != nil {
		return nil, daemonError("send query: %w", err)
	}
	answer, err := ipc.ReceiveAnswer(conn)
	if err != nil {
		return nil, daemonError("receive query answer: %w", err)
	}
	infos, err := ipc.DecodeInfoList(answer.Payload)
	if err != nil {
		return nil, daemonError("decode query answer: %w", err)
	}
	return infos, nil
}

// resolveOutputs filters the daemon's known outputs down to requested
// (all of them if requested is empty), returning a user error if any
// requested name doesn't exist.
func resolveOutputs(infos []ipc.Info, requested []string) ([]ipc.Info, error) {
	if len(requested) == 0 {
		return infos, nil
	}
	byName := make(map[string]ipc.Info, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	out := make([]ipc.Info, 0, len(requested))
	for _, name := range requested {
		info, ok := byName[name]
		if !ok {
			return nil, userError("unknown output %q", name)
		}
		out = append(out, info)
	}
	return out, nil
}
