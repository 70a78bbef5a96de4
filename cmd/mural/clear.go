package main

import (
	"flag"

	"github.com/muralwl/mural/internal/ipc"
)

func runClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	outputsFlag := fs.String("outputs", "", "comma-separated list of outputs (default: all)")
	if err := fs.Parse(args); err != nil {
		return userError("%w", err)
	}
	if fs.NArg() != 1 {
		return userError("clear requires exactly one color argument")
	}

	color, err := parseRGB(fs.Arg(0))
	if err != nil {
		return userError("%w", err)
	}

	outputs := splitOutputs(*outputsFlag)
	if len(outputs) == 0 {
		infos, err := queryInfos()
		if err != nil {
			return err
		}
		for _, info := range infos {
			outputs = append(outputs, info.Name)
		}
	}
	if len(outputs) == 0 {
		return userError("no outputs known; is murald running and connected to at least one output?")
	}

	conn, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	req := ipc.ClearRequest{Color: color, Outputs: outputs}
	if err := ipc.SendClear(conn, req); err != nil {
		return daemonError("send clear request: %w", err)
	}
	answer, err := ipc.ReceiveAnswer(conn)
	if err != nil {
		return daemonError("receive answer: %w", err)
	}
	if answer.Code != ipc.CodeOk {
		return daemonError("unexpected answer code %v", answer.Code)
	}
	return nil
}
