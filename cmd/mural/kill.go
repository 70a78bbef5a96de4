package main

import (
	"github.com/muralwl/mural/internal/ipc"
)

func runKill(args []string) error {
	if len(args) != 0 {
		return userError("kill takes no arguments")
	}

	conn, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := ipc.SendKill(conn); err != nil {
		return daemonError("send kill: %w", err)
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
