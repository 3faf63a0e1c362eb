// Command viridia-remote drives the robot from a terminal over the
// dashboard's input websocket.
//
// Type a button name (cross, circle, square, triangle, home, dleft, dright,
// dup, ddown) to press it, w/a/s/d to translate, q/e to rotate, an empty line
// or "stop" to centre the sticks and "status" to print the scheduler state.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-viridia/internal/httpc"
	"github.com/teslashibe/go-viridia/internal/log"
	"github.com/teslashibe/go-viridia/pkg/web"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Robot dashboard address")
	speed := flag.Float64("speed", 0.5, "Stick deflection for w/a/s/d/q/e, 0-1")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, *addr, *speed); err != nil {
		log.Error("remote stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, speed float64) error {
	url := fmt.Sprintf("ws://%s/ws/input", addr)
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()
	log.Info("connected", "url", url)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reading keeps pings answered and shows what the robot accepted.
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("connection lost", "error", err)
				}
				cancel()
				return
			}
			log.Debug("accepted", "message", string(data))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return closeConn(conn)
		case line, ok := <-lines:
			if !ok {
				return closeConn(conn)
			}
			cmd, err := parse(line, speed)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if cmd.status {
				printStatus(ctx, addr)
				continue
			}
			if err := conn.WriteJSON(cmd.msg); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func closeConn(conn *websocket.Conn) error {
	// Leave the robot with the sticks centred.
	_ = conn.WriteJSON(web.InputMessage{Type: web.InputCenter})
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func printStatus(ctx context.Context, addr string) {
	var snap web.Snapshot
	if err := httpc.GetJSON(ctx, fmt.Sprintf("http://%s/api/status", addr), &snap); err != nil {
		fmt.Println("status:", err)
		return
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(out))
}
