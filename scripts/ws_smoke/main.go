package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "ws://localhost:8080/ws", "join endpoint base address")
	room := flag.Int64("room", 1, "room id")
	token := flag.String("token", os.Getenv("ROOMCHAT_TOKEN"), "join token (see `roomchat-server token`)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	addr := fmt.Sprintf("%s/%d?token=%s", strings.TrimRight(*base, "/"), *room, url.QueryEscape(*token))
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joined, err := readLine(ctx, conn)
	if err != nil {
		return fmt.Errorf("await join: %w", err)
	}
	fmt.Println(joined)
	if !strings.HasSuffix(joined, " joined the chat") {
		return fmt.Errorf("unexpected first line %q", joined)
	}
	identity := strings.TrimSuffix(joined, " joined the chat")

	if err := conn.Write(ctx, websocket.MessageText, []byte(*text)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	want := identity + ": " + *text
	for {
		line, err := readLine(ctx, conn)
		if err != nil {
			return fmt.Errorf("await echo: %w", err)
		}
		fmt.Println(line)
		if line == want {
			return nil
		}
	}
}

func readLine(ctx context.Context, conn *websocket.Conn) (string, error) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return "", fmt.Errorf("closed by server: %v", status)
			}
			return "", err
		}
		if typ == websocket.MessageText {
			return string(data), nil
		}
	}
}
