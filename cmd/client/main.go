package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Username      string `env:"CHAT_USERNAME,required=true"`
	Password      string `env:"CHAT_PASSWORD,required=true"`
	Room          string `env:"CHAT_ROOM,default=general"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := login(config)
	if err != nil {
		return exitRuntime, err
	}

	wsURL := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", wsURL.String(), err)
	}
	defer conn.Close()

	if err := send(conn, map[string]string{"event": "authenticate", "token": token}); err != nil {
		return exitRuntime, err
	}
	if err := send(conn, map[string]string{"event": "join_room", "room": config.Room}); err != nil {
		return exitRuntime, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		receive(conn)
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" {
				stop()
				return
			}
			if err := send(conn, map[string]string{
				"event": "send_message", "room": config.Room, "message": line,
			}); err != nil {
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return exitOK, nil
}

func login(config Config) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": config.Username,
		"password": config.Password,
	})
	resp, err := http.Post("http://"+config.ServerAddress+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login refused with status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("malformed login response: %w", err)
	}
	return payload.Token, nil
}

func send(conn *websocket.Conn, frame map[string]string) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// receive prints the event stream until the socket closes.
func receive(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		render(frame.Event, frame.Data)
	}
}

func render(eventName string, data json.RawMessage) {
	var fields map[string]any
	_ = json.Unmarshal(data, &fields)

	switch eventName {
	case "message":
		color.Green.Printf("[%v] ", fields["timestamp"])
		color.Bold.Printf("%v: ", fields["username"])
		fmt.Printf("%v\n", fields["content"])
	case "user_typing":
		color.Gray.Printf("%v is typing...\n", fields["username"])
	case "user_stop_typing":
		// Quiet: the next message clears the indicator anyway.
	case "room_joined":
		color.Cyan.Printf("-> %v joined %v\n", fields["username"], fields["room"])
	case "room_left":
		color.Cyan.Printf("<- %v left %v\n", fields["username"], fields["room"])
	case "user_joined":
		color.Yellow.Printf("* %v is online\n", fields["username"])
	case "user_left":
		color.Yellow.Printf("* %v went offline\n", fields["username"])
	case "error":
		color.Red.Printf("error [%v]: %v\n", fields["code"], fields["reason"])
	}
}
