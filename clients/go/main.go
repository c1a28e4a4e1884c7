// Terminal client for the collaborative editor sync server. Joins a room,
// prints everything the room broadcasts, and sends each line typed on
// stdin as a whole-document edit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ritvik-6/Collaborative-Code-Editor/clients/go/colab"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	room := flag.String("room", "demo", "room id to join")
	name := flag.String("name", "cli", "display name")
	color := flag.String("color", "", "display color (server picks one if empty)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := colab.Dial(ctx, *url)
	exitOnError(err)
	defer client.Close()

	exitOnError(client.Join(*room, *name, *color))

	go func() {
		for event := range client.Events() {
			printEvent(event)
		}
		fmt.Fprintln(os.Stderr, "connection closed")
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		exitOnError(client.SendCode(scanner.Text()))
	}
}

func printEvent(event protocol.Outbound) {
	switch e := event.(type) {
	case protocol.Init:
		fmt.Printf("joined as %s with %d participant(s); document:\n%s\n", e.UserID, len(e.Users), e.Code)
	case protocol.CodeUpdate:
		fmt.Printf("document updated:\n%s\n", e.Code)
	case protocol.UserJoined:
		last := e.Users[len(e.Users)-1]
		fmt.Printf("%s joined (%d in room)\n", last.Name, len(e.Users))
	case protocol.UserLeft:
		fmt.Printf("%s left (%d in room)\n", e.UserID, len(e.Users))
	case protocol.CursorUpdate:
		fmt.Printf("%s moved cursor to %d:%d\n", e.UserID, e.Cursor.LineNumber, e.Cursor.Column)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
