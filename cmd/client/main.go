// Interactive terminal client. Register a username first, then issue
// commands; server responses are printed as they arrive.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"textchat/internal/chatclient"
	"textchat/internal/wire"
)

const help = `commands:
  register         claim a username
  join             join (or create) a room
  room message     send a message to one or more rooms
  private message  send a message to one or more users
  leave            leave a room
  room users       list the members of a room
  rooms            list every room
  quit             disconnect and exit`

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "USAGE: %s <HOST> <PORT>\n", os.Args[0])
		os.Exit(1)
	}

	client, err := chatclient.Dial(os.Args[1] + ":" + os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	go printStatuses(client)

	fmt.Println(help)
	stdin := bufio.NewScanner(os.Stdin)
	for prompt(""); stdin.Scan(); prompt("") {
		var err error
		switch strings.TrimSpace(stdin.Text()) {
		case "register":
			err = client.Register(readLine(stdin, "username (20 characters max)"))
		case "join":
			err = client.Join(readLine(stdin, "room name (20 characters max)"))
		case "room message":
			err = client.RoomMessage(readNames(stdin, "room name"), readLine(stdin, "message"))
		case "private message":
			err = client.PrivateMessage(readNames(stdin, "username"), readLine(stdin, "message"))
		case "leave":
			err = client.Leave(readLine(stdin, "room name"))
		case "room users":
			err = client.ListRoomUsers(readLine(stdin, "room name"))
		case "rooms":
			err = client.ListRooms()
		case "quit":
			if err = client.Disconnect(); err != nil {
				fmt.Println(err)
			}
			return
		case "":
		default:
			fmt.Println(help)
		}
		if err != nil {
			fmt.Println(err)
		}
	}
}

func prompt(label string) {
	if label != "" {
		fmt.Println(label + ":")
	}
	fmt.Print("> ")
}

func readLine(stdin *bufio.Scanner, label string) string {
	prompt(label)
	if !stdin.Scan() {
		return ""
	}
	return stdin.Text()
}

func readNames(stdin *bufio.Scanner, label string) []string {
	var names []string
	for {
		names = append(names, readLine(stdin, label))
		if readLine(stdin, "add another? (y/N)") != "y" {
			return names
		}
	}
}

func printStatuses(client *chatclient.Client) {
	for {
		statuses, err := client.ReadStatuses()
		if err != nil {
			fmt.Println("\nconnection closed")
			os.Exit(0)
		}
		for _, status := range statuses {
			printStatus(status)
		}
	}
}

func printStatus(status wire.Status) {
	switch s := status.(type) {
	case wire.RegistrationStatus:
		fmt.Printf("\n[%d] registered as %s: %s\n> ", s.Code, wire.TrimName(s.Name), s.Message)
	case wire.JoinStatus:
		verb := "joined"
		if s.IsCreation {
			verb = "created"
		}
		fmt.Printf("\n[%d] %s %s room %s: %s\n> ", s.Code, wire.TrimName(s.Name), verb, wire.TrimName(s.Room), s.Message)
	case wire.MessageStatus:
		if s.ToRoom {
			fmt.Printf("\n[%d] %s @ %s: %s\n> ", s.Code, wire.TrimName(s.Sender), wire.TrimName(s.Room), s.Payload)
		} else {
			fmt.Printf("\n[%d] %s (private): %s\n> ", s.Code, wire.TrimName(s.Sender), s.Payload)
		}
	case wire.LeaveStatus:
		fmt.Printf("\n[%d] %s left room %s: %s\n> ", s.Code, wire.TrimName(s.Name), wire.TrimName(s.Room), s.Message)
	case wire.RoomUserListStatus:
		trimmed := make([]string, len(s.Users))
		for i, u := range s.Users {
			trimmed[i] = wire.TrimName(u)
		}
		fmt.Printf("\n[%d] users in %s: %s\n> ", s.Code, wire.TrimName(s.Room), strings.Join(trimmed, ", "))
	case wire.ListRoomStatus:
		trimmed := make([]string, len(s.Rooms))
		for i, r := range s.Rooms {
			trimmed[i] = wire.TrimName(r)
		}
		fmt.Printf("\n[%d] rooms: %s\n> ", s.Code, strings.Join(trimmed, ", "))
	case wire.DisconnectStatus:
		fmt.Printf("\n[%d] %s disconnected: %s\n> ", s.Code, wire.TrimName(s.Name), s.Message)
	case wire.BaseStatus:
		fmt.Printf("\n[%d] %s\n> ", s.Code, s.Message)
	default:
		fmt.Printf("\n[%d]\n> ", status.StatusCode())
	}
}
