package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/twitchat/twitchat-tui/internal/client"
	"github.com/twitchat/twitchat-tui/internal/tui"
)

var version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "Print the version and exit")
	vFlag := flag.Bool("v", false, "Print the version and exit (shorthand)")
	channelFlag := flag.String("channel", "", "Channel to join (required)")
	tokenFlag := flag.String("token", "", "OAuth token (defaults to $TWITCH_TOKEN)")
	nickFlag := flag.String("nick", "", "Nickname to authenticate as")
	flag.Parse()

	if *versionFlag || *vFlag {
		fmt.Println(version)
		os.Exit(0)
	}

	if *channelFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: twitchat-tui -channel <name> [-token <oauth token>] [-nick <name>]")
		os.Exit(2)
	}

	token := *tokenFlag
	if token == "" {
		token = os.Getenv("TWITCH_TOKEN")
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "No OAuth token given; pass -token or set $TWITCH_TOKEN")
		os.Exit(2)
	}

	cfg, err := client.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *nickFlag != "" {
		cfg.Nick = *nickFlag
	}

	actionsChan := make(chan client.UserAction, 10)
	eventsChan := make(chan client.DisplayEvent, 10)

	chatClient, err := client.New(cfg, token, *channelFlag, actionsChan, eventsChan)
	if err != nil {
		log.Fatalf("Failed to create chat client: %v", err)
	}

	appUI := tui.New(cfg.Nick, actionsChan, eventsChan)

	go chatClient.Run()

	if err := appUI.Run(); err != nil {
		log.Fatalf("Failed to run TUI: %v", err)
	}
}
