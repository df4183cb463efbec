package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	serverURL   = flag.String("server", "ws://localhost:8080/ws/converse", "Conversation WebSocket URL")
	httpBaseURL = flag.String("http", "http://localhost:8080", "REST API base URL (for clear/history)")
	sessionID   = flag.String("session", "", "Session ID (empty lets the server mint one)")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	delay       = flag.Duration("delay", time.Second, "Delay between scripted turns")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

// Scripted scenario for non-interactive runs: a complaint followed by a
// contextual follow-up, then a plain question. Exercises intent switching
// and history carry-over in one pass.
var scriptedTurns = []string{
	"Hi there!",
	"I was charged twice on my last bill and nobody has fixed it.",
	"It's still not resolved, this is really frustrating.",
	"What are your support hours?",
}

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &SimulatorConfig{
		ServerURL:   *serverURL,
		HTTPBaseURL: *httpBaseURL,
		SessionID:   *sessionID,
	}

	simulator := NewSimulator(config, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}
	defer simulator.Stop()

	if *interactive {
		runInteractiveMode(simulator)
	} else {
		fmt.Printf("Conversation simulator started\n")
		fmt.Printf("  Server: %s\n", *serverURL)
		if *sessionID != "" {
			fmt.Printf("  Session: %s\n", *sessionID)
		}
		fmt.Println()

		simulator.RunScript(scriptedTurns, *delay)
	}
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nConversation Simulator - Interactive Mode")
	fmt.Println("=========================================")
	fmt.Println("Type anything to send it as an utterance.")
	fmt.Println("Commands:")
	fmt.Println("  /clear     - Clear the session history")
	fmt.Println("  /history   - Print the committed history")
	fmt.Println("  /quit      - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
