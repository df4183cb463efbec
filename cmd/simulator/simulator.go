package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	ServerURL   string
	HTTPBaseURL string
	SessionID   string
}

// TurnReply mirrors the server's per-turn WebSocket response.
type TurnReply struct {
	SessionID  string  `json:"session_id"`
	Utterance  string  `json:"utterance"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reply      string  `json:"reply"`
	Audio      string  `json:"audio,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Simulator drives conversations against a running server, one WebSocket
// connection per run. Replies come back in order, so there is no message
// correlation to manage.
type Simulator struct {
	config *SimulatorConfig
	conn   *websocket.Conn
	http   *http.Client
	log    *zap.Logger

	sessionID string

	mu       sync.Mutex
	stopChan chan struct{}
}

// NewSimulator creates a new conversation simulator
func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	return &Simulator{
		config:    config,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log,
		sessionID: config.SessionID,
		stopChan:  make(chan struct{}),
	}
}

// Connect connects to the conversation server
func (s *Simulator) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.config.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.conn = conn
	s.log.Info("Connected to conversation server",
		zap.String("url", s.config.ServerURL),
	)
	return nil
}

// Stop stops the simulator
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// SendTurn sends one utterance and waits for the matching reply.
func (s *Simulator) SendTurn(utterance string) (*TurnReply, error) {
	msg, err := json.Marshal(map[string]string{
		"session_id": s.sessionID,
		"utterance":  utterance,
	})
	if err != nil {
		return nil, err
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return nil, fmt.Errorf("failed to send turn: %w", err)
	}

	s.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	var reply TurnReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("invalid reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("server error: %s", reply.Error)
	}

	// Adopt the server-minted session id so follow-ups share history.
	if s.sessionID == "" {
		s.sessionID = reply.SessionID
	}
	return &reply, nil
}

// RunScript plays through a fixed list of utterances.
func (s *Simulator) RunScript(utterances []string, delay time.Duration) {
	for i, utterance := range utterances {
		select {
		case <-s.stopChan:
			return
		default:
		}

		fmt.Printf("you> %s\n", utterance)
		reply, err := s.SendTurn(utterance)
		if err != nil {
			s.log.Error("Turn failed", zap.Error(err))
			return
		}
		printReply(reply)

		if i < len(utterances)-1 {
			time.Sleep(delay)
		}
	}

	fmt.Printf("\nSession: %s\n", s.sessionID)
}

// RunInteractive runs the simulator in interactive mode
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":

		case line == "/quit" || line == "/exit":
			fmt.Println("Goodbye!")
			return

		case line == "/clear":
			if err := s.clearSession(); err != nil {
				fmt.Printf("clear failed: %v\n", err)
			} else {
				fmt.Println("Session cleared")
			}

		case line == "/history":
			if err := s.printHistory(); err != nil {
				fmt.Printf("history failed: %v\n", err)
			}

		default:
			reply, err := s.SendTurn(line)
			if err != nil {
				fmt.Printf("turn failed: %v\n", err)
			} else {
				printReply(reply)
			}
		}

		fmt.Print("> ")
	}
}

func (s *Simulator) clearSession() error {
	if s.sessionID == "" {
		return fmt.Errorf("no session yet")
	}

	url := fmt.Sprintf("%s/api/v1/conversation/%s/clear", s.config.HTTPBaseURL, s.sessionID)
	resp, err := s.http.Post(url, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func (s *Simulator) printHistory() error {
	if s.sessionID == "" {
		return fmt.Errorf("no session yet")
	}

	url := fmt.Sprintf("%s/api/v1/conversation/%s/history", s.config.HTTPBaseURL, s.sessionID)
	resp, err := s.http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var history struct {
		Turns []struct {
			Utterance string `json:"utterance"`
			Intent    string `json:"intent"`
			Reply     string `json:"reply"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(body, &history); err != nil {
		return err
	}

	for i, t := range history.Turns {
		fmt.Printf("%2d. [%s] you: %s\n    bot: %s\n", i+1, t.Intent, t.Utterance, t.Reply)
	}
	if len(history.Turns) == 0 {
		fmt.Println("(empty)")
	}
	return nil
}

func printReply(reply *TurnReply) {
	fmt.Printf("bot> [%s %.2f] %s\n", reply.Intent, reply.Confidence, reply.Reply)
	if reply.Audio != "" {
		fmt.Printf("     (audio: %d base64 chars)\n", len(reply.Audio))
	}
}
