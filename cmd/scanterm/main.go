package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/client"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/scanner"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/services/printer"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

// wedgeDecoder stands in for the camera on stations driven by a keyboard
// wedge scanner. The wedge types straight into stdin, so acquiring and
// releasing the device are no-ops; decoded texts are pushed into the session
// by the command loop.
type wedgeDecoder struct{}

func (wedgeDecoder) Start(ctx context.Context, onDecoded func(string)) error { return nil }
func (wedgeDecoder) Stop() error                                             { return nil }

// spoolJob renders label pages into a PDF dropped in the spool directory,
// where the printing agent picks it up.
type spoolJob struct {
	dir       string
	artifacts []printer.LabelArtifact
}

func (j *spoolJob) Render(label workflow.Label, copies int) error {
	for i := 0; i < copies; i++ {
		j.artifacts = append(j.artifacts, printer.LabelArtifact{
			Kind:        label.Kind,
			Data:        label.Data,
			Description: label.Description,
		})
	}
	return nil
}

func (j *spoolJob) Print() error {
	data, err := printer.RenderLabelPages(j.artifacts, 1)
	if err != nil {
		return &workflow.PrintError{Kind: workflow.RenderError, Message: err.Error()}
	}
	name := filepath.Join(j.dir, fmt.Sprintf("labels_%d.pdf", time.Now().UnixMilli()))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return &workflow.PrintError{Kind: workflow.RenderError, Message: err.Error()}
	}
	log.Printf("🖨️  Spooled %d pages to %s", len(j.artifacts), name)
	return nil
}

func (j *spoolJob) Close() error {
	j.artifacts = nil
	return nil
}

type spoolSurface struct{ dir string }

func (s spoolSurface) Open(ctx context.Context) (workflow.PrintJob, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, &workflow.PrintError{Kind: workflow.PopupBlocked, Message: err.Error()}
	}
	return &spoolJob{dir: s.dir}, nil
}

func main() {
	_ = godotenv.Load()

	baseURL := getEnv("BACKEND_URL", "http://localhost:3210")
	role := getEnv("STATION_ROLE", "marker")
	stationID := getEnv("STATION_ID", "station_"+uuid.New().String()[:8])
	spoolDir := getEnv("SPOOL_DIR", "./spool")
	autoConfirm := os.Getenv("AUTO_CONFIRM") == "true"

	token := os.Getenv("ACCESS_TOKEN")
	if token == "" {
		var err error
		token, err = login(baseURL, os.Getenv("STAFF_EMAIL"), os.Getenv("STAFF_PASSWORD"))
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	}

	api := client.New(baseURL, token)

	cfg := workflow.SessionConfig{
		Decoder:     wedgeDecoder{},
		HistorySize: workflow.HistoryCapacity,
	}
	switch role {
	case "marker":
		cfg.Resolver = api
		cfg.Repeats = api
	case "otk":
		cfg.Submitter = client.InspectionSubmitter{Client: api}
	case "packer":
		cfg.Submitter = client.PackSubmitter{Client: api}
	default:
		log.Fatalf("Unknown station role: %s", role)
	}

	session := workflow.NewSession(cfg)
	orch := workflow.NewPrintOrchestrator(spoolSurface{dir: spoolDir}, api, workflow.DefaultPrintWait)

	go listenPrintSignals(baseURL, stationID, orch)

	log.Printf("🚀 Station %s up (role: %s, backend: %s)", stationID, role, baseURL)
	fmt.Println("Commands: scan | raw <text> | file <path> | stop | accept | reject | category <slug> | photo <path> | submit | canceldefect | repeat | print | history | select <code> | status | quit")

	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", session.Status())
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		cmd, arg := line, ""
		if i := strings.IndexByte(line, ' '); i >= 0 {
			cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
		}

		var err error
		switch cmd {
		case "scan":
			err = session.StartScan(ctx)
		case "raw":
			err = session.HandleDecoded(ctx, arg)
		case "file":
			err = scanFile(ctx, session, arg)
		case "stop":
			err = session.CancelScan()
		case "accept":
			err = session.Accept(ctx)
		case "reject":
			err = session.Reject()
		case "category":
			err = session.SetDefectCategory(arg)
		case "photo":
			err = addPhoto(session, arg)
		case "submit":
			err = session.SubmitDefect(ctx)
		case "canceldefect":
			err = session.CancelDefect()
		case "repeat":
			err = session.RequestReprint(ctx)
		case "print":
			err = printCurrent(ctx, session, orch, autoConfirm)
		case "history":
			for _, item := range session.History().Items() {
				fmt.Printf("  %s  %s %s %s\n", item.InternalCode, item.Product, item.Color, item.Size)
			}
		case "select":
			err = session.SelectFromHistory(arg)
		case "status":
			if item := session.Current(); item != nil {
				fmt.Printf("  %s: %s %s %s (labels: %d, reprint: %v)\n",
					item.InternalCode, item.Product, item.Color, item.Size, len(item.Labels), item.ReprintRequired)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("Unknown command:", cmd)
			continue
		}

		if err != nil {
			log.Printf("⚠️ %v", err)
		}
	}
}

// scanFile decodes a QR code from an image file and feeds it to the session
func scanFile(ctx context.Context, session *workflow.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := scanner.DecodeFile(f)
	if err != nil {
		return err
	}
	return session.HandleDecoded(ctx, text)
}

func addPhoto(session *workflow.Session, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return session.AddDefectPhoto(workflow.Photo{Name: filepath.Base(path), Content: content})
}

// printCurrent runs the print-and-acknowledge protocol for the loaded item.
// With AUTO_CONFIRM the completion signal is self-delivered after spooling,
// for stations whose printing agent has no relay connection.
func printCurrent(ctx context.Context, session *workflow.Session, orch *workflow.PrintOrchestrator, autoConfirm bool) error {
	item := session.Current()
	if item == nil {
		return fmt.Errorf("no item loaded")
	}
	if item.ReprintRequired {
		return fmt.Errorf("labels already issued; file a repeat request instead")
	}

	if autoConfirm {
		go func() {
			time.Sleep(500 * time.Millisecond)
			orch.Deliver(workflow.CompletionSignal{InternalCode: item.InternalCode, Raw: item.Raw})
		}()
	}

	confirmed, err := orch.PrintAll(ctx, item)
	if err != nil {
		return err
	}
	if !confirmed {
		log.Printf("⚠️ No print confirmation for %s within the wait window", item.InternalCode)
		return nil
	}
	log.Printf("✅ Print acknowledged for %s", item.InternalCode)
	return nil
}

// listenPrintSignals relays PRINT_COMPLETED messages from the backend hub to
// the orchestrator. Reconnects with a flat backoff.
func listenPrintSignals(baseURL, stationID string, orch *workflow.PrintOrchestrator) {
	wsURL, err := toWsURL(baseURL)
	if err != nil {
		log.Printf("⚠️ Invalid backend URL for relay: %v", err)
		return
	}

	for {
		conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			time.Sleep(5 * time.Second)
			continue
		}

		identify := map[string]string{"type": "STATION_IDENTIFY", "stationId": stationID, "msgId": uuid.New().String()}
		if err := conn.WriteJSON(identify); err != nil {
			conn.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var sig struct {
				Type         string `json:"type"`
				InternalCode string `json:"internal_code"`
				Raw          string `json:"raw"`
			}
			if err := json.Unmarshal(message, &sig); err != nil {
				continue
			}
			if sig.Type == "PRINT_COMPLETED" {
				orch.Deliver(workflow.CompletionSignal{InternalCode: sig.InternalCode, Raw: sig.Raw})
			}
		}
		conn.Close()
		time.Sleep(5 * time.Second)
	}
}

func toWsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func login(baseURL, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("set ACCESS_TOKEN or STAFF_EMAIL/STAFF_PASSWORD")
	}

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var loginResp struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	return loginResp.Tokens.AccessToken, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
