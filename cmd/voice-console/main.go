// Package main is the terminal front end for the realtime voice console.
//
// Usage:
//
//	go run ./cmd/voice-console
//
// Environment variables:
//
//	OPENAI_API_KEY - realtime API key (also read from ~/.voice-console)
//
// Commands:
//
//	c               - Connect
//	d               - Disconnect
//	r               - Start recording (push-to-talk)
//	s               - Stop recording and request a response
//	/mode <m>       - Switch turn mode: manual or vad
//	/agent <id>     - Bind an agent persona ("/agent" alone clears it)
//	/agents         - List available agents
//	/drop <json>    - Simulate a drag-drop persona payload
//	/log            - Print the coalesced event log
//	/items          - Print the conversation transcript
//	/meter          - Toggle the input/output frequency meter
//	q               - Quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vango-go/voice-console/internal/dotenv"
	"github.com/vango-go/voice-console/internal/keystore"
	"github.com/vango-go/voice-console/pkg/audio"
	"github.com/vango-go/voice-console/pkg/console"
	"github.com/vango-go/voice-console/pkg/realtime"
)

func main() {
	apiKey := flag.String("api-key", "", "realtime API key (persisted for later runs)")
	apiURL := flag.String("url", realtime.DefaultURL, "realtime API WebSocket URL")
	model := flag.String("model", realtime.DefaultModel, "realtime model name")
	mode := flag.String("mode", "manual", "initial turn mode: manual or vad")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (e.g. :9091)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	_ = godotenv.Load()
	if configPath, err := dotenv.ConfigPath(); err == nil {
		_ = dotenv.Load(configPath)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	key, err := resolveAPIKey(*apiKey)
	if err != nil {
		log.Fatalf("API key: %v", err)
	}

	turnMode := console.TurnModeManual
	if *mode == "vad" || *mode == string(console.TurnModeServerVAD) {
		turnMode = console.TurnModeServerVAD
	}

	audioCfg := audio.DefaultConfig()
	client := realtime.NewWSClient(realtime.Config{
		URL:    *apiURL,
		APIKey: key,
		Model:  *model,
		Audio:  audioCfg,
		Logger: logger,
	})

	var metrics *console.Metrics
	if *metricsAddr != "" {
		metrics = console.NewMetrics("voice_console")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	session := console.NewSession(
		client,
		audio.NewMicRecorder(audioCfg),
		audio.NewSpeakerPlayer(audioCfg),
		nil, // default agent catalog
		console.Config{
			TurnMode: turnMode,
			Audio:    audioCfg,
			Metrics:  metrics,
			Logger:   logger,
		},
	)

	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    Voice Console                           ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Println("║  c / d             Connect / Disconnect                    ║")
	fmt.Println("║  r / s             Start / stop push-to-talk               ║")
	fmt.Println("║  /mode <m>         manual or vad                           ║")
	fmt.Println("║  /agent <id>       Bind persona (empty clears)             ║")
	fmt.Println("║  /log /items       Event log / transcript                  ║")
	fmt.Println("║  /meter            Toggle frequency meter                  ║")
	fmt.Println("║  q                 Quit                                    ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		_ = session.Disconnect()
		cancel()
		os.Exit(0)
	}()

	var meterOn atomic.Bool
	go meterLoop(ctx, session, &meterOn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.ToLower(input) == "q" {
			break
		}
		runCommand(ctx, session, &meterOn, input)
	}

	_ = session.Disconnect()
}

func runCommand(ctx context.Context, session *console.Session, meterOn *atomic.Bool, input string) {
	switch {
	case input == "c":
		if err := session.Connect(ctx); err != nil {
			fmt.Printf("[ERROR] connect: %v\n", err)
			return
		}
		fmt.Printf("[OK] %s (mode=%s)\n", session.State(), session.TurnMode())

	case input == "d":
		if err := session.Disconnect(); err != nil {
			fmt.Printf("[ERROR] disconnect: %v\n", err)
			return
		}
		fmt.Printf("[OK] %s\n", session.State())

	case input == "r":
		if !session.CanPushToTalk() {
			fmt.Println("[INFO] push-to-talk needs manual mode and a connection")
			return
		}
		if err := session.StartRecording(); err != nil {
			fmt.Printf("[ERROR] record: %v\n", err)
			return
		}
		fmt.Println("[REC] recording... ('s' to stop)")

	case input == "s":
		if err := session.StopRecording(); err != nil {
			fmt.Printf("[ERROR] stop: %v\n", err)
			return
		}
		fmt.Println("[REC] stopped, waiting for response")

	case strings.HasPrefix(input, "/mode"):
		arg := strings.TrimSpace(strings.TrimPrefix(input, "/mode"))
		target := console.TurnModeManual
		if arg == "vad" || arg == string(console.TurnModeServerVAD) {
			target = console.TurnModeServerVAD
		} else if arg != "manual" && arg != "" {
			fmt.Println("[INFO] modes: manual, vad")
			return
		}
		if err := session.ChangeTurnMode(target); err != nil {
			fmt.Printf("[ERROR] mode: %v\n", err)
			return
		}
		fmt.Printf("[OK] mode=%s push-to-talk=%v\n", session.TurnMode(), session.CanPushToTalk())

	case input == "/agents":
		for _, a := range session.Agents() {
			fmt.Printf("  %s  %s\n", a.ID, a.Name)
		}

	case strings.HasPrefix(input, "/agent"):
		id := strings.TrimSpace(strings.TrimPrefix(input, "/agent"))
		session.SelectAgent(id)
		if agent, ok := session.ActiveAgent(); ok {
			fmt.Printf("[OK] persona: %s\n", agent.Name)
		} else {
			fmt.Println("[OK] persona cleared")
		}

	case strings.HasPrefix(input, "/drop "):
		session.DropAgent([]byte(strings.TrimPrefix(input, "/drop ")))
		if agent, ok := session.ActiveAgent(); ok {
			fmt.Printf("[OK] dropped persona: %s\n", agent.Name)
		}

	case input == "/log":
		printLog(session)

	case input == "/items":
		printItems(session)

	case input == "/meter":
		on := !meterOn.Load()
		meterOn.Store(on)
		fmt.Printf("[OK] meter %v\n", on)

	default:
		fmt.Println("[INFO] commands: c d r s /mode /agent /agents /drop /log /items /meter q")
	}
}

func printLog(session *console.Session) {
	entries := session.Log().Entries()
	if len(entries) == 0 {
		fmt.Println("  (no events)")
		return
	}
	for _, e := range entries {
		count := ""
		if e.Count > 1 {
			count = fmt.Sprintf(" (x%d)", e.Count)
		}
		fmt.Printf("  %s  %-6s  %s%s\n", session.Log().FormatTime(e.Time), e.Source, e.Type, count)
		if session.Log().IsExpanded(e.ID) && len(e.Payload) > 0 {
			fmt.Printf("          %s\n", e.Payload)
		}
	}
}

func printItems(session *console.Session) {
	items := session.Items()
	if len(items) == 0 {
		fmt.Println("  (no conversation items)")
		return
	}
	for _, item := range items {
		text := item.DisplayText()
		if text == "" {
			text = "(awaiting transcript)"
		}
		marker := ""
		if item.File != nil {
			marker = fmt.Sprintf(" [audio %s]", item.File.Duration.Round(time.Millisecond))
		}
		fmt.Printf("  %-9s  %s%s\n", item.Role, text, marker)
	}
}

// meterLoop prints a one-line input/output level meter while enabled.
func meterLoop(ctx context.Context, session *console.Session, on *atomic.Bool) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !on.Load() || !session.IsConnected() {
			continue
		}
		inRMS, inPeak := session.InputLevel()
		outRMS, _ := session.OutputLevel()
		clip := " "
		if inPeak > 0.99 {
			clip = "!"
		}
		fmt.Printf("\r  mic %s%s %s  spk %s %s          ",
			bar(inRMS), clip, spark(session.InputFrequencies(audio.KindVoice)),
			bar(outRMS), spark(session.OutputFrequencies(audio.KindVoice)))
	}
}

// bar renders an RMS level as a fixed-width gauge.
func bar(level float64) string {
	const width = 10
	n := int(level * width)
	if n > width {
		n = width
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat("-", width-n) + "]"
}

// spark renders the voice-band spectrum as a compact character ramp.
func spark(f *audio.Frequencies) string {
	const ramp = " .:-=+*#"
	out := make([]byte, len(f.Values))
	for i, v := range f.Values {
		idx := int(v * float32(len(ramp)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(ramp) {
			idx = len(ramp) - 1
		}
		out[i] = ramp[idx]
	}
	return string(out)
}

// resolveAPIKey prefers an explicit flag, then the environment, then the
// key persisted by an earlier run. A flag-provided key is persisted.
func resolveAPIKey(flagKey string) (string, error) {
	if flagKey != "" {
		if err := keystore.Save(flagKey); err != nil {
			return "", err
		}
		return flagKey, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	key, err := keystore.Load()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("no API key: set OPENAI_API_KEY or pass -api-key")
	}
	return key, nil
}
