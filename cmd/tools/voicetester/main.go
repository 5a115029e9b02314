package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/drivelink/voicebot/internal/config"
	speechmodel "github.com/drivelink/voicebot/internal/model/speech"
	"github.com/drivelink/voicebot/internal/service/speech"
)

// voicetester exercises the speech collaborators from the command line:
// transcribe a recorded file or synthesize a clip, without starting the API.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.Speech.Enabled() {
		log.Fatal("speech services not configured, set DEEPGRAM_API_KEY and ELEVENLABS_API_KEY")
	}

	mode := flag.String("mode", "", "test mode: asr or tts")
	audioPath := flag.String("audio", "", "input audio file for asr mode")
	contentType := flag.String("content-type", "", "content type of the input audio (default derived as audio/webm)")
	text := flag.String("text", "", "input text for tts mode")
	voice := flag.String("voice", "", "voice id for tts mode, defaults to ELEVENLABS_VOICE_ID")
	outputPath := flag.String("out", "", "output audio file for tts mode (default generated)")
	session := flag.String("session", "", "session id, generated when empty")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "asr" && *mode != "tts" {
		flag.Usage()
		log.Fatal("specify a test mode with -mode=asr or -mode=tts")
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	svc := speech.NewService(cfg.Speech)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "asr":
		runASR(ctx, svc, sessionID, *audioPath, *contentType)
	case "tts":
		runTTS(ctx, svc, sessionID, *text, *voice, *outputPath)
	}
}

func runASR(ctx context.Context, svc *speech.Service, sessionID, audioPath, contentType string) {
	if audioPath == "" {
		log.Fatal("asr mode requires an audio file via -audio")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer file.Close()

	req := &speechmodel.ASRRequest{
		SessionID:   sessionID,
		AudioData:   file,
		ContentType: contentType,
	}

	log.Printf("running ASR test: session=%s file=%s", sessionID, audioPath)

	resp, err := svc.TranscribeAudio(ctx, req)
	if err != nil {
		log.Fatalf("ASR request failed: %v", err)
	}

	log.Printf("ASR succeeded: transcript=%q confidence=%.2f", resp.Transcript, resp.Confidence)
}

func runTTS(ctx context.Context, svc *speech.Service, sessionID, text, voice, outputPath string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode requires text via -text")
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	req := &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		VoiceID:   voice,
	}

	log.Printf("running TTS test: session=%s voice=%s", sessionID, voice)

	resp, err := svc.SynthesizeSpeech(ctx, req)
	if err != nil {
		log.Fatalf("TTS request failed: %v", err)
	}

	if err := os.WriteFile(outputPath, resp.AudioData, 0o644); err != nil {
		log.Fatalf("failed to write audio file: %v", err)
	}

	log.Printf("TTS succeeded: wrote %d bytes to %s", len(resp.AudioData), outputPath)
}
