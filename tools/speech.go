package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/zero-day-ai/sabik/exec"
	"github.com/zero-day-ai/sabik/health"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
	"github.com/zero-day-ai/sabik/types"
)

// Voices accepted by the speech backend.
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

const defaultVoice = "alloy"

// playbackTimeout bounds a single auto_play run.
const playbackTimeout = 5 * time.Minute

// players are tried in order; each entry is the binary and its arguments
// before the file name.
var players = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"mpg123", "-q"},
}

// Speech is the generate_speech_audio tool. It implements
// tool.HealthChecker to report whether auto_play can work.
type Speech struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// SpeechOption configures a Speech tool.
type SpeechOption func(*Speech)

// WithLookPath replaces exec.LookPath for locating audio players.
func WithLookPath(fn func(string) (string, error)) SpeechOption {
	return func(s *Speech) {
		s.lookPath = fn
	}
}

// WithPlayerRunner replaces how a located player is started.
func WithPlayerRunner(fn func(ctx context.Context, name string, args ...string) error) SpeechOption {
	return func(s *Speech) {
		s.run = fn
	}
}

// NewSpeech creates the speech tool.
func NewSpeech(opts ...SpeechOption) *Speech {
	s := &Speech{
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			_, err := exec.Run(ctx, exec.Config{Command: name, Args: args, Timeout: playbackTimeout})
			return err
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Speech) Name() string { return NameGenerateSpeech }

func (s *Speech) Description() string {
	return "Converts text to spoken audio, saves it as an mp3 file and optionally plays it."
}

func (s *Speech) Parameters() schema.JSON {
	return schema.Object(map[string]schema.JSON{
		"text_to_speak": schema.StringWithDesc("The text to speak."),
		"voice":         schema.Enum(Voices...).WithDescription("Voice to use.").WithDefault(defaultVoice),
		"auto_play":     schema.BoolWithDesc("Play the audio after it is generated."),
	}, "text_to_speak")
}

type speechRequest struct {
	Model    string        `json:"model"`
	Messages []speechInput `json:"messages"`
	Voice    string        `json:"voice"`
	Referrer string        `json:"referrer,omitempty"`
}

type speechInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type speechResponse struct {
	Choices []struct {
		Message struct {
			Audio struct {
				Data string `json:"data"`
			} `json:"audio"`
		} `json:"message"`
	} `json:"choices"`
}

// Execute requests the audio, saves it and plays it when asked to.
func (s *Speech) Execute(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	cfg := cfgOf(env)
	text := stringArg(args, "text_to_speak", "")
	voice := stringArg(args, "voice", defaultVoice)

	if strings.TrimSpace(text) == "" {
		return nil, toolerr.New(NameGenerateSpeech, "validate", toolerr.CodeInvalidInput, "text_to_speak must not be empty")
	}

	payload, err := json.Marshal(speechRequest{
		Model:    cfg.Models.Audio,
		Messages: []speechInput{{Role: "user", Content: text}},
		Voice:    voice,
		Referrer: cfg.Referrer,
	})
	if err != nil {
		return nil, toolerr.New(NameGenerateSpeech, "request", toolerr.CodeInternalFault, "cannot encode request").WithCause(err)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.TextBaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, toolerr.New(NameGenerateSpeech, "request", toolerr.CodeInvalidInput, "cannot build speech request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, body, err := fetch(ctx, httpOf(env), req, NameGenerateSpeech, "synthesize", cfg.Timeouts.GetAudio())
	if err != nil {
		return nil, err
	}

	var parsed speechResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 || parsed.Choices[0].Message.Audio.Data == "" {
		return nil, toolerr.New(NameGenerateSpeech, "decode", toolerr.CodeUpstreamStatus, "no valid audio data found in response").
			WithDetails(map[string]any{"body": truncate(string(body), 200)})
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Choices[0].Message.Audio.Data)
	if err != nil {
		return nil, toolerr.New(NameGenerateSpeech, "decode", toolerr.CodeUpstreamStatus, "audio data is not valid base64").WithCause(err)
	}

	filename := fmt.Sprintf("speech_%s_%s_%s.mp3", safeName(text, 30), voice, timestamp(env))
	path, err := saveFile(env, NameGenerateSpeech, "save", filename, audio)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Speech audio saved to %s", filepath.Base(path))
	payloadOut := map[string]any{
		"file_path": path,
		"voice":     voice,
	}

	if boolArg(args, "auto_play") {
		player, err := s.play(ctx, path)
		if err != nil {
			env.Log().Warn("audio playback failed", "file", path, "error", err)
			message += fmt.Sprintf(" (playback failed: %v)", err)
			payloadOut["played"] = false
		} else {
			message += fmt.Sprintf(" and played with %s", player)
			payloadOut["played"] = true
		}
	}

	return tool.Success(message, payloadOut), nil
}

// Health reports degraded when no audio player is installed.
func (s *Speech) Health(ctx context.Context, env *tool.Env) types.HealthStatus {
	st := health.AnyBinaryCheck(s.lookPath, playerNames()...)
	if !st.IsHealthy() {
		st.Message = "no audio player found; auto_play is unavailable"
	}
	return st
}

func (s *Speech) play(ctx context.Context, file string) (string, error) {
	name, argv, ok := s.findPlayer()
	if !ok {
		return "", fmt.Errorf("no audio player found (tried %s)", strings.Join(playerNames(), ", "))
	}
	if err := s.run(ctx, name, append(argv, file)...); err != nil {
		return name, err
	}
	return name, nil
}

func (s *Speech) findPlayer() (string, []string, bool) {
	return exec.FindFirst(s.lookPath, players)
}

func playerNames() []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p[0]
	}
	return names
}
