package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zero-day-ai/sabik/llm"
	"github.com/zero-day-ai/sabik/schema"
	"github.com/zero-day-ai/sabik/tool"
	"github.com/zero-day-ai/sabik/toolerr"
)

// TranscribeAudio returns the transcribe_audio_file tool.
func TranscribeAudio() tool.Tool {
	return tool.MustNew(tool.NewConfig().
		SetName(NameTranscribeAudio).
		SetDescription("Transcribes speech from a local audio file (wav or mp3) into text.").
		SetParameters(schema.Object(map[string]schema.JSON{
			"audio_file_path": schema.StringWithDesc("Local path of the audio file."),
		}, "audio_file_path")).
		SetExecuteFunc(transcribeAudio))
}

func transcribeAudio(ctx context.Context, args map[string]any, env *tool.Env) (any, error) {
	path := stringArg(args, "audio_file_path", "")

	if env == nil || env.LLM == nil {
		return nil, toolerr.New(NameTranscribeAudio, "transcribe", toolerr.CodeInternalFault, "no model client configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, toolerr.New(NameTranscribeAudio, "load", toolerr.CodeFileIO,
			fmt.Sprintf("Could not load or encode audio file: %s", path)).
			WithCause(err).
			WithDetails(map[string]any{"audio_file_path": path})
	}

	cfg := cfgOf(env)
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeouts.GetAudio())
	defer cancel()

	text, err := llm.TranscribeAudio(ctx, env.LLM, cfg.Models.Audio,
		base64.StdEncoding.EncodeToString(data), audioFormat(path))
	if err != nil {
		return nil, modelError(NameTranscribeAudio, "transcribe", err)
	}

	return tool.Success(
		fmt.Sprintf("Transcribed %s", filepath.Base(path)),
		map[string]any{"transcription": text},
	), nil
}

// audioFormat maps a file extension to an input-audio format. The backend
// accepts only wav and mp3.
func audioFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return "wav"
	}
	return "mp3"
}
