package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vango-go/vai-studio/pkg/core"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

// Client → server frames.

type liveClientMessage struct {
	Setup         *liveSetup         `json:"setup,omitempty"`
	RealtimeInput *liveRealtimeInput `json:"realtimeInput,omitempty"`
}

type liveSetup struct {
	Model                    string               `json:"model"`
	GenerationConfig         liveGenerationConfig `json:"generationConfig"`
	SystemInstruction        *liveContent         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}            `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}            `json:"outputAudioTranscription,omitempty"`
}

type liveGenerationConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	SpeechConfig       *liveSpeechConfig `json:"speechConfig,omitempty"`
}

type liveSpeechConfig struct {
	VoiceConfig liveVoiceConfig `json:"voiceConfig"`
}

type liveVoiceConfig struct {
	PrebuiltVoiceConfig livePrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type livePrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type liveRealtimeInput struct {
	MediaChunks []live.Blob `json:"mediaChunks"`
}

// Server → client frames.

type liveServerMessage struct {
	SetupComplete *json.RawMessage   `json:"setupComplete,omitempty"`
	ServerContent *liveServerContent `json:"serverContent,omitempty"`
	GoAway        *liveGoAway        `json:"goAway,omitempty"`
}

type liveServerContent struct {
	ModelTurn           *liveContent       `json:"modelTurn,omitempty"`
	Interrupted         bool               `json:"interrupted,omitempty"`
	TurnComplete        bool               `json:"turnComplete,omitempty"`
	InputTranscription  *liveTranscription `json:"inputTranscription,omitempty"`
	OutputTranscription *liveTranscription `json:"outputTranscription,omitempty"`
}

type liveGoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

type liveTranscription struct {
	Text string `json:"text"`
}

type liveContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []livePart `json:"parts"`
}

type livePart struct {
	Text       string     `json:"text,omitempty"`
	InlineData *live.Blob `json:"inlineData,omitempty"`
}

// modelResourceName prefixes a bare model ID with "models/".
func modelResourceName(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func buildSetup(cfg live.SessionConfig) liveClientMessage {
	setup := &liveSetup{
		Model: modelResourceName(cfg.Model),
		GenerationConfig: liveGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if cfg.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &liveSpeechConfig{
			VoiceConfig: liveVoiceConfig{PrebuiltVoiceConfig: livePrebuiltVoice{VoiceName: cfg.Voice}},
		}
	}
	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &liveContent{Parts: []livePart{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		setup.OutputAudioTranscription = &struct{}{}
	}
	return liveClientMessage{Setup: setup}
}

// toServerMessage flattens serverContent into a live.ServerMessage. Audio
// parts that cannot be decoded are skipped and reported in err; the rest of
// the message is still returned.
func toServerMessage(sc *liveServerContent) (live.ServerMessage, error) {
	var msg live.ServerMessage
	var decodeErr error
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				decodeErr = core.NewDecodeError(fmt.Sprintf("inline audio is not valid base64: %v", err))
				continue
			}
			msg.Audio = append(msg.Audio, pcm)
		}
	}
	msg.Interrupted = sc.Interrupted
	msg.TurnComplete = sc.TurnComplete
	if sc.InputTranscription != nil {
		msg.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		msg.OutputTranscript = sc.OutputTranscription.Text
	}
	return msg, decodeErr
}
