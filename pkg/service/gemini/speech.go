package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"google.golang.org/genai"
)

const (
	transcribePrompt = "Transcribe audio."

	defaultSampleRate = 24000
	pcmChannels       = 1
	pcmBitsPerSample  = 16
)

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := c.generate(ctx, "transcribe", c.fastModel,
		userContent(genai.NewPartFromBytes(audio, mimeType), genai.NewPartFromText(transcribePrompt)),
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Speak synthesizes text and returns a playable WAV file
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}

	resp, err := c.generate(ctx, "speak", c.speechModel,
		userContent(genai.NewPartFromText(text)),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, goerr.Wrap(model.ErrMalformedResponse, "no audio in response", goerr.V("model", c.speechModel))
	}
	if strings.HasPrefix(blob.MIMEType, "audio/wav") {
		return blob.Data, nil
	}
	return wrapPCM(blob.Data, sampleRate(blob.MIMEType)), nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

// sampleRate reads the rate parameter of a raw PCM MIME type such as "audio/L16;codec=pcm;rate=24000"
func sampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || key != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultSampleRate
}

// wrapPCM prefixes 16-bit mono little-endian PCM with a RIFF/WAVE header
func wrapPCM(pcm []byte, rate int) []byte {
	blockAlign := pcmChannels * pcmBitsPerSample / 8
	byteRate := rate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmChannels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(pcmBitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
