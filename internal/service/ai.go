package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// generationTimeout bounds a single AI provider call.
const generationTimeout = 60 * time.Second

// TextGenerator produces short text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator produces raw image bytes from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ThumbnailStore persists generated thumbnail bytes. Satisfied by MediaService.
type ThumbnailStore interface {
	UploadGeneratedThumbnail(ctx context.Context, data []byte) (*model.UploadResult, error)
}

// AIService runs generation jobs from the AI stream: titles and descriptions
// through the text provider, thumbnails through the image provider. Results
// are written onto the video row, bumping updated_at so the video re-sorts
// to the top of its listings like any other edit.
type AIService struct {
	videoRepo repository.VideoRepository
	text      TextGenerator
	image     ImageGenerator
	store     ThumbnailStore
}

func NewAIService(videoRepo repository.VideoRepository, text TextGenerator, image ImageGenerator, store ThumbnailStore) *AIService {
	return &AIService{
		videoRepo: videoRepo,
		text:      text,
		image:     image,
		store:     store,
	}
}

// RunTitleGeneration generates and stores a title for the video.
func (s *AIService) RunTitleGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	if s.text == nil {
		log.Printf("[AIService] Title generation skipped, no text provider: video=%s", videoID)
		return nil
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	fullPrompt := buildTitlePrompt(video, prompt)
	title, err := s.text.GenerateText(ctx, fullPrompt)
	if err != nil {
		return fmt.Errorf("generate title: %w", err)
	}

	title = sanitizeGeneratedText(title, model.MaxVideoTitleLength)
	if title == "" {
		return fmt.Errorf("generated title is empty")
	}

	if err := s.videoRepo.SetGeneratedText(ctx, videoID, "title", title); err != nil {
		return fmt.Errorf("store generated title: %w", err)
	}

	log.Printf("[AIService] Title generated: video=%s len=%d", videoID, len(title))
	return nil
}

// RunDescriptionGeneration generates and stores a description for the video.
func (s *AIService) RunDescriptionGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	if s.text == nil {
		log.Printf("[AIService] Description generation skipped, no text provider: video=%s", videoID)
		return nil
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	fullPrompt := buildDescriptionPrompt(video, prompt)
	description, err := s.text.GenerateText(ctx, fullPrompt)
	if err != nil {
		return fmt.Errorf("generate description: %w", err)
	}

	description = sanitizeGeneratedText(description, model.MaxVideoDescriptionLength)
	if description == "" {
		return fmt.Errorf("generated description is empty")
	}

	if err := s.videoRepo.SetGeneratedText(ctx, videoID, "description", description); err != nil {
		return fmt.Errorf("store generated description: %w", err)
	}

	log.Printf("[AIService] Description generated: video=%s len=%d", videoID, len(description))
	return nil
}

// RunThumbnailGeneration generates a thumbnail image and stores it on the video.
func (s *AIService) RunThumbnailGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	if s.image == nil || s.store == nil {
		log.Printf("[AIService] Thumbnail generation skipped, no image provider: video=%s", videoID)
		return nil
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	fullPrompt := buildThumbnailPrompt(video, prompt)
	imageBytes, err := s.image.GenerateImage(ctx, fullPrompt)
	if err != nil {
		return fmt.Errorf("generate thumbnail: %w", err)
	}

	result, err := s.store.UploadGeneratedThumbnail(ctx, imageBytes)
	if err != nil {
		return fmt.Errorf("store generated thumbnail: %w", err)
	}

	if err := s.videoRepo.SetThumbnail(ctx, videoID, result.URL, result.Key); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}

	log.Printf("[AIService] Thumbnail generated: video=%s key=%s", videoID, result.Key)
	return nil
}

func buildTitlePrompt(video *model.Video, hint string) string {
	var b strings.Builder
	b.WriteString("Write a single engaging video title, at most 100 characters. ")
	b.WriteString("Reply with the title only, no quotes or commentary.\n")
	if video.Title != "" {
		fmt.Fprintf(&b, "Current working title: %s\n", video.Title)
	}
	if video.Description != nil && *video.Description != "" {
		fmt.Fprintf(&b, "Video description: %s\n", *video.Description)
	}
	if hint != "" {
		fmt.Fprintf(&b, "Creator notes: %s\n", hint)
	}
	return b.String()
}

func buildDescriptionPrompt(video *model.Video, hint string) string {
	var b strings.Builder
	b.WriteString("Write a video description of 2-4 short paragraphs. ")
	b.WriteString("Reply with the description only, no commentary.\n")
	fmt.Fprintf(&b, "Video title: %s\n", video.Title)
	if hint != "" {
		fmt.Fprintf(&b, "Creator notes: %s\n", hint)
	}
	return b.String()
}

func buildThumbnailPrompt(video *model.Video, hint string) string {
	if hint != "" {
		return fmt.Sprintf("A bold, eye-catching video thumbnail, no text overlay: %s", hint)
	}
	return fmt.Sprintf("A bold, eye-catching video thumbnail for a video titled %q, no text overlay", video.Title)
}

// sanitizeGeneratedText trims whitespace and provider quote wrapping, then
// truncates to the column limit.
func sanitizeGeneratedText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return strings.TrimSpace(text)
}

// ClaudeTextGenerator implements TextGenerator using Anthropic's Claude API.
type ClaudeTextGenerator struct {
	client anthropic.Client
	model  string
}

func NewClaudeTextGenerator(apiKey string) *ClaudeTextGenerator {
	return &ClaudeTextGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  string(anthropic.ModelClaudeSonnet4_5_20250929),
	}
}

// GenerateText calls the Claude messages API and returns the first text block.
func (g *ClaudeTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	start := time.Now()
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	log.Printf("[Claude] GenerateText OK: len=%d duration=%v", len(textBlock.Text), time.Since(start))
	return textBlock.Text, nil
}

// OpenAIImageGenerator implements ImageGenerator using the OpenAI images API.
type OpenAIImageGenerator struct {
	client *openai.Client
}

func NewOpenAIImageGenerator(apiKey string) *OpenAIImageGenerator {
	return &OpenAIImageGenerator{client: openai.NewClient(apiKey)}
}

// GenerateImage calls the image API and returns decoded PNG bytes.
func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai api returned empty response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}

	log.Printf("[OpenAI] GenerateImage OK: bytes=%d duration=%v", len(data), time.Since(start))
	return data, nil
}
