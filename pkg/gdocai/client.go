package gdocai

import (
	"context"
	"errors"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/gardar/gradeflow/pkg/config"
)

// ErrNotConfigured is returned by NewClient when no processor is configured.
var ErrNotConfigured = errors.New("document ai processor not configured")

// Client talks to one Document AI processor.
type Client struct {
	cli  *documentai.DocumentProcessorClient
	name string
}

// NewClient connects to the regional Document AI endpoint of cfg.
func NewClient(ctx context.Context, cfg config.DocAIConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	cli, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return &Client{
		cli:  cli,
		name: fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.cli.Close() }

// Process sends raw document bytes to the processor and returns the Document.
func (c *Client) Process(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: c.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}
	resp, err := c.cli.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.Document, nil
}
