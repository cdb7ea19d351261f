// Package feature defines the roadmap feature snapshot the scheduler consumes
// and the sources it can be loaded from.
package feature

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Source loads a complete feature snapshot.
type Source interface {
	Features(ctx context.Context) ([]Feature, error)
}

// FileSource reads features from a JSON or YAML file, chosen by extension.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Features implements Source.
func (s *FileSource) Features(ctx context.Context) ([]Feature, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}
	return Parse(s.Path, data)
}

// Parse decodes data as YAML when name has a .yaml/.yml extension and as
// JSON otherwise.
func Parse(name string, data []byte) ([]Feature, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// Client runs an external export command (for example the roadmap app's
// CLI) and decodes the JSON it prints on stdout.
type Client struct {
	Bin  string   // executable to run
	Args []string // arguments passed before any per-call arguments
}

// NewClient creates a Client from a whitespace-separated command line.
func NewClient(command string) (*Client, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty export command")
	}
	return &Client{Bin: fields[0], Args: fields[1:]}, nil
}

func (c *Client) baseArgs() []string {
	return append([]string(nil), c.Args...)
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	all := append(c.baseArgs(), args...)
	cmd := exec.CommandContext(ctx, c.Bin, all...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w\n%s", c.Bin, strings.Join(all, " "), err, stderr.String())
	}
	return out, nil
}

// Features implements Source.
func (c *Client) Features(ctx context.Context) ([]Feature, error) {
	out, err := c.run(ctx)
	if err != nil {
		return nil, err
	}
	features, err := ParseJSON(out)
	if err != nil {
		return nil, fmt.Errorf("parse %s output: %w", c.Bin, err)
	}
	return features, nil
}
