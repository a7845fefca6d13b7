// Package pools loads the content collections a generation run selects
// from: address lists, relay hosts, body templates and attachment files.
package pools

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	textExts = map[string]bool{".txt": true, ".md": true, ".text": true}
	htmlExts = map[string]bool{".html": true, ".htm": true}
)

// Paths names the input files and directories the pools are loaded from.
type Paths struct {
	FromList   string
	ToList     string
	RelayHosts string
	BodyDir    string
	HTMLDir    string
	AttachDir  string
}

// Pools holds the ordered, immutable collections for one run. Body and
// attachment pools hold file paths; contents are read lazily per selection.
type Pools struct {
	Senders     []string
	Recipients  []string
	RelayHosts  []string
	TextBodies  []string
	HTMLBodies  []string
	Attachments []string
}

// Load reads every pool once and validates the required ones are non-empty.
func Load(p Paths) (*Pools, error) {
	senders, err := ReadLines(p.FromList)
	if err != nil {
		return nil, fmt.Errorf("sender list: %w", err)
	}
	recipients, err := ReadLines(p.ToList)
	if err != nil {
		return nil, fmt.Errorf("recipient list: %w", err)
	}
	relayHosts, err := ReadLines(p.RelayHosts)
	if err != nil {
		return nil, fmt.Errorf("relay host list: %w", err)
	}
	textBodies, err := ListFiles(p.BodyDir, textExts)
	if err != nil {
		return nil, fmt.Errorf("body directory: %w", err)
	}
	htmlBodies, err := ListFiles(p.HTMLDir, htmlExts)
	if err != nil {
		return nil, fmt.Errorf("html directory: %w", err)
	}
	attachments, err := ListFiles(p.AttachDir, nil)
	if err != nil {
		return nil, fmt.Errorf("attachment directory: %w", err)
	}

	pools := &Pools{
		Senders:     senders,
		Recipients:  recipients,
		RelayHosts:  relayHosts,
		TextBodies:  textBodies,
		HTMLBodies:  htmlBodies,
		Attachments: attachments,
	}
	if err := pools.Validate(); err != nil {
		return nil, err
	}
	return pools, nil
}

// Validate enforces the non-empty requirements generation depends on.
func (p *Pools) Validate() error {
	if len(p.Senders) == 0 {
		return fmt.Errorf("sender list is empty")
	}
	if len(p.Recipients) == 0 {
		return fmt.Errorf("recipient list is empty")
	}
	if len(p.TextBodies) == 0 && len(p.HTMLBodies) == 0 {
		return fmt.Errorf("both text and HTML body pools are empty, provide at least one")
	}
	return nil
}

// ReadLines returns the non-empty trimmed lines of a list file, in order.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer file.Close()

	var items []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			items = append(items, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}
	return items, nil
}

// ListFiles returns the regular files in dir, name-sorted for reproducible
// runs. A nil extension set accepts every file.
func ListFiles(dir string, exts map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if exts != nil && !exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// LoadText reads one body template.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}
