package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/jonathan/policy-generator/internal/types"
	"go.uber.org/zap"
)

// ContentType of exported documents.
const ContentType = "text/markdown"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename derives the export name from a display label:
// lowercase, whitespace runs replaced by "-", ".md" appended.
func Filename(label string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(label), "-") + ".md"
}

// FilenameFor returns the export name for a policy type.
func FilenameFor(policyType types.PolicyType) string {
	return Filename(policyType.Label())
}

// FileSaver persists an exported document.
type FileSaver interface {
	Save(name, contentType string, data []byte) (string, error)
}

// DirSaver writes exports into a directory.
type DirSaver struct {
	Dir string
}

// Save writes data to Dir/name and returns the full path.
func (s DirSaver) Save(name, _ string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Clipboard is the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes through the OS clipboard utilities.
type SystemClipboard struct{}

// WriteAll copies text to the clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this system")
	}
	return clipboard.WriteAll(text)
}

// CopyToClipboard places the document text on the clipboard.
func (o *Orchestrator) CopyToClipboard(text string) error {
	if o.opts.Clipboard == nil {
		return &ExportError{Op: "copy", Cause: fmt.Errorf("no clipboard configured")}
	}
	if err := o.opts.Clipboard.WriteAll(text); err != nil {
		o.logger.Warn("clipboard write failed", zap.Error(err))
		o.notify("Copy Failed", "The policy could not be copied to the clipboard.", VariantDestructive)
		return &ExportError{Op: "copy", Cause: err}
	}
	o.notify("Copied to Clipboard", "Your policy has been copied to the clipboard.", VariantDefault)
	return nil
}

// ExportAsFile saves the document as markdown and returns the filename used.
func (o *Orchestrator) ExportAsFile(text string, policyType types.PolicyType) (string, error) {
	if !policyType.Valid() {
		return "", &ValidationError{Field: "policyType", Message: fmt.Sprintf("unknown policy type %q", policyType)}
	}
	name := FilenameFor(policyType)
	saver := o.opts.Saver
	if saver == nil {
		saver = DirSaver{}
	}
	path, err := saver.Save(name, ContentType, []byte(text))
	if err != nil {
		o.logger.Warn("export failed", zap.Error(err))
		o.notify("Download Failed", "The policy could not be saved.", VariantDestructive)
		return "", &ExportError{Op: "save", Cause: err}
	}
	o.logger.Debug("policy exported", zap.String("path", path))
	o.notify("Policy Downloaded", fmt.Sprintf("Your policy has been saved as %s.", name), VariantDefault)
	return name, nil
}
