package executor

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a temp directory owned by exactly one conversion task.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh directory under the system temp dir.
func NewWorkspace(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteFile writes data to name inside the workspace and returns the full path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

// ReadFile reads name from the workspace.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	err := os.RemoveAll(w.Dir)
	w.Dir = ""
	return err
}

// With runs fn inside a fresh workspace and always removes it afterwards.
// A cleanup failure is reported through onCleanupErr and never replaces fn's error.
func With(prefix string, onCleanupErr func(error), fn func(ws *Workspace) error) error {
	ws, err := NewWorkspace(prefix)
	if err != nil {
		return err
	}
	dir := ws.Dir
	defer func() {
		if cerr := ws.Close(); cerr != nil && onCleanupErr != nil {
			onCleanupErr(fmt.Errorf("remove %s: %w", dir, cerr))
		}
	}()
	return fn(ws)
}
