/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file plus an autosave of the
// open ticket document.
package crash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"ticketforge/internal/editor"
	applog "ticketforge/internal/log"
	"ticketforge/internal/storage"
	"ticketforge/internal/version"
)

// UntitledName names autosaves of documents that were never named.
const UntitledName = "Untitled"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session is the open document a crash should rescue. Any field may be nil.
type Session struct {
	Editor  *editor.Editor
	Library *storage.Library
	// ReportDir receives crash reports. Empty means next to the library file,
	// or the temp dir without a library.
	ReportDir string
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and autosaves the editor document
// into the library snapshots.
//
// Usage: defer crash.Recover(session)
func Recover(s *Session) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(s, r, stack)
	if err != nil {
		l.Error("crash report failed", slog.Any("err", err))
	}
	if key, err := s.autosave(); err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
	} else if key != "" {
		l.Info("autosave crash snapshot written", slog.String("template", key))
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	// Exit with a non-zero code to indicate failure in CLI context.
	exitFn(2)
}

var errNoSession = errors.New("no document to autosave")

// autosave stores the editor document as the newest library snapshot and
// returns its snapshot key.
func (s *Session) autosave() (string, error) {
	if s == nil || s.Editor == nil {
		return "", nil
	}
	if s.Library == nil {
		return "", errNoSession
	}
	tpl := s.Editor.Template("")
	if tpl.Name == "" {
		tpl.Name = UntitledName
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Library.SaveSnapshot(ctx, tpl, time.Now()); err != nil {
		return "", err
	}
	if tpl.ID == "" {
		return storage.UnsavedID, nil
	}
	return tpl.ID, nil
}

func (s *Session) reportDir() string {
	switch {
	case s == nil:
		return os.TempDir()
	case s.ReportDir != "":
		return s.ReportDir
	case s.Library != nil:
		return filepath.Join(filepath.Dir(s.Library.Path()), "crash")
	}
	return os.TempDir()
}

func writeReport(s *Session, panicVal any, stack []byte) (string, error) {
	dir := s.reportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "TicketForge Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil && s.Editor != nil {
		tpl := s.Editor.Template("")
		_, _ = fmt.Fprintf(&buf, "Template: %q (id %q)\n", tpl.Name, tpl.ID)
		_, _ = fmt.Fprintf(&buf, "Elements: %d Dirty: %t\n", len(tpl.Elements), s.Editor.IsDirty())
	}
	if s != nil && s.Library != nil {
		_, _ = fmt.Fprintf(&buf, "Library: %s\n", s.Library.Path())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
