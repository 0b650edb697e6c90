package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one header line per record followed by an indented
// list of the fields worth reading at the record's level:
//
//	2026-10-17 09:12:03 INFO [processor] train · dia5_utt2 (assemble) – output written
//	    - Segments: 2
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     attrList
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	out := h.render(record)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, out)
	return err
}

func (h *prettyHandler) render(record slog.Record) string {
	attrs := make(attrList, 0, record.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs.add(h.groups, attr)
		return true
	})
	attrs = attrs.dedupe()

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var b strings.Builder
	b.WriteString(consoleTime(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if component := attrs.lookup(FieldComponent); component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	subject := FormatSubject(attrs.lookup(FieldSplit), attrs.lookup(FieldDialogueID), attrs.lookup(FieldUtteranceID), attrs.lookup(FieldStage))
	if subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
	}
	b.WriteString(" – ")
	b.WriteString(message)
	if src := record.Source(); h.addSource && src != nil {
		fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
	}
	b.WriteByte('\n')

	fields, hidden := selectInfoFields(attrs, record.Level < slog.LevelInfo)
	for _, field := range fields {
		fmt.Fprintf(&b, "    - %s: %s\n", field.label, field.value)
	}
	switch {
	case hidden == 1:
		b.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(&b, "    + %d more fields hidden\n", hidden)
	}
	return b.String()
}

// FormatSubject builds the split/clip/stage subject string used in console output,
// e.g. "train · dia5_utt2 (assemble)".
func FormatSubject(split, dialogueID, utteranceID, stage string) string {
	split = strings.TrimSpace(split)
	dialogueID = strings.TrimSpace(dialogueID)
	utteranceID = strings.TrimSpace(utteranceID)
	stage = strings.TrimSpace(stage)

	var clip string
	if dialogueID != "" {
		clip = "dia" + dialogueID
		if utteranceID != "" {
			clip += "_utt" + utteranceID
		}
	}
	switch {
	case clip != "" && stage != "":
		clip += " (" + stage + ")"
	case clip == "":
		clip = stage
	}

	switch {
	case split == "":
		return clip
	case clip == "":
		return split
	}
	return split + " · " + clip
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, attr := range attrs {
		clone.attrs.add(h.groups, attr)
	}
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	c := *h
	c.attrs = append(attrList(nil), h.attrs...)
	c.groups = append([]string(nil), h.groups...)
	return &c
}

type kv struct {
	key   string
	value slog.Value
}

// attrList holds record attributes flattened to dotted keys.
type attrList []kv

func (l *attrList) add(prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	path := prefix
	if attr.Key != "" {
		path = append(append([]string(nil), prefix...), attr.Key)
	}
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			l.add(path, member)
		}
		return
	}
	*l = append(*l, kv{key: strings.Join(path, "."), value: value})
}

// dedupe keeps the first position of each key with the last value written.
func (l attrList) dedupe() attrList {
	positions := make(map[string]int, len(l))
	out := make(attrList, 0, len(l))
	for _, attr := range l {
		if attr.key == "" {
			continue
		}
		if pos, ok := positions[attr.key]; ok {
			out[pos].value = attr.value
			continue
		}
		positions[attr.key] = len(out)
		out = append(out, attr)
	}
	return out
}

func (l attrList) lookup(key string) string {
	for _, attr := range l {
		if attr.key == key {
			return plainValue(attr.value)
		}
	}
	return ""
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
