package pem

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	beginPrefix = "-----BEGIN "
	endPrefix   = "-----END "
	frameSuffix = "-----"
	lineWidth   = 64
)

// Render returns the textual form of a single block. Structured blocks
// are framed with BEGIN/END lines, followed by sorted property lines, a
// blank separator and the base64 payload. Content blocks render as their
// raw text with a trailing newline.
func (b *Block) Render() string {
	if b.Kind() == KindContent {
		text := string(b.Payload)
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text
	}

	var sb strings.Builder
	sb.WriteString(beginPrefix + b.Name + frameSuffix + "\n")
	for _, k := range b.propertyKeys() {
		sb.WriteString(k + ": " + b.Properties[k] + "\n")
	}
	sb.WriteString("\n")
	if len(b.Payload) > 0 {
		enc := base64.StdEncoding.EncodeToString(b.Payload)
		for len(enc) > lineWidth {
			sb.WriteString(enc[:lineWidth] + "\n")
			enc = enc[lineWidth:]
		}
		sb.WriteString(enc + "\n")
	}
	sb.WriteString(endPrefix + b.Name + frameSuffix + "\n")
	return sb.String()
}

// Parse reads a textual document into a BlockList. Text outside
// BEGIN/END frames becomes content blocks; blank runs between frames are
// dropped. Parse is the inverse of (*BlockList).Render for any list this
// package produces.
func Parse(text string) (*BlockList, error) {
	list := NewBlockList()
	lines := strings.Split(text, "\n")

	var content []string
	flushContent := func() {
		joined := strings.Join(content, "\n")
		content = nil
		if strings.TrimSpace(joined) == "" {
			return
		}
		// Render appends the newline again, drop it for a stable round trip.
		joined = strings.TrimSuffix(joined, "\n")
		cb := NewBlock(NameContent)
		cb.Payload = []byte(joined)
		list.Append(cb)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, beginPrefix) || !strings.HasSuffix(line, frameSuffix) {
			content = append(content, line)
			continue
		}
		flushContent()

		name := strings.TrimSuffix(strings.TrimPrefix(line, beginPrefix), frameSuffix)
		block := NewBlock(name)

		i++
		// property lines until the blank separator or the end frame
		for ; i < len(lines); i++ {
			line = lines[i]
			if line == "" || strings.HasPrefix(line, endPrefix) {
				break
			}
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("pem: block %q: malformed property line %q", name, line)
			}
			block.Set(strings.TrimSpace(key), strings.TrimSpace(value))
		}

		// base64 payload until the end frame
		var body strings.Builder
		closed := false
		for ; i < len(lines); i++ {
			line = lines[i]
			if strings.HasPrefix(line, endPrefix) {
				got := strings.TrimSuffix(strings.TrimPrefix(line, endPrefix), frameSuffix)
				if got != name {
					return nil, fmt.Errorf("pem: block %q closed as %q", name, got)
				}
				closed = true
				break
			}
			body.WriteString(strings.TrimSpace(line))
		}
		if !closed {
			return nil, fmt.Errorf("pem: block %q: missing end frame", name)
		}
		if body.Len() > 0 {
			payload, err := base64.StdEncoding.DecodeString(body.String())
			if err != nil {
				return nil, fmt.Errorf("pem: block %q: bad payload: %w", name, err)
			}
			block.Payload = payload
		}
		list.Append(block)
	}
	flushContent()

	return list, nil
}
