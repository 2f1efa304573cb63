package comm

import "strings"

// Line prefixes.
const (
	PrefixSuccess      = "suc"
	PrefixFailure      = "err"
	PrefixDebug        = "#debug"
	PrefixNotification = "!"
	Banner             = ">>>"
)

// LineKind classifies a line sent by the node.
type LineKind int

// Line kinds.
const (
	LineText LineKind = iota
	LineSuccess
	LineFailure
	LineDebug
	LineNotification
	LineBanner
)

var lineKindNames = []string{"text", "suc", "err", "debug", "notification", "banner"}

// String implements fmt.Stringer.
func (k LineKind) String() string {
	if k >= 0 && int(k) < len(lineKindNames) {
		return lineKindNames[k]
	}
	return "unknown"
}

// Line is a parsed node output line.
type Line struct {
	Kind LineKind
	Raw  string
	// Command is the keyword of a suc/err reply.
	Command string
	// Args is the remaining text after the reply keyword,
	// or the text of a debug line.
	Args string
	// Name and Value are set for notifications.
	Name  string
	Value string
}

// IsReply indicates the line terminates a command.
func (l Line) IsReply() bool {
	return l.Kind == LineSuccess || l.Kind == LineFailure
}

// ParseLine classifies a line, CR/LF are ignored.
func ParseLine(s string) (l Line) {
	s = strings.TrimRight(s, "\r\n")
	l.Raw = s
	switch {
	case s == Banner:
		l.Kind = LineBanner
	case strings.HasPrefix(s, PrefixNotification):
		l.Kind = LineNotification
		l.Name, l.Value = splitField(s[len(PrefixNotification):])
	case strings.HasPrefix(s, PrefixDebug):
		l.Kind = LineDebug
		l.Args = strings.TrimPrefix(s[len(PrefixDebug):], " ")
	case strings.HasPrefix(s, PrefixSuccess+" "):
		l.Kind = LineSuccess
		l.Command, l.Args = splitField(s[len(PrefixSuccess)+1:])
	case strings.HasPrefix(s, PrefixFailure+" "):
		l.Kind = LineFailure
		l.Command, l.Args = splitField(s[len(PrefixFailure)+1:])
	default:
		l.Kind = LineText
	}
	return
}

func splitField(s string) (string, string) {
	if pos := strings.IndexByte(s, ' '); pos >= 0 {
		return s[:pos], s[pos+1:]
	}
	return s, ""
}
