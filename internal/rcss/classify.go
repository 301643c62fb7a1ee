package rcss

import "strings"

// Kind classifies a report by its leading token.
type Kind int

const (
	KindUnknown Kind = iota
	KindSenseBody
	KindSee
	KindSeeGlobal
	KindHear
	KindFullState
	KindOK
	KindWarning
	KindError
	KindChangePlayerType
	KindInit
	KindReconnect
	KindServerParam
	KindPlayerParam
	KindPlayerType
	KindScore
)

var kindTokens = map[string]Kind{
	"sense_body":         KindSenseBody,
	"see":                KindSee,
	"see_global":         KindSeeGlobal,
	"hear":               KindHear,
	"fullstate":          KindFullState,
	"ok":                 KindOK,
	"warning":            KindWarning,
	"error":              KindError,
	"change_player_type": KindChangePlayerType,
	"init":               KindInit,
	"reconnect":          KindReconnect,
	"server_param":       KindServerParam,
	"player_param":       KindPlayerParam,
	"player_type":        KindPlayerType,
	"score":              KindScore,
}

// String returns the leading token for the kind.
func (k Kind) String() string {
	for tok, kind := range kindTokens {
		if kind == k {
			return tok
		}
	}
	return "unknown"
}

// StartsCycle reports whether a report of this kind opens a new simulation
// cycle.
func (k Kind) StartsCycle() bool {
	return k == KindSenseBody || k == KindSeeGlobal
}

// Classify returns the kind of a report from its leading token without
// parsing the rest of it.
func Classify(report string) Kind {
	s := strings.TrimLeft(report, " \t\r\n")
	if !strings.HasPrefix(s, "(") {
		return KindUnknown
	}
	s = s[1:]
	end := strings.IndexAny(s, " ()\x00")
	if end < 0 {
		end = len(s)
	}
	if k, ok := kindTokens[s[:end]]; ok {
		return k
	}
	return KindUnknown
}

// ReportTime extracts the simulation time that follows the leading token,
// as in "(see 12 ...)". It returns false for reports without one.
func ReportTime(report string) (int, bool) {
	s := strings.TrimLeft(report, " \t\r\n")
	if !strings.HasPrefix(s, "(") {
		return 0, false
	}
	fields := strings.FieldsFunc(s[1:], func(r rune) bool {
		return r == ' ' || r == '(' || r == ')'
	})
	if len(fields) < 2 {
		return 0, false
	}
	t := 0
	for _, r := range fields[1] {
		if r < '0' || r > '9' {
			return 0, false
		}
		t = t*10 + int(r-'0')
	}
	return t, true
}
