// Package rspql extracts window/stream declarations from an RSP-QL query
// string and rewrites the query into a plain SPARQL query an off-the-shelf
// engine can execute.
package rspql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ReportType is the REGISTER clause's report strategy. Only RStream
// semantics are implemented: IStream and DStream are parsed and recorded,
// but their windows are emitted exactly as RStream windows are.
type ReportType int

const (
	RStream ReportType = iota
	IStream
	DStream
)

func (r ReportType) String() string {
	switch r {
	case RStream:
		return "RStream"
	case IStream:
		return "IStream"
	case DStream:
		return "DStream"
	default:
		return "unknown"
	}
}

// WindowDecl is one FROM NAMED WINDOW declaration.
type WindowDecl struct {
	WindowName string
	StreamName string
	Range      int64
	Step       int64
}

// ParsedQuery is the output of Parse: the extracted declarations plus the
// rewritten inner SPARQL query.
type ParsedQuery struct {
	ReportType  ReportType
	OutputName  string
	Windows     []WindowDecl
	StreamURIs  []string
	SparqlQuery string
	Prefixes    map[string]string
}

// MalformedQuery reports a structural problem with the RSP-QL input.
type MalformedQuery struct {
	Reason string
}

func (e *MalformedQuery) Error() string { return "malformed RSP-QL query: " + e.Reason }

var (
	rePrefix   = regexp.MustCompile(`(?i)PREFIX\s+([A-Za-z0-9_-]*)\s*:\s*<([^>]*)>`)
	reRegister = regexp.MustCompile(`(?i)REGISTER\s+(RStream|IStream|DStream)\s+(\S+)\s+AS`)
	reWindow   = regexp.MustCompile(`(?i)FROM\s+NAMED\s+WINDOW\s+(\S+)\s+ON\s+STREAM\s+(\S+)(?:\s*\[?\s*RANGE\s+(\d+)\s+STEP\s+(\d+)\s*\]?)?`)
)

// Parse extracts declarations from query and produces the rewritten inner
// SPARQL query. It returns a *MalformedQuery when no window declaration is
// present, or when a WINDOW graph pattern refers to a window never
// declared via FROM NAMED WINDOW.
func Parse(query string) (ParsedQuery, error) {
	prefixes := parsePrefixes(query)

	registerMatch := reRegister.FindStringSubmatchIndex(query)
	var reportType ReportType
	var outputName string
	body := query
	if registerMatch != nil {
		reportType = parseReportType(query[registerMatch[2]:registerMatch[3]])
		outputName = expandIRI(query[registerMatch[4]:registerMatch[5]], prefixes)
		body = query[:registerMatch[0]] + query[registerMatch[1]:]
	}

	windowMatches := reWindow.FindAllStringSubmatchIndex(body, -1)
	if len(windowMatches) == 0 {
		return ParsedQuery{}, &MalformedQuery{Reason: "no FROM NAMED WINDOW declaration found"}
	}

	windows := make([]WindowDecl, 0, len(windowMatches))
	declaredWindows := map[string]bool{}
	streamSet := map[string]bool{}
	var streamURIs []string

	for _, m := range windowMatches {
		winTok := body[m[2]:m[3]]
		streamTok := body[m[4]:m[5]]
		rangeStr, stepStr := "", ""
		if m[6] != -1 {
			rangeStr = body[m[6]:m[7]]
		}
		if m[8] != -1 {
			stepStr = body[m[8]:m[9]]
		}
		if rangeStr == "" || stepStr == "" {
			return ParsedQuery{}, &MalformedQuery{Reason: fmt.Sprintf("window %q missing RANGE/STEP", winTok)}
		}
		rng, err := strconv.ParseInt(rangeStr, 10, 64)
		if err != nil || rng <= 0 {
			return ParsedQuery{}, &MalformedQuery{Reason: fmt.Sprintf("window %q has invalid RANGE %q", winTok, rangeStr)}
		}
		step, err := strconv.ParseInt(stepStr, 10, 64)
		if err != nil || step <= 0 {
			return ParsedQuery{}, &MalformedQuery{Reason: fmt.Sprintf("window %q has invalid STEP %q", winTok, stepStr)}
		}

		winIRI := expandIRI(winTok, prefixes)
		streamIRI := expandIRI(streamTok, prefixes)
		windows = append(windows, WindowDecl{WindowName: winIRI, StreamName: streamIRI, Range: rng, Step: step})
		declaredWindows[winIRI] = true
		if !streamSet[streamIRI] {
			streamSet[streamIRI] = true
			streamURIs = append(streamURIs, streamIRI)
		}
	}

	stripped := reWindow.ReplaceAllString(body, "")
	rewritten, usedWindows, err := rewriteWindowBlocks(stripped, prefixes)
	if err != nil {
		return ParsedQuery{}, err
	}
	for _, w := range usedWindows {
		if !declaredWindows[w] {
			return ParsedQuery{}, &MalformedQuery{Reason: fmt.Sprintf("WINDOW clause references undeclared window %q", w)}
		}
	}

	return ParsedQuery{
		ReportType:  reportType,
		OutputName:  outputName,
		Windows:     windows,
		StreamURIs:  streamURIs,
		SparqlQuery: rewritten,
		Prefixes:    prefixes,
	}, nil
}

func parseReportType(s string) ReportType {
	switch strings.ToLower(s) {
	case "istream":
		return IStream
	case "dstream":
		return DStream
	default:
		return RStream
	}
}

func parsePrefixes(query string) map[string]string {
	out := map[string]string{}
	for _, m := range rePrefix.FindAllStringSubmatch(query, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// expandIRI resolves a "<full-iri>" or "prefix:local" token into its full
// IRI form using the query's PREFIX declarations.
func expandIRI(tok string, prefixes map[string]string) string {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		return tok[1 : len(tok)-1]
	}
	if idx := strings.Index(tok, ":"); idx >= 0 {
		prefix, local := tok[:idx], tok[idx+1:]
		if ns, ok := prefixes[prefix]; ok {
			return ns + local
		}
	}
	return tok
}

var reWindowToken = regexp.MustCompile(`(?i)\bWINDOW\s+(<[^>]+>|[A-Za-z0-9_-]*:[A-Za-z0-9_-]*)\s*\{`)

// rewriteWindowBlocks replaces every "WINDOW <iri> { ... }" occurrence with
// "GRAPH <iri> { ... }", leaving the brace-delimited block's contents
// untouched, and returns the set of window IRIs referenced.
func rewriteWindowBlocks(s string, prefixes map[string]string) (string, []string, error) {
	var sb strings.Builder
	var used []string
	pos := 0
	for {
		loc := reWindowToken.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			sb.WriteString(s[pos:])
			break
		}
		matchStart, matchEnd := pos+loc[0], pos+loc[1]
		tokenStart, tokenEnd := pos+loc[2], pos+loc[3]
		braceOpenIdx := matchEnd - 1 // position of the '{' consumed by the regex

		depth := 1
		i := braceOpenIdx + 1
		for ; i < len(s) && depth > 0; i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			return "", nil, &MalformedQuery{Reason: "unbalanced braces in WINDOW graph pattern"}
		}

		winIRI := expandIRI(s[tokenStart:tokenEnd], prefixes)
		used = append(used, winIRI)

		sb.WriteString(s[pos:matchStart])
		sb.WriteString("GRAPH <")
		sb.WriteString(winIRI)
		sb.WriteString("> ")
		sb.WriteString(s[braceOpenIdx:i])
		pos = i
	}
	return sb.String(), used, nil
}
