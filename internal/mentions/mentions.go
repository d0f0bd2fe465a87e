// Package mentions extracts @handle tokens from content, resolves them to
// accounts and rewrites them into canonical markers of the form
// @[handle](role:id).
package mentions

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"agora/internal/models"
	"agora/internal/tenant"
)

const (
	minHandleLen = 2
	maxHandleLen = 64
)

var (
	rawPattern    = regexp.MustCompile(`@([A-Za-z0-9_.\-]+)`)
	markerPattern = regexp.MustCompile(`@\[([A-Za-z0-9_.\-]+)\]\((member|staff|admin):(\d+)\)`)
)

// Token is a raw mention found in text.
type Token struct {
	Handle string
}

// Resolved is a token bound to an account.
type Resolved struct {
	Handle string         `json:"handle"`
	User   models.UserRef `json:"user"`
}

// Marker renders the canonical form of r.
func (r Resolved) Marker() string {
	return "@[" + r.Handle + "](" + string(r.User.Role) + ":" + strconv.FormatUint(uint64(r.User.ID), 10) + ")"
}

// scan calls fn for every raw mention in text with the byte range of the
// whole token (including '@') and the handle.
func scan(text string, fn func(start, end int, handle string)) {
	for _, loc := range rawPattern.FindAllStringSubmatchIndex(text, -1) {
		start, hStart, hEnd := loc[0], loc[2], loc[3]
		if start > 0 && isWordByte(text[start-1]) {
			continue
		}
		handle := strings.TrimRight(text[hStart:hEnd], ".-")
		if len(handle) < minHandleLen || len(handle) > maxHandleLen {
			continue
		}
		fn(start, hStart+len(handle), handle)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '@' || b == ']' ||
		('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Extract returns the distinct raw mention tokens of text in order of first
// appearance. Handles compare case-insensitively.
func Extract(text string) []Token {
	seen := make(map[string]bool)
	var out []Token
	scan(text, func(_, _ int, handle string) {
		key := strings.ToLower(handle)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Token{Handle: handle})
	})
	return out
}

// parseMarker reads the handle and account of one marker match.
func parseMarker(text string, loc []int) (string, models.UserRef, bool) {
	handle := text[loc[2]:loc[3]]
	id, err := strconv.ParseUint(text[loc[6]:loc[7]], 10, 32)
	if err != nil || id == 0 {
		return handle, models.UserRef{}, false
	}
	return handle, models.Ref(uint(id), models.Role(text[loc[4]:loc[5]])), true
}

// Markers returns the canonical markers already present in text.
func Markers(text string) []Resolved {
	var out []Resolved
	seen := make(map[models.UserRef]bool)
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		handle, ref, ok := parseMarker(text, loc)
		if !ok || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, Resolved{Handle: handle, User: ref})
	}
	return out
}

// rewriteMarkers replaces every canonical marker of text with fn's result.
// ok is false for markers whose id does not parse.
func rewriteMarkers(text string, fn func(handle string, ref models.UserRef, ok bool) string) string {
	locs := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		handle, ref, ok := parseMarker(text, loc)
		b.WriteString(text[last:loc[0]])
		b.WriteString(fn(handle, ref, ok))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// Format rewrites every raw token that has a resolution into its canonical
// marker, carrying the resolved handle. Canonical markers never match a raw
// token, so Format is idempotent.
func Format(text string, resolved []Resolved) string {
	if len(resolved) == 0 {
		return text
	}
	byHandle := make(map[string]Resolved, len(resolved))
	for _, r := range resolved {
		byHandle[strings.ToLower(r.Handle)] = r
	}

	var b strings.Builder
	last := 0
	scan(text, func(start, end int, handle string) {
		r, ok := byHandle[strings.ToLower(handle)]
		if !ok {
			return
		}
		b.WriteString(text[last:start])
		b.WriteString(r.Marker())
		last = end
	})
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// Directory looks accounts up for the resolver.
type Directory interface {
	FindByHandle(ctx context.Context, tc *tenant.Context, handle string) (*models.UserSummary, error)
	// Mentionable returns the account ref names if it belongs to the tenant
	// with exactly that role, nil otherwise.
	Mentionable(ctx context.Context, tc *tenant.Context, ref models.UserRef) (*models.UserSummary, error)
}

// Resolver binds tokens to accounts.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver over dir.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve looks each token up, members first and then staff. Unknown handles
// are dropped.
func (r *Resolver) Resolve(ctx context.Context, tc *tenant.Context, tokens []Token) ([]Resolved, error) {
	out := make([]Resolved, 0, len(tokens))
	for _, tok := range tokens {
		u, err := r.dir.FindByHandle(ctx, tc, tok.Handle)
		if err != nil {
			return nil, err
		}
		if u == nil {
			continue
		}
		out = append(out, Resolved{Handle: u.Handle, User: u.Ref()})
	}
	return out, nil
}

// Process extracts, resolves and formats text. Canonical markers already in
// text are checked against the tenant: valid ones are kept with the account's
// own handle, the rest fall back to plain @handle text and go through handle
// resolution like any raw token. The returned set is deduplicated by account,
// so processing formatted output again yields the same text and set.
func (r *Resolver) Process(ctx context.Context, tc *tenant.Context, text string) (string, []Resolved, error) {
	accounts := make(map[models.UserRef]*models.UserSummary)
	for _, m := range Markers(text) {
		u, err := r.dir.Mentionable(ctx, tc, m.User)
		if err != nil {
			return "", nil, err
		}
		if u != nil {
			accounts[m.User] = u
		}
	}

	seen := make(map[models.UserRef]bool)
	var set []Resolved
	text = rewriteMarkers(text, func(handle string, ref models.UserRef, ok bool) string {
		u := accounts[ref]
		if !ok || u == nil {
			return "@" + handle
		}
		res := Resolved{Handle: u.Handle, User: ref}
		if !seen[ref] {
			seen[ref] = true
			set = append(set, res)
		}
		return res.Marker()
	})

	resolved, err := r.Resolve(ctx, tc, Extract(text))
	if err != nil {
		return "", nil, err
	}
	for _, res := range resolved {
		if seen[res.User] {
			continue
		}
		seen[res.User] = true
		set = append(set, res)
	}
	return Format(text, resolved), set, nil
}
