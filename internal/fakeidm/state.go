package fakeidm

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/getmockd/idmclient/internal/id"
	"github.com/getmockd/idmclient/pkg/httputil"
)

// Service error codes carried in the error body next to the HTTP status.
const (
	CodeInvalid       = 2000
	CodeDuplicate     = 2001
	CodeAlreadyMember = 2002
	CodeNoSuchAccount = 2016
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100

	verificationPrefix = "accounts/emailVerificationTokens/"
)

// subCollections lists the collection links every item of a top-level
// collection carries.
var subCollections = map[string][]string{
	"tenants":      {"applications", "directories"},
	"applications": {"accounts", "passwordResetTokens"},
	"directories":  {"accounts", "groups"},
	"accounts":     {"groups", "groupMemberships"},
	"groups":       {"accounts", "accountMemberships"},
}

// ownerLinks names the link a created item gets back to its owner.
var ownerLinks = map[string]string{
	"tenants":      "tenant",
	"applications": "application",
	"directories":  "directory",
}

var topLevel = []string{"tenants", "applications", "directories", "accounts", "groups", "groupMemberships"}

type item struct {
	fields map[string]any
	links  map[string]string
}

// state holds every item by path, plus the ordered membership of each
// collection path. Paths have no leading slash: "accounts/<id>".
type state struct {
	mu        sync.RWMutex
	items     map[string]*item
	members   map[string][]string
	passwords map[string]string
	verify    map[string]string
	tenant    string
}

func newState(tenantName string) *state {
	s := &state{
		items:     make(map[string]*item),
		members:   make(map[string][]string),
		passwords: make(map[string]string),
		verify:    make(map[string]string),
	}
	s.tenant = "tenants/" + newID()
	s.items[s.tenant] = &item{
		fields: map[string]any{"name": tenantName, "key": strings.ToLower(tenantName)},
		links:  linksFor("tenants", s.tenant),
	}
	s.members["tenants"] = []string{s.tenant}
	return s
}

func newID() string {
	return id.New()
}

func newToken() string {
	return id.Alphanumeric(32)
}

func linksFor(coll, path string) map[string]string {
	links := make(map[string]string)
	for _, sub := range subCollections[coll] {
		links[sub] = path + "/" + sub
	}
	return links
}

func collectionOf(path string) string {
	coll, _, _ := strings.Cut(path, "/")
	return coll
}

// relPath turns an href, absolute or relative, into a state path.
func relPath(base, href string) string {
	href = strings.TrimPrefix(href, base)
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		href = u.Path
	}
	return strings.Trim(href, "/")
}

// refPath extracts the path of a {"href": ...} link value.
func refPath(base string, v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	href, ok := m["href"].(string)
	if !ok || href == "" {
		return "", false
	}
	return relPath(base, href), true
}

func (s *state) render(base, path string) map[string]any {
	it := s.items[path]
	out := maps.Clone(it.fields)
	out["href"] = base + "/" + path
	for name, target := range it.links {
		out[name] = map[string]any{"href": base + "/" + target}
	}
	return out
}

func (s *state) get(base, path string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if path == "tenants/current" {
		path = s.tenant
	}
	if _, ok := s.items[path]; !ok {
		return nil, false
	}
	return s.render(base, path), true
}

func (s *state) isCollection(path string) bool {
	segs := strings.Split(path, "/")
	switch len(segs) {
	case 1:
		return slices.Contains(topLevel, segs[0])
	case 3:
		if _, ok := s.items[segs[0]+"/"+segs[1]]; !ok {
			return false
		}
		return slices.Contains(subCollections[segs[0]], segs[2])
	default:
		return false
	}
}

func (s *state) memberPaths(path string) []string {
	segs := strings.Split(path, "/")
	// Every account can log in to every application.
	if len(segs) == 3 && segs[0] == "applications" && segs[2] == "accounts" {
		return s.members["accounts"]
	}
	return s.members[path]
}

func (s *state) page(base, path string, offset, limit int) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isCollection(path) {
		return nil, false
	}
	all := s.memberPaths(path)
	start := min(offset, len(all))
	end := min(start+limit, len(all))

	items := make([]any, 0, end-start)
	for _, p := range all[start:end] {
		items = append(items, s.render(base, p))
	}
	return map[string]any{
		"href":   base + "/" + path,
		"offset": offset,
		"limit":  limit,
		"items":  items,
	}, true
}

// create handles a POST to a collection path. It returns the path of the
// resulting item and whether the response is a bare link.
func (s *state) create(base, parent string, body map[string]any, query url.Values) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs := strings.Split(parent, "/")
	switch {
	case strings.HasPrefix(parent, verificationPrefix) && len(segs) == 3:
		path, err := s.verifyEmail(segs[2])
		return path, true, err
	case parent == "groupMemberships":
		path, err := s.createMembership(base, body)
		return path, false, err
	case len(segs) == 3 && segs[0] == "applications" && segs[2] == "passwordResetTokens":
		path, err := s.createResetToken(parent, body)
		return path, false, err
	}

	var coll, owner string
	switch len(segs) {
	case 1:
		coll = segs[0]
		if coll != "applications" && coll != "directories" {
			return "", false, invalid(fmt.Sprintf("%s cannot be created at the top level", coll))
		}
		owner = s.tenant
	case 3:
		owner = segs[0] + "/" + segs[1]
		if _, ok := s.items[owner]; !ok {
			return "", false, notFound(owner)
		}
		coll = segs[2]
		if !slices.Contains(subCollections[segs[0]], coll) || segs[0] == "applications" || segs[0] == "accounts" || segs[0] == "groups" {
			return "", false, invalid(fmt.Sprintf("%s cannot be created under %s", coll, owner))
		}
	default:
		return "", false, notFound(parent)
	}

	path, err := s.createItem(coll, owner, body, query)
	return path, false, err
}

func (s *state) createItem(coll, owner string, body map[string]any, query url.Values) (string, error) {
	fields := fieldsOf(body)
	password, _ := fields["password"].(string)
	delete(fields, "password")

	unique := "name"
	if coll == "accounts" {
		unique = "email"
		if password == "" {
			return "", &httputil.ErrorBody{Status: http.StatusBadRequest, Code: CodeInvalid, Message: "Account password is required."}
		}
	}
	value, _ := fields[unique].(string)
	if value == "" {
		return "", invalid(fmt.Sprintf("%s %s is required", strings.TrimSuffix(coll, "s"), unique))
	}
	scope := owner + "/" + coll
	for _, p := range s.members[scope] {
		if existing, _ := s.items[p].fields[unique].(string); strings.EqualFold(existing, value) {
			return "", &httputil.ErrorBody{
				Status:  http.StatusConflict,
				Code:    CodeDuplicate,
				Message: fmt.Sprintf("A %s with %s %q already exists.", strings.TrimSuffix(coll, "s"), unique, value),
			}
		}
	}
	if _, ok := fields["status"]; !ok {
		fields["status"] = "ENABLED"
	}

	path := coll + "/" + newID()
	it := &item{fields: fields, links: linksFor(coll, path)}
	it.links[ownerLinks[collectionOf(owner)]] = owner
	if coll != "accounts" {
		it.links["tenant"] = s.tenant
	}
	if coll == "accounts" {
		s.passwords[path] = password
		if query.Get("registrationWorkflowEnabled") == "true" {
			token := newToken()
			s.verify[token] = path
			it.fields["status"] = "UNVERIFIED"
			it.links["emailVerificationToken"] = verificationPrefix + token
		}
	}

	s.items[path] = it
	s.members[scope] = append(s.members[scope], path)
	s.members[coll] = append(s.members[coll], path)
	return path, nil
}

func (s *state) verifyEmail(token string) (string, error) {
	path, ok := s.verify[token]
	if !ok {
		return "", notFound(verificationPrefix + token)
	}
	delete(s.verify, token)
	if it, ok := s.items[path]; ok {
		it.fields["status"] = "ENABLED"
		delete(it.links, "emailVerificationToken")
	}
	return path, nil
}

func (s *state) createMembership(base string, body map[string]any) (string, error) {
	account, ok := refPath(base, body["account"])
	if !ok || collectionOf(account) != "accounts" || s.items[account] == nil {
		return "", invalid("membership account must link an existing account")
	}
	group, ok := refPath(base, body["group"])
	if !ok || collectionOf(group) != "groups" || s.items[group] == nil {
		return "", invalid("membership group must link an existing group")
	}
	if slices.Contains(s.members[account+"/groups"], group) {
		return "", &httputil.ErrorBody{Status: http.StatusConflict, Code: CodeAlreadyMember, Message: "The account is already a member of the group."}
	}

	path := "groupMemberships/" + newID()
	s.items[path] = &item{
		fields: map[string]any{},
		links:  map[string]string{"account": account, "group": group},
	}
	s.members["groupMemberships"] = append(s.members["groupMemberships"], path)
	s.members[account+"/groupMemberships"] = append(s.members[account+"/groupMemberships"], path)
	s.members[group+"/accountMemberships"] = append(s.members[group+"/accountMemberships"], path)
	s.members[account+"/groups"] = append(s.members[account+"/groups"], group)
	s.members[group+"/accounts"] = append(s.members[group+"/accounts"], account)
	return path, nil
}

func (s *state) createResetToken(parent string, body map[string]any) (string, error) {
	app := strings.TrimSuffix(parent, "/passwordResetTokens")
	if s.items[app] == nil {
		return "", notFound(app)
	}
	email, _ := body["email"].(string)
	if email == "" {
		return "", invalid("email is required")
	}

	var account string
	for _, p := range s.members["accounts"] {
		f := s.items[p].fields
		e, _ := f["email"].(string)
		u, _ := f["username"].(string)
		if strings.EqualFold(e, email) || strings.EqualFold(u, email) {
			account = p
			break
		}
	}
	if account == "" {
		return "", &httputil.ErrorBody{Status: http.StatusBadRequest, Code: CodeNoSuchAccount, Message: "No account matches that email address."}
	}

	path := parent + "/" + newID()
	s.items[path] = &item{
		fields: map[string]any{"email": email},
		links:  map[string]string{"account": account},
	}
	s.members[parent] = append(s.members[parent], path)
	return path, nil
}

// save merges body into the item at path. Links cannot be changed.
func (s *state) save(base, path string, body map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[path]
	if !ok {
		return nil, notFound(path)
	}
	for k, v := range fieldsOf(body) {
		switch {
		case k == "password":
			if p, ok := v.(string); ok && p != "" {
				s.passwords[path] = p
			}
		case v == nil:
			delete(it.fields, k)
		case k == "status":
			it.fields[k] = strings.ToUpper(fmt.Sprint(v))
		default:
			it.fields[k] = v
		}
	}
	return s.render(base, path), nil
}

func (s *state) remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[path]
	if !ok || path == s.tenant {
		return notFound(path)
	}
	if collectionOf(path) == "groupMemberships" {
		account, group := it.links["account"], it.links["group"]
		s.members[account+"/groups"] = slices.DeleteFunc(s.members[account+"/groups"], func(p string) bool { return p == group })
		s.members[group+"/accounts"] = slices.DeleteFunc(s.members[group+"/accounts"], func(p string) bool { return p == account })
	}

	delete(s.items, path)
	delete(s.passwords, path)
	for k, list := range s.members {
		s.members[k] = slices.DeleteFunc(list, func(p string) bool { return p == path })
	}
	return nil
}

func (s *state) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// fieldsOf copies body without its href and link values.
func fieldsOf(body map[string]any) map[string]any {
	fields := make(map[string]any, len(body))
	for k, v := range body {
		if k == "href" {
			continue
		}
		if m, ok := v.(map[string]any); ok {
			if _, isLink := m["href"]; isLink {
				continue
			}
		}
		fields[k] = v
	}
	if s, ok := fields["status"].(string); ok {
		fields["status"] = strings.ToUpper(s)
	}
	return fields
}

func invalid(msg string) *httputil.ErrorBody {
	return &httputil.ErrorBody{Status: http.StatusBadRequest, Code: CodeInvalid, Message: msg}
}

func notFound(path string) *httputil.ErrorBody {
	return &httputil.ErrorBody{
		Status:           http.StatusNotFound,
		Code:             http.StatusNotFound,
		Message:          "The requested resource does not exist.",
		DeveloperMessage: fmt.Sprintf("resource %q not found", path),
	}
}
