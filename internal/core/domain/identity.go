package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// SystemRole is the global role carried by an identity.
type SystemRole string

const (
	RoleAdmin   SystemRole = "ADMIN"
	RoleManager SystemRole = "MANAGER"
	RoleUser    SystemRole = "USER"
	RoleGuest   SystemRole = "GUEST"
)

// Action is the verb half of a resource permission.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionManage Action = "MANAGE"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage:
		return true
	}
	return false
}

// ProjectRole is the role an identity holds inside a single project.
type ProjectRole string

const (
	ProjectAdmin   ProjectRole = "PROJECT_ADMIN"
	ProjectManager ProjectRole = "PROJECT_MANAGER"
	ProjectMember  ProjectRole = "PROJECT_MEMBER"
	ProjectViewer  ProjectRole = "PROJECT_VIEWER"
)

// ID is a backend identifier. The backend emits ids as JSON numbers or
// strings; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a backend time value. It accepts RFC 3339, local date-times
// without a zone (read as UTC), bare dates and epoch numbers in seconds or
// milliseconds. Anything else, including "" and null, decodes to the zero
// time instead of failing the enclosing payload.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		t.Time = parseTimestamp(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	if v, err := n.Int64(); err == nil {
		// Values past 1e11 cannot be seconds within this century.
		if v > 1e11 || v < -1e11 {
			t.Time = time.UnixMilli(v).UTC()
		} else {
			t.Time = time.Unix(v, 0).UTC()
		}
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Permission is a named grant over a resource, supplied by the backend.
type Permission struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   Action `json:"action"`
}

// Project is the subset of project data carried inside a membership.
type Project struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectMembership binds an identity to a project with a single role.
type ProjectMembership struct {
	Project  Project     `json:"project"`
	Role     ProjectRole `json:"role"`
	JoinedAt Timestamp   `json:"joinedAt,omitempty"`
}

// Identity is the authenticated principal. It is owned by AuthState and is
// replaced wholesale on every successful session check.
type Identity struct {
	ID                 ID                  `json:"id"`
	Email              string              `json:"email"`
	Name               string              `json:"name"`
	Picture            string              `json:"picture,omitempty"`
	SystemRole         SystemRole          `json:"systemRole"`
	Roles              []string            `json:"roles"`
	Permissions        []Permission        `json:"permissions"`
	ProjectMemberships []ProjectMembership `json:"projectMemberships"`
}

// HasRole reports whether the identity holds role either as its system role
// or inside its role set. Names are compared exactly.
func (i *Identity) HasRole(role string) bool {
	if i == nil || role == "" {
		return false
	}
	if string(i.SystemRole) == role {
		return true
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is derived from the system role or the role set.
func (i *Identity) IsAdmin() bool { return i.HasRole(string(RoleAdmin)) }

// IsManager is derived from the system role or the role set.
func (i *Identity) IsManager() bool { return i.HasRole(string(RoleManager)) }

// Membership returns the identity's membership in projectID, if any.
func (i *Identity) Membership(projectID ID) (ProjectMembership, bool) {
	if i == nil || projectID == "" {
		return ProjectMembership{}, false
	}
	for _, m := range i.ProjectMemberships {
		if m.Project.ID == projectID {
			return m, true
		}
	}
	return ProjectMembership{}, false
}

// DedupeMemberships keeps the first membership per project.
func DedupeMemberships(in []ProjectMembership) []ProjectMembership {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[ID]struct{}, len(in))
	out := make([]ProjectMembership, 0, len(in))
	for _, m := range in {
		if _, ok := seen[m.Project.ID]; ok {
			continue
		}
		seen[m.Project.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
